package signer

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Scheme names a signature algorithm.
type Scheme string

const (
	SchemeEd25519   Scheme = "ed25519"
	SchemeSecp256k1 Scheme = "secp256k1"
)

// KeySize is the length of a private key (or ed25519 seed) in bytes.
const KeySize = 32

// ParseScheme maps a config value to a Scheme. Empty means ed25519.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "", SchemeEd25519:
		return SchemeEd25519, nil
	case SchemeSecp256k1:
		return SchemeSecp256k1, nil
	default:
		return "", fmt.Errorf("unknown signature scheme %q", s)
	}
}

type keypair interface {
	sign(msg []byte) ([]byte, error)
	public() []byte
}

type ed25519Key struct {
	priv ed25519.PrivateKey
}

func newEd25519Key(seed, pub []byte) (*ed25519Key, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, configErr(fmt.Sprintf("private key must be %d bytes, got %d", ed25519.SeedSize, len(seed)), nil)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	if pub != nil && !bytes.Equal(pub, priv.Public().(ed25519.PublicKey)) {
		return nil, configErr("public key does not match private key", nil)
	}
	return &ed25519Key{priv: priv}, nil
}

func (k *ed25519Key) sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, msg), nil
}

func (k *ed25519Key) public() []byte {
	return []byte(k.priv.Public().(ed25519.PublicKey))
}

type secp256k1Key struct {
	priv       []byte
	compressed []byte
}

func newSecp256k1Key(priv, pub []byte) (*secp256k1Key, error) {
	if len(priv) != KeySize {
		return nil, configErr(fmt.Sprintf("private key must be %d bytes, got %d", KeySize, len(priv)), nil)
	}
	key, err := crypto.ToECDSA(priv)
	if err != nil {
		return nil, configErr("invalid secp256k1 private key", err)
	}
	compressed := crypto.CompressPubkey(&key.PublicKey)
	if pub != nil {
		switch len(pub) {
		case 33:
			if !bytes.Equal(pub, compressed) {
				return nil, configErr("public key does not match private key", nil)
			}
		case 65:
			if !bytes.Equal(pub, crypto.FromECDSAPub(&key.PublicKey)) {
				return nil, configErr("public key does not match private key", nil)
			}
		default:
			return nil, configErr(fmt.Sprintf("public key must be 33 or 65 bytes, got %d", len(pub)), nil)
		}
	}
	return &secp256k1Key{priv: priv, compressed: compressed}, nil
}

// textHash is keccak256 over the personal-sign prefixed message.
func textHash(msg []byte) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return crypto.Keccak256([]byte(prefixed))
}

func (k *secp256k1Key) sign(msg []byte) ([]byte, error) {
	key, err := crypto.ToECDSA(k.priv)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(textHash(msg), key)
	if err != nil {
		return nil, fmt.Errorf("secp256k1 sign failed: %w", err)
	}
	// [R || S || V] with V as 27/28
	sig[64] += 27
	return sig, nil
}

func (k *secp256k1Key) public() []byte {
	return k.compressed
}

func verifySecp256k1(pub, msg, sig []byte) bool {
	if len(sig) != 65 {
		return false
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return false
	}
	rs := make([]byte, 64)
	copy(rs, sig[:64])
	return crypto.VerifySignature(pub, textHash(msg), rs)
}
