package signer

import (
	"crypto/ed25519"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

// SignedClaim is a message and the attestation over it.
type SignedClaim struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// Signer signs claim messages with one server-held key.
type Signer struct {
	scheme Scheme
	key    keypair
	err    error
}

// New builds a signer from hex-encoded key material. pubHex may be empty, in
// which case the public key is derived. Malformed or mismatching material
// yields a *ConfigurationError.
func New(scheme Scheme, privHex, pubHex string) (*Signer, error) {
	if strings.TrimSpace(privHex) == "" {
		return nil, configErr("private key is not set", nil)
	}
	priv, err := decodeHex(privHex)
	if err != nil {
		return nil, configErr("private key is not valid hex", err)
	}
	var pub []byte
	if strings.TrimSpace(pubHex) != "" {
		if pub, err = decodeHex(pubHex); err != nil {
			return nil, configErr("public key is not valid hex", err)
		}
	}

	var key keypair
	switch scheme {
	case SchemeEd25519, "":
		scheme = SchemeEd25519
		key, err = newEd25519Key(priv, pub)
	case SchemeSecp256k1:
		key, err = newSecp256k1Key(priv, pub)
	default:
		return nil, configErr("unsupported scheme "+string(scheme), nil)
	}
	if err != nil {
		return nil, err
	}

	s := &Signer{scheme: scheme, key: key}
	log.WithFields(log.Fields{
		"scheme":     scheme,
		"public_key": s.PublicKey(),
	}).Info("Claim signer initialized")
	return s, nil
}

// Unconfigured returns a signer that fails every request with err. It lets a
// process serve read-only endpoints while the key is missing.
func Unconfigured(err error) *Signer {
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		cfgErr = configErr("signer unavailable", err)
	}
	return &Signer{err: cfgErr}
}

// Scheme returns the signature scheme.
func (s *Signer) Scheme() Scheme { return s.scheme }

// Ready reports whether the signer has usable key material.
func (s *Signer) Ready() bool { return s.err == nil && s.key != nil }

// PublicKey returns the hex public key, or "" when unconfigured.
func (s *Signer) PublicKey() string {
	if !s.Ready() {
		return ""
	}
	return hexutil.Encode(s.key.public())
}

// SignClaim signs "{amount*1000}:{wallet}:{nonce}".
func (s *Signer) SignClaim(amount decimal.Decimal, wallet string, nonce uint64) (*SignedClaim, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	msg, err := ClaimMessage(amount, wallet, nonce)
	if err != nil {
		return nil, err
	}
	return s.sign(msg)
}

// SignChangeName signs "{name}:{wallet}:{nonce}".
func (s *Signer) SignChangeName(name, wallet string, nonce uint64) (*SignedClaim, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	msg, err := ChangeNameMessage(name, wallet, nonce)
	if err != nil {
		return nil, err
	}
	return s.sign(msg)
}

// SignMessage signs an arbitrary non-empty message.
func (s *Signer) SignMessage(msg string) (*SignedClaim, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if msg == "" {
		return nil, utils.NewValidationError("message", "must not be empty")
	}
	return s.sign(msg)
}

func (s *Signer) ready() error {
	if s.err != nil {
		return s.err
	}
	if s.key == nil {
		return configErr("no key loaded", nil)
	}
	return nil
}

func (s *Signer) sign(msg string) (*SignedClaim, error) {
	sig, err := s.key.sign([]byte(msg))
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"scheme": s.scheme, "message": msg}).Debug("Signed message")
	return &SignedClaim{
		Message:   msg,
		Signature: hexutil.Encode(sig),
		PublicKey: hexutil.Encode(s.key.public()),
	}, nil
}

// Verify checks a hex signature over msg against a hex public key.
func Verify(scheme Scheme, pubHex, msg, sigHex string) bool {
	pub, err := decodeHex(pubHex)
	if err != nil {
		return false
	}
	sig, err := decodeHex(sigHex)
	if err != nil {
		return false
	}
	switch scheme {
	case SchemeEd25519, "":
		if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pub), []byte(msg), sig)
	case SchemeSecp256k1:
		return verifySecp256k1(pub, []byte(msg), sig)
	default:
		return false
	}
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
