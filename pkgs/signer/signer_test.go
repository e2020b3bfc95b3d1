package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

var (
	testSeed   = strings.Repeat("11", 32)
	testWallet = "0x" + strings.Repeat("ab", 32)
)

func ed25519Pub(t *testing.T) string {
	seed, err := hex.DecodeString(testSeed)
	require.NoError(t, err)
	return hex.EncodeToString(ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey))
}

func TestClaimMessage(t *testing.T) {
	msg, err := ClaimMessage(decimal.RequireFromString("12.3456"), testWallet, 4)
	require.NoError(t, err)
	assert.Equal(t, "12345:"+testWallet+":4", msg)

	msg, err = ClaimMessage(decimal.NewFromInt(0), "0xAB", 0)
	require.NoError(t, err)
	assert.Equal(t, "0:0x"+strings.Repeat("0", 62)+"ab:0", msg)

	_, err = ClaimMessage(decimal.NewFromInt(-1), testWallet, 0)
	var verr *utils.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = ClaimMessage(decimal.NewFromInt(1), "", 0)
	assert.True(t, errors.As(err, &verr))
}

func TestChangeNameMessage(t *testing.T) {
	msg, err := ChangeNameMessage("Neo Tokyo", testWallet, 2)
	require.NoError(t, err)
	assert.Equal(t, "Neo Tokyo:"+testWallet+":2", msg)

	for _, bad := range []string{"", strings.Repeat("x", 33), "a:b"} {
		_, err := ChangeNameMessage(bad, testWallet, 0)
		assert.Error(t, err, bad)
	}
	_, err = ChangeNameMessage(strings.Repeat("é", 32), testWallet, 0)
	assert.NoError(t, err)
}

func TestEd25519_SignAndVerify(t *testing.T) {
	s, err := New(SchemeEd25519, testSeed, ed25519Pub(t))
	require.NoError(t, err)
	assert.True(t, s.Ready())

	claim, err := s.SignClaim(decimal.NewFromInt(1500), testWallet, 7)
	require.NoError(t, err)
	assert.Equal(t, "1500000:"+testWallet+":7", claim.Message)
	assert.Equal(t, "0x"+ed25519Pub(t), claim.PublicKey)
	assert.True(t, Verify(SchemeEd25519, claim.PublicKey, claim.Message, claim.Signature))

	again, err := s.SignClaim(decimal.NewFromInt(1500), testWallet, 7)
	require.NoError(t, err)
	assert.Equal(t, claim.Signature, again.Signature, "signatures are deterministic")

	for _, other := range []string{
		"1500001:" + testWallet + ":7",
		"1500000:" + testWallet + ":8",
		"1500000:0x" + strings.Repeat("cd", 32) + ":7",
	} {
		assert.False(t, Verify(SchemeEd25519, claim.PublicKey, other, claim.Signature), other)
	}
}

func TestSecp256k1_SignAndVerify(t *testing.T) {
	key, err := crypto.HexToECDSA(testSeed)
	require.NoError(t, err)
	pub := hex.EncodeToString(crypto.CompressPubkey(&key.PublicKey))

	s, err := New(SchemeSecp256k1, testSeed, pub)
	require.NoError(t, err)

	claim, err := s.SignMessage("approve:city-42")
	require.NoError(t, err)
	assert.Equal(t, "0x"+pub, claim.PublicKey)
	assert.Len(t, claim.Signature, 2+65*2)
	assert.True(t, Verify(SchemeSecp256k1, claim.PublicKey, claim.Message, claim.Signature))
	assert.False(t, Verify(SchemeSecp256k1, claim.PublicKey, "approve:city-43", claim.Signature))

	again, err := s.SignMessage("approve:city-42")
	require.NoError(t, err)
	assert.Equal(t, claim.Signature, again.Signature)

	uncompressed := hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey))
	_, err = New(SchemeSecp256k1, testSeed, uncompressed)
	assert.NoError(t, err)
}

func TestNew_RejectsBadKeyMaterial(t *testing.T) {
	cases := map[string][2]string{
		"missing":    {"", ""},
		"not hex":    {"zz", ""},
		"short seed": {strings.Repeat("11", 16), ""},
		"mismatch":   {testSeed, strings.Repeat("22", 32)},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(SchemeEd25519, c[0], c[1])
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}

	_, err := New(Scheme("rsa"), testSeed, "")
	assert.Error(t, err)
}

func TestNew_DerivesPublicKey(t *testing.T) {
	s, err := New(SchemeEd25519, "0x"+testSeed, "")
	require.NoError(t, err)
	assert.Equal(t, "0x"+ed25519Pub(t), s.PublicKey())
}

func TestUnconfigured_RefusesToSign(t *testing.T) {
	s := Unconfigured(errors.New("SIGNER_PRIVATE_KEY not set"))
	assert.False(t, s.Ready())
	assert.Empty(t, s.PublicKey())

	var cfgErr *ConfigurationError
	_, err := s.SignClaim(decimal.NewFromInt(1), testWallet, 0)
	assert.True(t, errors.As(err, &cfgErr))
	_, err = s.SignMessage("x")
	assert.True(t, errors.As(err, &cfgErr))
	_, err = s.SignChangeName("x", testWallet, 0)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestParseScheme(t *testing.T) {
	sc, err := ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, SchemeEd25519, sc)

	sc, err = ParseScheme("secp256k1")
	require.NoError(t, err)
	assert.Equal(t, SchemeSecp256k1, sc)

	_, err = ParseScheme("bls")
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	assert.False(t, Verify(SchemeEd25519, "nothex", "m", "00"))
	assert.False(t, Verify(SchemeEd25519, ed25519Pub(t), "m", "0x00"))
	assert.False(t, Verify(SchemeSecp256k1, "0x02", "m", "0x00"))
	assert.False(t, Verify(Scheme("x"), ed25519Pub(t), "m", "0x00"))
}
