package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder(t *testing.T) {
	kb := NewKeyBuilder("")
	assert.Equal(t, "suicity", kb.Namespace)

	kb = NewKeyBuilder(" game: ")
	assert.Equal(t, "game:owner:object:0xabc", kb.ObjectOwner("0xabc"))
	assert.Equal(t, "game:owner:wallet:0x1:objects", kb.WalletObjects("0x1"))
	assert.Equal(t, "game:claim:nonce:0x1", kb.ClaimNonce("0x1"))
	assert.Equal(t, "game:events:claim", kb.EventChannel("claim"))
}
