package redis

import (
	"fmt"
	"strings"
)

// DefaultNamespace prefixes every key when no namespace is configured.
const DefaultNamespace = "suicity"

// KeyBuilder provides methods to generate namespaced Redis keys
type KeyBuilder struct {
	Namespace string
}

// NewKeyBuilder creates a new KeyBuilder. An empty namespace uses DefaultNamespace.
func NewKeyBuilder(namespace string) *KeyBuilder {
	namespace = strings.Trim(strings.TrimSpace(namespace), ":")
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &KeyBuilder{Namespace: namespace}
}

// Ownership Keys

// ObjectOwnerPrefix returns the prefix of the per-object owner keys.
// The atomic upsert script appends object IDs to it.
func (kb *KeyBuilder) ObjectOwnerPrefix() string {
	return fmt.Sprintf("%s:owner:object:", kb.Namespace)
}

// ObjectOwner returns the key holding the wallet credited for an object
func (kb *KeyBuilder) ObjectOwner(objectID string) string {
	return kb.ObjectOwnerPrefix() + objectID
}

// WalletObjects returns the SET key of object IDs credited to a wallet
func (kb *KeyBuilder) WalletObjects(wallet string) string {
	return fmt.Sprintf("%s:owner:wallet:%s:objects", kb.Namespace, wallet)
}

// Claim Keys

// ClaimNonce returns the key for the last observed claim nonce of a wallet
func (kb *KeyBuilder) ClaimNonce(wallet string) string {
	return fmt.Sprintf("%s:claim:nonce:%s", kb.Namespace, wallet)
}

// Event Keys

// EventChannel returns the pub/sub channel for a topic
// Format: {namespace}:events:{topic}
func (kb *KeyBuilder) EventChannel(topic string) string {
	return fmt.Sprintf("%s:events:%s", kb.Namespace, topic)
}
