package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// Well-known Sui types used when walking kiosks.
const (
	KioskOwnerCapType = "0x2::kiosk::KioskOwnerCap"
	KioskItemKeyType  = "0x2::kiosk::Item"
)

// ErrObjectNotFound is returned by GetObject for deleted or unknown ids.
var ErrObjectNotFound = errors.New("object not found")

// Object is the typed view of one ledger object.
type Object struct {
	ID     string                 `json:"objectId"`
	Type   string                 `json:"type"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// Page is one page of owned objects. NextCursor is empty on the last page.
type Page struct {
	Items      []Object
	NextCursor string
}

// Reader is the read side of the ledger.
type Reader interface {
	GetObject(ctx context.Context, id string) (*Object, error)
	GetOwnedObjects(ctx context.Context, owner, cursor string) (*Page, error)
	GetBalance(ctx context.Context, owner, coinType string) (*big.Int, error)
}

// KioskReader lists kiosks owned by a wallet and the items inside them.
type KioskReader interface {
	GetOwnedContainers(ctx context.Context, owner string) ([]string, error)
	GetContainerContents(ctx context.Context, containerID string) ([]Object, error)
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
