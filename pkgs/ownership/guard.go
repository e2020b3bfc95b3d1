package ownership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrOwnedElsewhere marks an object already credited to a different wallet.
var ErrOwnedElsewhere = errors.New("object owned by another wallet")

// Association is one wallet and the objects credited to it.
type Association struct {
	Wallet    string   `json:"wallet"`
	ObjectIDs []string `json:"objectIds"`
}

// Store persists object-to-wallet associations.
//
// UpsertAssociation must be atomic per object: an ID is added when it is
// unowned or already owned by wallet, and returned in rejected otherwise.
type Store interface {
	FindByObjectIDs(ctx context.Context, objectIDs []string) ([]Association, error)
	UpsertAssociation(ctx context.Context, wallet string, objectIDs []string) (rejected []string, err error)
}

// Conflict lists candidate objects owned by other wallets.
type Conflict struct {
	Conflicting []string          `json:"conflicting"`
	Owners      map[string]string `json:"owners,omitempty"`
}

// Has reports whether objectID is in conflict.
func (c Conflict) Has(objectID string) bool {
	_, ok := c.Owners[objectID]
	return ok
}

// CommitConflictError is returned by Commit when some objects were claimed
// by another wallet between check and commit.
type CommitConflictError struct {
	Wallet    string
	ObjectIDs []string
}

func (e *CommitConflictError) Error() string {
	return fmt.Sprintf("%d object(s) already credited elsewhere, not committed for %s: %s",
		len(e.ObjectIDs), e.Wallet, strings.Join(e.ObjectIDs, ","))
}

func (e *CommitConflictError) Unwrap() error { return ErrOwnedElsewhere }

// Guard enforces that every object is credited to at most one wallet.
type Guard struct {
	store Store
}

// NewGuard creates a guard over store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// CheckConflict reports which of objectIDs are associated with a wallet other
// than wallet. Objects already associated with wallet are not conflicts.
func (g *Guard) CheckConflict(ctx context.Context, wallet string, objectIDs []string) (Conflict, error) {
	conflict := Conflict{Owners: map[string]string{}}
	ids := dedupe(objectIDs)
	if len(ids) == 0 {
		return conflict, nil
	}

	records, err := g.store.FindByObjectIDs(ctx, ids)
	if err != nil {
		return conflict, fmt.Errorf("failed to look up object owners: %w", err)
	}

	candidates := make(map[string]bool, len(ids))
	for _, id := range ids {
		candidates[id] = true
	}

	for _, rec := range records {
		if rec.Wallet == wallet {
			continue
		}
		for _, id := range rec.ObjectIDs {
			if candidates[id] {
				if _, dup := conflict.Owners[id]; !dup {
					conflict.Conflicting = append(conflict.Conflicting, id)
				}
				conflict.Owners[id] = rec.Wallet
			}
		}
	}

	return conflict, nil
}

// Commit associates objectIDs with wallet. Re-committing an object the wallet
// already owns is a no-op. Objects owned elsewhere are never transferred;
// they are reported through a *CommitConflictError while the rest are kept.
func (g *Guard) Commit(ctx context.Context, wallet string, objectIDs []string) error {
	ids := dedupe(objectIDs)
	if len(ids) == 0 {
		return nil
	}

	rejected, err := g.store.UpsertAssociation(ctx, wallet, ids)
	if err != nil {
		return fmt.Errorf("failed to commit ownership for %s: %w", wallet, err)
	}
	if len(rejected) > 0 {
		log.WithFields(log.Fields{
			"wallet":   wallet,
			"rejected": rejected,
		}).Warn("Ownership commit lost race for some objects")
		return &CommitConflictError{Wallet: wallet, ObjectIDs: rejected}
	}

	log.Debugf("Committed %d object(s) to %s", len(ids), wallet)
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
