package ownership

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-instance runs.
type MemoryStore struct {
	mu     sync.Mutex
	owners map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{owners: make(map[string]string)}
}

func (s *MemoryStore) FindByObjectIDs(_ context.Context, objectIDs []string) ([]Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byWallet := make(map[string][]string)
	for _, id := range objectIDs {
		if w, ok := s.owners[id]; ok {
			byWallet[w] = append(byWallet[w], id)
		}
	}
	return groupSorted(byWallet), nil
}

func (s *MemoryStore) UpsertAssociation(_ context.Context, wallet string, objectIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rejected []string
	for _, id := range objectIDs {
		owner, ok := s.owners[id]
		switch {
		case !ok:
			s.owners[id] = wallet
		case owner != wallet:
			rejected = append(rejected, id)
		}
	}
	return rejected, nil
}

// Objects returns the sorted object IDs credited to wallet.
func (s *MemoryStore) Objects(wallet string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, w := range s.owners {
		if w == wallet {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func groupSorted(byWallet map[string][]string) []Association {
	out := make([]Association, 0, len(byWallet))
	for w, ids := range byWallet {
		out = append(out, Association{Wallet: w, ObjectIDs: ids})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wallet < out[j].Wallet })
	return out
}
