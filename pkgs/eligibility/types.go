package eligibility

import "math/big"

// Holding is one object associated with a wallet at scoring time.
type Holding struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// HoldingsSnapshot is everything a wallet holds at scoring time. It is built
// per scoring pass and never persisted.
type HoldingsSnapshot struct {
	Objects        []Holding           `json:"objects"`
	KioskItems     []Holding           `json:"kioskItems"`
	TestnetObjects []Holding           `json:"testnetObjects"`
	Balances       map[string]*big.Int `json:"balances"`
}

// ObjectCount is the number of objects counted towards the activity bonus.
func (h HoldingsSnapshot) ObjectCount() int64 {
	return int64(len(h.Objects) + len(h.TestnetObjects) + len(h.KioskItems))
}

// Memberships maps list name to whether the wallet is on it.
type Memberships map[string]bool

// Category groups breakdown items.
type Category string

const (
	CategoryCollection  Category = "collection"
	CategoryToken       Category = "token"
	CategoryNameService Category = "name_service"
	CategoryList        Category = "list"
	CategoryTestnet     Category = "testnet"
	CategoryActivity    Category = "activity"
)

// Exclusion reasons recorded on zero-point items.
const (
	ReasonOwnedElsewhere = "owned by another wallet"
	ReasonCheckFailed    = "ownership check failed"
)

// Item is one line of the score breakdown.
type Item struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Points   int64    `json:"points"`
	ObjectID string   `json:"objectId,omitempty"`
	Excluded bool     `json:"excluded,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// Record is the scored eligibility of one wallet.
type Record struct {
	Wallet            string   `json:"wallet"`
	Total             int64    `json:"total"`
	Uncapped          int64    `json:"uncapped"`
	Items             []Item   `json:"breakdown"`
	EligibleObjectIDs []string `json:"eligibleObjectIds"`

	limit int64
}

// ConflictingIDs lists objects withheld because another wallet owns them.
func (r *Record) ConflictingIDs() []string {
	var ids []string
	for _, it := range r.Items {
		if it.Excluded && it.Reason == ReasonOwnedElsewhere {
			ids = append(ids, it.ObjectID)
		}
	}
	return ids
}

// Exclude withdraws credit for the given objects after the fact, e.g. when a
// concurrent claimant won the commit race, and recomputes the total.
func (r *Record) Exclude(ids []string, reason string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	for i := range r.Items {
		it := &r.Items[i]
		if it.ObjectID != "" && drop[it.ObjectID] && !it.Excluded {
			it.Excluded = true
			it.Reason = reason
			it.Points = 0
		}
	}

	kept := r.EligibleObjectIDs[:0]
	for _, id := range r.EligibleObjectIDs {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	r.EligibleObjectIDs = kept
	r.recompute()
}

func (r *Record) recompute() {
	var sum int64
	for _, it := range r.Items {
		sum += it.Points
	}
	r.Uncapped = sum
	r.Total = sum
	if r.limit > 0 && r.Total > r.limit {
		r.Total = r.limit
	}
}
