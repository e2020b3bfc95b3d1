package eligibility

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/ownership"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

// OwnershipChecker reports which candidate objects are already credited to
// another wallet.
type OwnershipChecker interface {
	CheckConflict(ctx context.Context, wallet string, objectIDs []string) (ownership.Conflict, error)
}

// Scorer turns a holdings snapshot into a capped eligibility record.
type Scorer struct {
	rules *Rules
	guard OwnershipChecker
}

// NewScorer creates a scorer. guard may be nil, in which case no ownership
// checks are made.
func NewScorer(rules *Rules, guard OwnershipChecker) *Scorer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Scorer{rules: rules, guard: guard}
}

// Rules returns the table the scorer was built with.
func (s *Scorer) Rules() *Rules {
	return s.rules
}

// Score computes the eligibility record for wallet. The only error it returns
// is a validation error; per-object ownership failures withhold credit for
// that object and scoring continues.
func (s *Scorer) Score(ctx context.Context, wallet string, h HoldingsSnapshot, m Memberships) (*Record, error) {
	if strings.TrimSpace(wallet) == "" {
		return nil, utils.NewValidationError("wallet", "address is required")
	}

	rec := &Record{Wallet: wallet, limit: s.rules.GlobalCap}

	s.scoreCollections(ctx, rec, h)
	s.scoreNameService(rec, h)
	s.scoreTokens(rec, h)
	s.scoreLists(rec, m)
	s.scoreTestnet(rec, h, m)

	if bonus := ActivityBonus(h.ObjectCount(), s.rules.ActivityMaxObjects, s.rules.ActivityMaxBonus); bonus > 0 {
		rec.Items = append(rec.Items, Item{
			Category: CategoryActivity,
			Label:    fmt.Sprintf("Activity (%d objects)", h.ObjectCount()),
			Points:   bonus,
		})
	}

	rec.recompute()

	log.WithFields(log.Fields{
		"wallet":   wallet,
		"total":    rec.Total,
		"uncapped": rec.Uncapped,
		"credited": len(rec.EligibleObjectIDs),
	}).Debug("Scored eligibility")

	return rec, nil
}

// scoreCollections credits each collection at most once, checking ownership of
// the candidate object before crediting it.
func (s *Scorer) scoreCollections(ctx context.Context, rec *Record, h HoldingsSnapshot) {
	processed := make(map[string]bool)
	seen := make(map[string]bool)

	candidates := make([]Holding, 0, len(h.Objects)+len(h.KioskItems))
	candidates = append(candidates, h.Objects...)
	candidates = append(candidates, h.KioskItems...)

	for _, obj := range candidates {
		if obj.ID == "" || seen[obj.ID] {
			continue
		}
		seen[obj.ID] = true

		rule, ok := s.rules.MatchCollection(obj.Type)
		if !ok {
			continue
		}
		name := rule.DisplayName()
		if processed[name] {
			continue
		}

		if s.guard != nil {
			conflict, err := s.guard.CheckConflict(ctx, rec.Wallet, []string{obj.ID})
			if err != nil {
				log.WithError(err).WithField("object", obj.ID).Warn("Ownership check failed, withholding credit")
				rec.Items = append(rec.Items, Item{
					Category: CategoryCollection, Label: name, ObjectID: obj.ID,
					Excluded: true, Reason: ReasonCheckFailed,
				})
				continue
			}
			if conflict.Has(obj.ID) {
				log.WithFields(log.Fields{
					"object": obj.ID,
					"wallet": rec.Wallet,
				}).Info("Object already credited to another wallet")
				rec.Items = append(rec.Items, Item{
					Category: CategoryCollection, Label: name, ObjectID: obj.ID,
					Excluded: true, Reason: ReasonOwnedElsewhere,
				})
				continue
			}
		}

		processed[name] = true
		rec.EligibleObjectIDs = append(rec.EligibleObjectIDs, obj.ID)
		rec.Items = append(rec.Items, Item{
			Category: CategoryCollection,
			Label:    name,
			Points:   rule.Points,
			ObjectID: obj.ID,
		})
	}
}

func (s *Scorer) scoreNameService(rec *Record, h HoldingsSnapshot) {
	if s.rules.NameServiceType == "" || s.rules.NameServiceBonus <= 0 {
		return
	}
	for _, group := range [][]Holding{h.Objects, h.KioskItems} {
		for _, obj := range group {
			if s.typeMatches(obj.Type, s.rules.NameServiceType) {
				rec.Items = append(rec.Items, Item{
					Category: CategoryNameService,
					Label:    "Name service record",
					Points:   s.rules.NameServiceBonus,
				})
				return
			}
		}
	}
}

func (s *Scorer) scoreTokens(rec *Record, h HoldingsSnapshot) {
	for _, t := range s.rules.Tokens {
		bal, ok := h.Balances[t.CoinType]
		if !ok || bal == nil {
			continue
		}
		lo, hi := t.Bounds()
		pts := TokenPoints(bal, lo, hi)
		if pts == 0 {
			continue
		}
		label := t.Name
		if label == "" {
			label = t.CoinType
		}
		rec.Items = append(rec.Items, Item{Category: CategoryToken, Label: label, Points: pts})
	}
}

func (s *Scorer) scoreLists(rec *Record, m Memberships) {
	for _, l := range s.rules.Lists {
		if m[l.Name] && l.Bonus > 0 {
			rec.Items = append(rec.Items, Item{
				Category: CategoryList,
				Label:    fmt.Sprintf("List: %s", l.Name),
				Points:   l.Bonus,
			})
		}
	}
}

// scoreTestnet awards the testnet bonus and, gated on it, the stacked list bonus.
func (s *Scorer) scoreTestnet(rec *Record, h HoldingsSnapshot, m Memberships) {
	t := s.rules.Testnet
	if t.Type == "" {
		return
	}
	held := false
	for _, obj := range h.TestnetObjects {
		if s.typeMatches(obj.Type, t.Type) {
			held = true
			break
		}
	}
	if !held {
		return
	}

	rec.Items = append(rec.Items, Item{Category: CategoryTestnet, Label: "Testnet participation", Points: t.Bonus})
	if t.Stacked.Name != "" && m[t.Stacked.Name] {
		rec.Items = append(rec.Items, Item{
			Category: CategoryTestnet,
			Label:    fmt.Sprintf("Testnet list: %s", t.Stacked.Name),
			Points:   t.Stacked.Bonus,
		})
	}
}

func (s *Scorer) typeMatches(objectType, key string) bool {
	if s.rules.MaxTypeLength > 0 && len(objectType) > s.rules.MaxTypeLength {
		return false
	}
	return containsType(objectType, key)
}
