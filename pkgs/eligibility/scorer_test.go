package eligibility

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/ownership"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

const (
	walletA = "0xaaaa"
	walletB = "0xbbbb"

	fren = "0x1::suifrens::SuiFren<0x1::capy::Capy>"
	capy = "0x2::capy::Capy"
)

func itemsFor(rec *Record, c Category) []Item {
	var out []Item
	for _, it := range rec.Items {
		if it.Category == c {
			out = append(out, it)
		}
	}
	return out
}

func TestScore_CollectionCreditedOnce(t *testing.T) {
	s := NewScorer(DefaultRules(), ownership.NewGuard(ownership.NewMemoryStore()))

	rec, err := s.Score(context.Background(), walletA, HoldingsSnapshot{
		Objects:    []Holding{{ID: "f1", Type: fren}, {ID: "f2", Type: fren}},
		KioskItems: []Holding{{ID: "f3", Type: fren}},
	}, nil)
	require.NoError(t, err)

	cols := itemsFor(rec, CategoryCollection)
	require.Len(t, cols, 1)
	assert.Equal(t, "SuiFrens", cols[0].Label)
	assert.Equal(t, int64(500), cols[0].Points)
	assert.Equal(t, []string{"f1"}, rec.EligibleObjectIDs)
}

func TestScore_ConflictSkipsToNextInstance(t *testing.T) {
	ctx := context.Background()
	g := ownership.NewGuard(ownership.NewMemoryStore())
	require.NoError(t, g.Commit(ctx, walletA, []string{"f1"}))

	s := NewScorer(DefaultRules(), g)
	rec, err := s.Score(ctx, walletB, HoldingsSnapshot{
		Objects: []Holding{{ID: "f1", Type: fren}, {ID: "f2", Type: fren}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"f2"}, rec.EligibleObjectIDs)
	assert.Equal(t, []string{"f1"}, rec.ConflictingIDs())
	// 500 for the collection plus activity(2/500*750 = 3)
	assert.Equal(t, int64(503), rec.Total)
}

func TestScore_ConflictOnlyInstanceAwardsNothing(t *testing.T) {
	ctx := context.Background()
	g := ownership.NewGuard(ownership.NewMemoryStore())
	require.NoError(t, g.Commit(ctx, walletA, []string{"x"}))

	rec, err := NewScorer(DefaultRules(), g).Score(ctx, walletB, HoldingsSnapshot{
		Objects: []Holding{{ID: "x", Type: capy}},
	}, nil)
	require.NoError(t, err)
	cols := itemsFor(rec, CategoryCollection)
	require.Len(t, cols, 1)
	assert.True(t, cols[0].Excluded)
	assert.Zero(t, cols[0].Points)
	assert.Empty(t, rec.EligibleObjectIDs)

	// the owner itself can re-score its own objects
	rec, err = NewScorer(DefaultRules(), g).Score(ctx, walletA, HoldingsSnapshot{
		Objects: []Holding{{ID: "x", Type: capy}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, rec.EligibleObjectIDs)
	assert.Equal(t, int64(300), itemsFor(rec, CategoryCollection)[0].Points)
}

type flakyChecker struct{ failFor string }

func (f flakyChecker) CheckConflict(_ context.Context, _ string, ids []string) (ownership.Conflict, error) {
	if ids[0] == f.failFor {
		return ownership.Conflict{}, errors.New("timeout")
	}
	return ownership.Conflict{Owners: map[string]string{}}, nil
}

func TestScore_CheckFailureIsolatedToObject(t *testing.T) {
	s := NewScorer(DefaultRules(), flakyChecker{failFor: "f1"})
	rec, err := s.Score(context.Background(), walletA, HoldingsSnapshot{
		Objects: []Holding{{ID: "f1", Type: fren}, {ID: "c1", Type: capy}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"c1"}, rec.EligibleObjectIDs)
	assert.Equal(t, int64(303), rec.Total)
	excluded := itemsFor(rec, CategoryCollection)[0]
	assert.True(t, excluded.Excluded)
	assert.Equal(t, ReasonCheckFailed, excluded.Reason)
}

func TestScore_FlatBonusesOnce(t *testing.T) {
	s := NewScorer(DefaultRules(), nil)
	ns := "0x9::suins_registration::SuinsRegistration"

	rec, err := s.Score(context.Background(), walletA, HoldingsSnapshot{
		Objects:    []Holding{{ID: "n1", Type: ns}, {ID: "n2", Type: ns}},
		KioskItems: []Holding{{ID: "n3", Type: ns}},
	}, Memberships{"og": true, "whitelist": true, "unknown": true})
	require.NoError(t, err)

	require.Len(t, itemsFor(rec, CategoryNameService), 1)
	require.Len(t, itemsFor(rec, CategoryList), 2)
	// 200 + 750 + 750 + activity(3/500*750=4.5 -> 5)
	assert.Equal(t, int64(1705), rec.Total)
}

func TestScore_TestnetStackedBonusIsGated(t *testing.T) {
	s := NewScorer(DefaultRules(), nil)
	ctx := context.Background()

	rec, err := s.Score(ctx, walletA, HoldingsSnapshot{}, Memberships{"testnet-active": true})
	require.NoError(t, err)
	assert.Empty(t, itemsFor(rec, CategoryTestnet))

	rec, err = s.Score(ctx, walletA, HoldingsSnapshot{
		TestnetObjects: []Holding{{ID: "t1", Type: "0x5::nft::City"}},
	}, Memberships{"testnet-active": true})
	require.NoError(t, err)
	tn := itemsFor(rec, CategoryTestnet)
	require.Len(t, tn, 2)
	assert.Equal(t, int64(2000), tn[0].Points+tn[1].Points)

	rec, err = s.Score(ctx, walletA, HoldingsSnapshot{
		TestnetObjects: []Holding{{ID: "t1", Type: "0x5::nft::City"}},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, itemsFor(rec, CategoryTestnet), 1)
}

func TestScore_Tokens(t *testing.T) {
	s := NewScorer(DefaultRules(), nil)
	rec, err := s.Score(context.Background(), walletA, HoldingsSnapshot{
		Balances: map[string]*big.Int{
			"0x2::sui::SUI":    big.NewInt(700_000_000_000),
			"0x9::other::COIN": big.NewInt(1),
		},
	}, nil)
	require.NoError(t, err)
	toks := itemsFor(rec, CategoryToken)
	require.Len(t, toks, 1)
	assert.Equal(t, "SUI", toks[0].Label)
	assert.Equal(t, int64(324), toks[0].Points)
}

func TestScore_GlobalCap(t *testing.T) {
	rules := DefaultRules()
	rules.Collections = nil
	for i := 0; i < 60; i++ {
		rules.Collections = append(rules.Collections, CollectionRule{
			Key:    fmt.Sprintf("::col%02d::Item", i),
			Name:   fmt.Sprintf("Collection %d", i),
			Points: 500,
		})
	}
	s := NewScorer(rules, nil)

	var objs []Holding
	for i, c := range rules.Collections {
		objs = append(objs, Holding{ID: fmt.Sprintf("id-%d", i), Type: "0x1" + c.Key})
	}
	rec, err := s.Score(context.Background(), walletA, HoldingsSnapshot{Objects: objs}, Memberships{"og": true})
	require.NoError(t, err)

	assert.Equal(t, int64(20000), rec.Total)
	assert.Greater(t, rec.Uncapped, rec.Total)
}

func TestScore_SkipsOverlongTypes(t *testing.T) {
	s := NewScorer(DefaultRules(), nil)
	long := fren + string(make([]byte, 300))
	rec, err := s.Score(context.Background(), walletA, HoldingsSnapshot{
		Objects: []Holding{{ID: "f1", Type: long}},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, itemsFor(rec, CategoryCollection))
}

func TestScore_RequiresWallet(t *testing.T) {
	_, err := NewScorer(nil, nil).Score(context.Background(), " ", HoldingsSnapshot{}, nil)
	var verr *utils.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestRecord_Exclude(t *testing.T) {
	s := NewScorer(DefaultRules(), nil)
	rec, err := s.Score(context.Background(), walletA, HoldingsSnapshot{
		Objects: []Holding{{ID: "f1", Type: fren}, {ID: "c1", Type: capy}},
	}, nil)
	require.NoError(t, err)
	before := rec.Total

	rec.Exclude([]string{"f1"}, ReasonOwnedElsewhere)
	assert.Equal(t, before-500, rec.Total)
	assert.Equal(t, []string{"c1"}, rec.EligibleObjectIDs)
	assert.Equal(t, []string{"f1"}, rec.ConflictingIDs())
}
