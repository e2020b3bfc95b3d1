package claims

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/eligibility"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/ledger"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/metrics"
)

// Source names used in SourceStatus and metrics.
const (
	SourceMainnet  = "mainnet_objects"
	SourceTestnet  = "testnet_objects"
	SourceKiosk    = "kiosk_items"
	SourceBalances = "balances"
	SourceListsPfx = "list:"
)

// ListChecker answers allow-list membership.
type ListChecker interface {
	Member(ctx context.Context, url, wallet string) (bool, error)
}

// Sources are the read collaborators of a scoring pass. Only Mainnet is
// required.
type Sources struct {
	Mainnet ledger.Reader
	Testnet ledger.Reader
	Kiosk   ledger.KioskReader
	Lists   ListChecker
}

// SourceStatus reports the outcome of one sub-fetch.
type SourceStatus struct {
	Source string `json:"source"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// fetchResult is the joined outcome of the fan-out.
type fetchResult struct {
	holdings    eligibility.HoldingsSnapshot
	memberships eligibility.Memberships
	statuses    []SourceStatus
}

func (r *fetchResult) allFailed() bool {
	if len(r.statuses) == 0 {
		return false
	}
	for _, s := range r.statuses {
		if s.OK {
			return false
		}
	}
	return true
}

func toHoldings(objs []ledger.Object) []eligibility.Holding {
	out := make([]eligibility.Holding, 0, len(objs))
	for _, o := range objs {
		out = append(out, eligibility.Holding{ID: o.ID, Type: o.Type})
	}
	return out
}

// fetch runs every sub-fetch concurrently. Each leg records its own error
// and returns nil, so one failing source never cancels the others; partial
// data from a failed leg is kept.
func (o *Orchestrator) fetch(ctx context.Context, wallet string) *fetchResult {
	if o.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.scanTimeout)
		defer cancel()
	}

	res := &fetchResult{
		holdings:    eligibility.HoldingsSnapshot{Balances: map[string]*big.Int{}},
		memberships: eligibility.Memberships{},
	}
	var mu sync.Mutex
	record := func(source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		st := SourceStatus{Source: source, OK: err == nil}
		if err != nil {
			st.Error = err.Error()
			metrics.SourceFetchErrors.WithLabelValues(source).Inc()
			log.WithFields(log.Fields{
				"wallet": wallet,
				"source": source,
			}).WithError(err).Warn("Holdings sub-fetch failed, continuing without it")
		}
		res.statuses = append(res.statuses, st)
	}

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()

	g.Go(func() error {
		objs, err := ledger.CollectOwned(gctx, o.sources.Mainnet, wallet)
		mu.Lock()
		res.holdings.Objects = toHoldings(objs)
		mu.Unlock()
		record(SourceMainnet, err)
		return nil
	})

	if o.sources.Testnet != nil {
		g.Go(func() error {
			objs, err := ledger.CollectOwned(gctx, o.sources.Testnet, wallet)
			mu.Lock()
			res.holdings.TestnetObjects = toHoldings(objs)
			mu.Unlock()
			record(SourceTestnet, err)
			return nil
		})
	}

	if o.sources.Kiosk != nil {
		g.Go(func() error {
			items, err := ledger.CollectKioskItems(gctx, o.sources.Kiosk, wallet)
			mu.Lock()
			res.holdings.KioskItems = toHoldings(items)
			mu.Unlock()
			record(SourceKiosk, err)
			return nil
		})
	}

	if tokens := o.scorer.Rules().Tokens; len(tokens) > 0 {
		g.Go(func() error {
			var firstErr error
			for _, t := range tokens {
				bal, err := o.sources.Mainnet.GetBalance(gctx, wallet, t.CoinType)
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("%s: %w", t.CoinType, err)
					}
					continue
				}
				mu.Lock()
				res.holdings.Balances[t.CoinType] = bal
				mu.Unlock()
			}
			record(SourceBalances, firstErr)
			return nil
		})
	}

	if o.sources.Lists != nil {
		for _, l := range o.scorer.Rules().AllLists() {
			if l.URL == "" {
				continue
			}
			l := l
			g.Go(func() error {
				ok, err := o.sources.Lists.Member(gctx, l.URL, wallet)
				if err == nil {
					mu.Lock()
					res.memberships[l.Name] = ok
					mu.Unlock()
				}
				record(SourceListsPfx+l.Name, err)
				return nil
			})
		}
	}

	_ = g.Wait()

	log.WithFields(log.Fields{
		"wallet":   wallet,
		"objects":  res.holdings.ObjectCount(),
		"sources":  len(res.statuses),
		"duration": time.Since(start),
	}).Debug("Holdings snapshot assembled")
	return res
}
