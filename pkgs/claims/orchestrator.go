package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/eligibility"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/events"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/metrics"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/nonce"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/ownership"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/signer"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

var (
	// ErrAllSourcesFailed is returned when no holdings source answered, so a
	// zero score cannot be told apart from an outage.
	ErrAllSourcesFailed = errors.New("all holdings sources failed")

	// ErrStoreUnavailable wraps ownership store failures during commit.
	ErrStoreUnavailable = errors.New("ownership store unavailable")
)

const component = "claims"

// Committer persists credited objects for a wallet.
type Committer interface {
	Commit(ctx context.Context, wallet string, objectIDs []string) error
}

// ClaimSigner signs the claim message.
type ClaimSigner interface {
	SignClaim(amount decimal.Decimal, wallet string, nonce uint64) (*signer.SignedClaim, error)
}

// Config wires an Orchestrator.
type Config struct {
	Sources     Sources
	Scorer      *eligibility.Scorer
	Guard       Committer
	Signer      ClaimSigner
	Nonces      nonce.Source
	Events      events.Emitter
	ScanTimeout time.Duration
}

// Orchestrator runs the end-to-end claim flow for one wallet.
type Orchestrator struct {
	sources     Sources
	scorer      *eligibility.Scorer
	guard       Committer
	signer      ClaimSigner
	nonces      nonce.Source
	events      events.Emitter
	scanTimeout time.Duration
}

// New validates cfg and builds an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Sources.Mainnet == nil {
		return nil, fmt.Errorf("mainnet ledger reader is required")
	}
	if cfg.Scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if cfg.Guard == nil {
		return nil, fmt.Errorf("ownership guard is required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if cfg.Nonces == nil {
		cfg.Nonces = nonce.NewStatic(nil)
	}
	if cfg.Events == nil {
		cfg.Events = events.Nop{}
	}
	return &Orchestrator{
		sources:     cfg.Sources,
		scorer:      cfg.Scorer,
		guard:       cfg.Guard,
		signer:      cfg.Signer,
		nonces:      cfg.Nonces,
		events:      cfg.Events,
		scanTimeout: cfg.ScanTimeout,
	}, nil
}

// ClaimRequest starts a claim. Nonce is the last nonce the client observed
// on-chain, if any.
type ClaimRequest struct {
	Wallet string  `json:"wallet"`
	Nonce  *uint64 `json:"nonce,omitempty"`
}

// ClaimResult is the score, its breakdown and, for Run, the signed claim.
type ClaimResult struct {
	Wallet  string              `json:"wallet"`
	Score   int64               `json:"score"`
	Record  *eligibility.Record `json:"eligibility"`
	Claim   *signer.SignedClaim `json:"claim,omitempty"`
	Nonce   uint64              `json:"nonce"`
	Sources []SourceStatus      `json:"sources"`
}

// Eligibility scores wallet without committing or signing.
func (o *Orchestrator) Eligibility(ctx context.Context, wallet string) (*ClaimResult, error) {
	addr, err := utils.NormalizeAddress(wallet)
	if err != nil {
		return nil, err
	}
	res, err := o.score(ctx, addr)
	if err != nil {
		return nil, err
	}
	o.emit(ctx, events.EventEligibilityScored, events.SeverityInfo, addr, events.EligibilityPayload{
		Total:      res.Score,
		Uncapped:   res.Record.Uncapped,
		Credited:   res.Record.EligibleObjectIDs,
		Conflicted: res.Record.ConflictingIDs(),
		Preview:    true,
	})
	return res, nil
}

// Run fetches holdings, scores them, commits the credited objects and signs
// a claim for the resulting total.
func (o *Orchestrator) Run(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	addr, err := utils.NormalizeAddress(req.Wallet)
	if err != nil {
		return nil, err
	}
	logger := log.WithField("wallet", addr)

	res, err := o.score(ctx, addr)
	if err != nil {
		metrics.ClaimFailures.WithLabelValues("fetch").Inc()
		return nil, err
	}
	rec := res.Record

	if err := o.commit(ctx, addr, rec); err != nil {
		metrics.ClaimFailures.WithLabelValues("commit").Inc()
		return nil, err
	}
	res.Score = rec.Total

	res.Nonce = o.resolveNonce(ctx, addr, req.Nonce)

	claim, err := o.signer.SignClaim(decimal.NewFromInt(rec.Total), addr, res.Nonce)
	if err != nil {
		metrics.ClaimFailures.WithLabelValues("sign").Inc()
		return nil, err
	}
	res.Claim = claim

	metrics.ClaimsSigned.WithLabelValues("claim").Inc()
	metrics.EligibilityScore.Observe(float64(rec.Total))

	o.emit(ctx, events.EventEligibilityScored, events.SeverityInfo, addr, events.EligibilityPayload{
		Total:      rec.Total,
		Uncapped:   rec.Uncapped,
		Credited:   rec.EligibleObjectIDs,
		Conflicted: rec.ConflictingIDs(),
	})
	o.emit(ctx, events.EventClaimSigned, events.SeverityInfo, addr, events.SignedPayload{
		Message:   claim.Message,
		PublicKey: claim.PublicKey,
		Nonce:     res.Nonce,
		Amount:    decimal.NewFromInt(rec.Total).String(),
	})

	logger.WithFields(log.Fields{
		"score":    rec.Total,
		"nonce":    res.Nonce,
		"credited": len(rec.EligibleObjectIDs),
	}).Info("Signed airdrop claim")
	return res, nil
}

func (o *Orchestrator) score(ctx context.Context, wallet string) (*ClaimResult, error) {
	fetched := o.fetch(ctx, wallet)
	for _, st := range fetched.statuses {
		if !st.OK {
			o.emit(ctx, events.EventSourceFetchFailed, events.SeverityWarning, wallet, events.SourceFailurePayload{
				Source: st.Source,
				Reason: st.Error,
			})
		}
	}
	if fetched.allFailed() {
		return nil, fmt.Errorf("%w (%d sources)", ErrAllSourcesFailed, len(fetched.statuses))
	}

	rec, err := o.scorer.Score(ctx, wallet, fetched.holdings, fetched.memberships)
	if err != nil {
		return nil, err
	}
	if conflicted := rec.ConflictingIDs(); len(conflicted) > 0 {
		metrics.OwnershipConflicts.WithLabelValues("check").Add(float64(len(conflicted)))
		o.emit(ctx, events.EventOwnershipConflict, events.SeverityInfo, wallet, events.ConflictPayload{
			ObjectIDs: conflicted,
			Stage:     "check",
		})
	}

	return &ClaimResult{
		Wallet:  wallet,
		Score:   rec.Total,
		Record:  rec,
		Sources: fetched.statuses,
	}, nil
}

// commit persists the credited objects. Objects lost to a concurrent claimant
// are withdrawn from the record; any other store failure is fatal.
func (o *Orchestrator) commit(ctx context.Context, wallet string, rec *eligibility.Record) error {
	if len(rec.EligibleObjectIDs) == 0 {
		return nil
	}
	err := o.guard.Commit(ctx, wallet, rec.EligibleObjectIDs)
	if err == nil {
		return nil
	}

	var conflict *ownership.CommitConflictError
	if errors.As(err, &conflict) {
		rec.Exclude(conflict.ObjectIDs, eligibility.ReasonOwnedElsewhere)
		metrics.OwnershipConflicts.WithLabelValues("commit").Add(float64(len(conflict.ObjectIDs)))
		o.emit(ctx, events.EventOwnershipConflict, events.SeverityWarning, wallet, events.ConflictPayload{
			ObjectIDs: conflict.ObjectIDs,
			Stage:     "commit",
		})
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// resolveNonce returns max(stored, observed). A nonce store failure falls
// back to the observed value; a stale nonce only makes the on-chain claim
// fail.
func (o *Orchestrator) resolveNonce(ctx context.Context, wallet string, observed *uint64) uint64 {
	var seen uint64
	if observed != nil {
		seen = *observed
	}
	stored, err := o.nonces.Current(ctx, wallet)
	if err != nil {
		log.WithError(err).WithField("wallet", wallet).Warn("Nonce lookup failed, using observed value")
		return seen
	}
	n := stored
	if seen > n {
		n = seen
	}
	if n != stored {
		if _, err := o.nonces.Advance(ctx, wallet, n); err != nil {
			log.WithError(err).WithField("wallet", wallet).Warn("Failed to persist nonce")
		}
	}
	return n
}

func (o *Orchestrator) emit(ctx context.Context, t events.EventType, sev events.EventSeverity, wallet string, payload interface{}) {
	evt, err := events.NewEvent(t, sev, component, wallet, payload)
	if err == nil {
		err = o.events.Emit(ctx, evt)
	}
	if err != nil {
		log.WithError(err).WithField("type", t).Debug("Failed to emit event")
	}
}
