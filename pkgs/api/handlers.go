package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/accrual"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/claims"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/events"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/metrics"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

// SignClaimRequest asks for a signed reward claim. When CityObjectID is set
// the amount is the city's current accrual and Amount is ignored.
type SignClaimRequest struct {
	Wallet       string           `json:"wallet" binding:"required"`
	Nonce        uint64           `json:"nonce"`
	Amount       *decimal.Decimal `json:"amount"`
	CityObjectID string           `json:"cityObjectId"`
}

// SignClaim signs "{amount}:{wallet}:{nonce}".
func (s *Server) SignClaim(c *gin.Context) {
	var req SignClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var amount decimal.Decimal
	switch {
	case req.CityObjectID != "":
		snap, err := s.snapshotFor(c.Request.Context(), req.CityObjectID)
		if err != nil {
			writeError(c, err)
			return
		}
		amount = decimal.NewFromFloat(snap.Accrued)
	case req.Amount != nil:
		amount = *req.Amount
	default:
		writeError(c, utils.NewValidationError("amount", "amount or cityObjectId is required"))
		return
	}

	claim, err := s.signer.SignClaim(amount, req.Wallet, req.Nonce)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.ClaimsSigned.WithLabelValues("reward").Inc()
	s.emit(c.Request.Context(), events.EventClaimSigned, req.Wallet, events.SignedPayload{
		Message: claim.Message, PublicKey: claim.PublicKey, Nonce: req.Nonce, Amount: amount.String(),
	})
	c.JSON(http.StatusOK, claim)
}

// SignMessageRequest asks for a signature over a free-form message.
type SignMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// SignMessage signs an arbitrary message.
func (s *Server) SignMessage(c *gin.Context) {
	var req SignMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	claim, err := s.signer.SignMessage(req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.ClaimsSigned.WithLabelValues("message").Inc()
	s.emit(c.Request.Context(), events.EventMessageSigned, "", events.SignedPayload{
		Message: claim.Message, PublicKey: claim.PublicKey,
	})
	c.JSON(http.StatusOK, claim)
}

// ChangeNameRequest asks for a signed rename.
type ChangeNameRequest struct {
	Name   string `json:"name" binding:"required"`
	Wallet string `json:"wallet" binding:"required"`
	Nonce  uint64 `json:"nonce"`
}

// SignChangeName signs "{name}:{wallet}:{nonce}".
func (s *Server) SignChangeName(c *gin.Context) {
	var req ChangeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	claim, err := s.signer.SignChangeName(req.Name, req.Wallet, req.Nonce)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.ClaimsSigned.WithLabelValues("change_name").Inc()
	s.emit(c.Request.Context(), events.EventChangeNameSigned, req.Wallet, events.SignedPayload{
		Message: claim.Message, PublicKey: claim.PublicKey, Nonce: req.Nonce,
	})
	c.JSON(http.StatusOK, claim)
}

// AccrualRequest carries either a city object id or explicit inputs. Now is
// milliseconds since epoch and defaults to the server clock.
type AccrualRequest struct {
	CityObjectID string                  `json:"cityObjectId"`
	State        *accrual.BuildingState  `json:"state"`
	Params       *accrual.GameParameters `json:"params"`
	Now          int64                   `json:"now"`
}

// Accrual returns the accrual snapshot of a city.
func (s *Server) Accrual(c *gin.Context) {
	var req AccrualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	now := req.Now
	if now <= 0 {
		now = s.now().UnixMilli()
	}

	var (
		state  accrual.BuildingState
		params accrual.GameParameters
	)
	switch {
	case req.CityObjectID != "":
		if s.cities == nil {
			writeError(c, utils.NewValidationError("cityObjectId", "ledger lookups are not configured"))
			return
		}
		var err error
		if state, params, err = s.cities.LoadCity(c.Request.Context(), req.CityObjectID); err != nil {
			writeError(c, err)
			return
		}
	case req.State != nil && req.Params != nil:
		state, params = *req.State, *req.Params
	default:
		writeError(c, utils.NewValidationError("body", "cityObjectId or state and params are required"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":    state,
		"snapshot": accrual.SnapshotAt(state, params, now),
		"now":      now,
	})
}

func (s *Server) snapshotFor(ctx context.Context, cityID string) (accrual.Snapshot, error) {
	if s.cities == nil {
		return accrual.Snapshot{}, utils.NewValidationError("cityObjectId", "ledger lookups are not configured")
	}
	state, params, err := s.cities.LoadCity(ctx, cityID)
	if err != nil {
		return accrual.Snapshot{}, err
	}
	return accrual.SnapshotAt(state, params, s.now().UnixMilli()), nil
}

// AirdropClaimRequest starts the eligibility claim flow.
type AirdropClaimRequest struct {
	Wallet string  `json:"wallet" binding:"required"`
	Nonce  *uint64 `json:"nonce"`
}

// AirdropClaim scores the wallet, commits its credited objects and returns
// the signed claim.
func (s *Server) AirdropClaim(c *gin.Context) {
	var req AirdropClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if s.claimer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "airdrop claims are not enabled"})
		return
	}
	res, err := s.claimer.Run(c.Request.Context(), claims.ClaimRequest{Wallet: req.Wallet, Nonce: req.Nonce})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AirdropEligibility previews the score of a wallet without side effects.
func (s *Server) AirdropEligibility(c *gin.Context) {
	if s.claimer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "airdrop claims are not enabled"})
		return
	}
	res, err := s.claimer.Eligibility(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) emit(ctx context.Context, t events.EventType, wallet string, payload interface{}) {
	evt, err := events.NewEvent(t, events.SeverityInfo, "api", wallet, payload)
	if err != nil {
		return
	}
	_ = s.events.Emit(ctx, evt)
}
