// Package api exposes the signer service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/accrual"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/claims"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/events"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/ledger"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/metrics"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/ownership"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/signer"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

// Claimer runs the airdrop claim flow.
type Claimer interface {
	Run(ctx context.Context, req claims.ClaimRequest) (*claims.ClaimResult, error)
	Eligibility(ctx context.Context, wallet string) (*claims.ClaimResult, error)
}

// CityLoader reads the accrual inputs of a city object.
type CityLoader interface {
	LoadCity(ctx context.Context, cityID string) (accrual.BuildingState, accrual.GameParameters, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server holds the HTTP handlers.
type Server struct {
	claimer Claimer
	signer  *signer.Signer
	cities  CityLoader
	checks  map[string]HealthCheck
	events  events.Emitter
	now     func() time.Time
}

// Options wires a Server. Cities and Checks may be nil.
type Options struct {
	Claimer Claimer
	Signer  *signer.Signer
	Cities  CityLoader
	Checks  map[string]HealthCheck
	Events  events.Emitter
	Now     func() time.Time
}

// NewServer creates a Server.
func NewServer(o Options) *Server {
	if o.Signer == nil {
		o.Signer = signer.Unconfigured(errors.New("no signer configured"))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Events == nil {
		o.Events = events.Nop{}
	}
	return &Server{
		claimer: o.Claimer,
		signer:  o.Signer,
		cities:  o.Cities,
		checks:  o.Checks,
		events:  o.Events,
		now:     o.Now,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), observe())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", s.Health)
		v1.GET("/signer", s.SignerInfo)

		v1.POST("/sign-claim", s.SignClaim)
		v1.POST("/sign-message", s.SignMessage)
		v1.POST("/sign-change-name", s.SignChangeName)

		v1.POST("/accrual", s.Accrual)

		v1.POST("/airdrop/claim", s.AirdropClaim)
		v1.GET("/airdrop/eligibility/:wallet", s.AirdropEligibility)
	}
	return router
}

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.APIRequestDuration.
			WithLabelValues(route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	var (
		verr   *utils.ValidationError
		cfgErr *signer.ConfigurationError
		status int
		msg    = err.Error()
	)
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &cfgErr):
		status = http.StatusInternalServerError
		msg = "signer unavailable"
	case errors.Is(err, claims.ErrAllSourcesFailed):
		status = http.StatusBadGateway
	case errors.Is(err, ownership.ErrOwnedElsewhere):
		status = http.StatusConflict
	case errors.Is(err, claims.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrObjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusInternalServerError
	}

	entry := log.WithFields(log.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
		"status":     status,
	}).WithError(err)
	if status >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.JSON(status, gin.H{"error": msg})
}

func bindError(c *gin.Context, err error) {
	writeError(c, utils.NewValidationError("body", err.Error()))
}

// Health reports the status of every registered dependency.
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	deps := gin.H{}
	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			healthy = false
		} else {
			deps[name] = "ok"
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": deps,
		"signer_ready": s.signer.Ready(),
		"timestamp":    s.now().UTC(),
	})
}

// SignerInfo returns the public key the on-chain verifier should trust.
func (s *Server) SignerInfo(c *gin.Context) {
	if !s.signer.Ready() {
		writeError(c, &signer.ConfigurationError{Reason: "no key loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scheme":    s.signer.Scheme(),
		"publicKey": s.signer.PublicKey(),
	})
}
