// Package planpago turns client requests into payment plans: it fills the
// loan terms from the catalog, applies the subsidy and grace policies, runs
// the amortization engine and stores the result.
package planpago

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwvelando/mortgage-simulator/internal/cache"
	"github.com/iwvelando/mortgage-simulator/internal/catalog"
	"github.com/iwvelando/mortgage-simulator/internal/models"
	"github.com/iwvelando/mortgage-simulator/internal/repository"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Simulator computes a payment plan. *loans.Engine implements it.
type Simulator interface {
	Simulate(ctx context.Context, req loans.LoanRequest) (*loans.Result, error)
}

// Solicitud is the payload the web client posts. Catalog ids are optional;
// when present they supply every term the request leaves empty.
type Solicitud struct {
	UserID              uint64          `json:"userId"`
	EntidadFinancieraID uint64          `json:"entidadFinancieraId"`
	LocalID             uint64          `json:"localId"`
	IngresosMensuales   decimal.Decimal `json:"ingresos_mensuales"`
	loans.LoanRequest
}

// PlanCreado is a stored plan together with its schedule and indicators.
type PlanCreado struct {
	ID uint64 `json:"id"`
	*loans.Result
}

// Options configure a Service.
type Options struct {
	BonoRules eligibility.BonoRules
	// TipoCambio applies when a request carries no exchange rate.
	TipoCambio decimal.Decimal
	// CacheTTL bounds how long a computed simulation is reused; zero keeps
	// entries until evicted by the store.
	CacheTTL time.Duration
}

// Service coordinates catalog lookups, the engine, the cache and storage.
type Service struct {
	logger  *zap.Logger
	engine  Simulator
	catalog *catalog.Catalog
	repo    repository.PlanRepository
	cache   cache.Store
	opts    Options
	now     func() time.Time
}

// NewService wires a Service. store may be nil to disable caching.
func NewService(logger *zap.Logger, engine Simulator, cat *catalog.Catalog, repo repository.PlanRepository,
	store cache.Store, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cat == nil {
		cat = catalog.New(nil, nil)
	}
	return &Service{
		logger:  logger,
		engine:  engine,
		catalog: cat,
		repo:    repo,
		cache:   store,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Catalog exposes the entities and properties the service resolves against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

type cacheEntry struct {
	Request  loans.LoanRequest      `json:"request"`
	Decision *eligibility.Decision `json:"decision,omitempty"`
}

// Simulate resolves the request against the catalog and computes the plan
// without storing it.
func (s *Service) Simulate(ctx context.Context, sol Solicitud) (*loans.Result, error) {
	req, err := s.resolve(sol)
	if err != nil {
		return nil, err
	}

	key := ""
	if s.cache != nil {
		key, err = cache.Key(cache.SimulationKeyPrefix, cacheEntry{Request: req, Decision: req.BonoDecision})
		if err != nil {
			return nil, err
		}
		if result, ok := s.cached(ctx, key); ok {
			return result, nil
		}
	}

	result, err := s.engine.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.store(ctx, key, result)
	}
	return result, nil
}

func (s *Service) cached(ctx context.Context, key string) (*loans.Result, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("simulation cache read failed",
			zap.String("op", "planpago.Simulate"),
			zap.Error(err),
		)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var result loans.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Warn("discarding unreadable cached simulation",
			zap.String("op", "planpago.Simulate"),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	s.logger.Debug("simulation served from cache",
		zap.String("op", "planpago.Simulate"),
		zap.String("key", key),
	)
	return &result, true
}

func (s *Service) store(ctx context.Context, key string, result *loans.Result) {
	raw, err := json.Marshal(result)
	if err == nil {
		err = s.cache.Set(ctx, key, raw, s.opts.CacheTTL)
	}
	if err != nil {
		s.logger.Warn("simulation cache write failed",
			zap.String("op", "planpago.Simulate"),
			zap.Error(err),
		)
	}
}

// Create simulates the request and stores the plan with all its installments.
func (s *Service) Create(ctx context.Context, sol Solicitud) (*PlanCreado, error) {
	result, err := s.Simulate(ctx, sol)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(sol)
	if err != nil {
		return nil, fmt.Errorf("encode request snapshot: %w", err)
	}

	plan := models.NewPlanPago(models.Owner{
		UserID:              sol.UserID,
		EntidadFinancieraID: sol.EntidadFinancieraID,
		LocalID:             sol.LocalID,
	}, snapshot, result)

	if err := s.repo.Create(ctx, &plan); err != nil {
		return nil, fmt.Errorf("store plan: %w", err)
	}

	s.logger.Info("payment plan created",
		zap.String("op", "planpago.Create"),
		zap.Uint64("plan_id", plan.ID),
		zap.Uint64("user_id", sol.UserID),
		zap.Int("total_cuotas", len(result.Cuotas)),
	)

	return &PlanCreado{ID: plan.ID, Result: result}, nil
}

// ListByUser returns the user's stored plans, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uint64) ([]models.PlanPago, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Cuotas returns the installments of a stored plan.
func (s *Service) Cuotas(ctx context.Context, planID uint64) ([]loans.Cuota, error) {
	rows, err := s.repo.Cuotas(ctx, planID)
	if err != nil {
		return nil, err
	}
	out := make([]loans.Cuota, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToLoanCuota())
	}
	return out, nil
}

// Delete removes a stored plan and its installments.
func (s *Service) Delete(ctx context.Context, planID uint64) error {
	if err := s.repo.Delete(ctx, planID); err != nil {
		return err
	}
	s.logger.Info("payment plan deleted",
		zap.String("op", "planpago.Delete"),
		zap.Uint64("plan_id", planID),
	)
	return nil
}

// PurgeOlderThan deletes plans created more than age ago. A non-positive age
// keeps everything.
func (s *Service) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteCreatedBefore(ctx, s.now().Add(-age))
	if err != nil {
		return 0, err
	}
	s.logger.Info("purged old payment plans",
		zap.String("op", "planpago.PurgeOlderThan"),
		zap.Int64("deleted", n),
		zap.Duration("max_age", age),
	)
	return n, nil
}

// Ping reports whether the plan store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
