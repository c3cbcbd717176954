// Package service is the daemon-side orchestration around the planner: it
// serializes concurrent plan calls (the planner itself assumes a serialized
// caller), records decisions to the history store, and adapts wire requests
// to planner requests.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pland/internal/history"
	"pland/internal/patterns"
	"pland/internal/planner"
	"pland/internal/probe"
	"pland/internal/registry"
	"pland/pkg/types"
)

// Config carries the collaborators a Service is built from. History is
// optional; everything else is required.
type Config struct {
	Planner  *planner.Planner
	Registry *registry.Registry
	Probe    probe.Probe
	Patterns *patterns.Store
	History  *history.Store
	Logger   zerolog.Logger
}

// Service coordinates planning for the daemon.
type Service struct {
	mu   sync.Mutex // serializes Plan: two loads must never claim the same free memory
	pl   *planner.Planner
	reg  *registry.Registry
	prb  probe.Probe
	pats *patterns.Store
	hist *history.Store
	log  zerolog.Logger

	startTime time.Time
}

// New constructs a Service.
func New(cfg Config) *Service {
	return &Service{
		pl:        cfg.Planner,
		reg:       cfg.Registry,
		prb:       cfg.Probe,
		pats:      cfg.Patterns,
		hist:      cfg.History,
		log:       cfg.Logger,
		startTime: time.Now(),
	}
}

// Plan runs one planning decision end to end. Exactly one Plan runs at a
// time; the device snapshot a decision is based on stays valid until the
// decision is committed to the response.
func (s *Service) Plan(ctx context.Context, req types.PlanRequest) (types.PlanResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offload := req.OffloadLayers
	if req.CPUOnly {
		offload = 0
	} else if offload <= 0 {
		offload = -1 // all layers
	}

	dec, plan, err := s.pl.Plan(ctx, planner.Request{
		Model:           req.Model,
		ContextOverride: req.ContextOverride,
		OffloadLayers:   offload,
	})
	for _, w := range dec.Warnings {
		s.log.Warn().Str("model", req.Model).Msg(w)
	}
	if err != nil {
		if planner.IsInsufficientMemory(err) {
			// Full inventory goes to the log only; the public error stays terse.
			s.log.Warn().Str("model", req.Model).Str("detail", planner.CapacityDetail(err)).
				Msg("model load refused: insufficient memory")
			s.record(ctx, req.Model, dec.Context, "", 0, history.OutcomeInsufficient)
		}
		return types.PlanResponse{}, err
	}

	id := s.record(ctx, req.Model, dec.Context, string(plan.Mode), plan.EstimatedBytes, history.OutcomePlanned)
	s.log.Info().
		Str("model", req.Model).
		Str("plan_id", id).
		Int("context", dec.Context).
		Str("mode", string(plan.Mode)).
		Int64("estimated_bytes", plan.EstimatedBytes).
		Msg("load planned")
	return types.PlanResponse{ID: id, Model: req.Model, Context: dec, Plan: plan}, nil
}

// record writes one decision to the history store. Best-effort: failures
// are logged and a locally generated id is used instead.
func (s *Service) record(ctx context.Context, model string, contextTokens int, mode string, estimatedBytes int64, outcome string) string {
	if s.hist == nil {
		return uuid.NewString()
	}
	id, err := s.hist.Record(ctx, model, contextTokens, mode, estimatedBytes, outcome)
	if err != nil {
		s.log.Warn().Err(err).Msg("history write failed")
		return uuid.NewString()
	}
	return id
}

// Models returns the registry listing.
func (s *Service) Models() []types.Model { return s.reg.List() }

// Devices returns a fresh probe snapshot.
func (s *Service) Devices(ctx context.Context) ([]types.Device, error) {
	return s.prb.Snapshot(ctx)
}

// Patterns returns the active pattern table, loading it if needed.
func (s *Service) Patterns() ([]types.PatternEntry, error) {
	t, err := s.pats.Table()
	if err != nil {
		return nil, err
	}
	return t.Entries(), nil
}

// ReloadPatterns swaps in a freshly loaded pattern table.
func (s *Service) ReloadPatterns() error { return s.pats.Reload() }

// RecentPlans returns up to n recorded decisions, newest first.
func (s *Service) RecentPlans(ctx context.Context, n int) ([]types.PlanRecord, error) {
	if s.hist == nil {
		return nil, nil
	}
	return s.hist.Recent(ctx, n)
}

// Status summarizes daemon state.
func (s *Service) Status(ctx context.Context) types.StatusResponse {
	st := types.StatusResponse{
		Models:        s.reg.Len(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	if devices, err := s.prb.Snapshot(ctx); err == nil {
		st.Devices = len(devices)
	}
	if t, err := s.pats.Table(); err == nil {
		st.Patterns = t.Len()
	}
	return st
}
