package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pland/internal/planner"
	"pland/internal/registry"
	"pland/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Plan(ctx context.Context, req types.PlanRequest) (types.PlanResponse, error)
	Models() []types.Model
	Devices(ctx context.Context) ([]types.Device, error)
	Patterns() ([]types.PatternEntry, error)
	ReloadPatterns() error
	RecentPlans(ctx context.Context, n int) ([]types.PlanRecord, error)
	Status(ctx context.Context) types.StatusResponse
}

// NewMux builds the daemon router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/plan", handlePlan(svc))

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: svc.Models()})
	})

	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		devices, err := svc.Devices(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "device probe failed")
			logError(r, err, "device probe failed")
			return
		}
		writeJSON(w, types.DevicesResponse{Devices: devices})
	})

	r.Get("/patterns", func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.Patterns()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, types.PatternsResponse{Patterns: entries})
	})

	r.Post("/patterns/reload", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ReloadPatterns(); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/plans/recent", func(w http.ResponseWriter, r *http.Request) {
		n := 50
		if v := r.URL.Query().Get("n"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				n = parsed
			}
		}
		plans, err := svc.RecentPlans(r.Context(), n)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "history read failed")
			logError(r, err, "history read failed")
			return
		}
		writeJSON(w, types.HistoryResponse{Plans: plans})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status(r.Context()))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handlePlan decodes a plan request, runs it, and maps the planner's error
// kinds onto HTTP statuses. Capacity failures are 507 with the terse public
// message only; the verbose diagnostic never leaves the log.
//
// @Summary      Plan a model load
// @Accept       json
// @Produce      json
// @Param        request body types.PlanRequest true "load to plan"
// @Success      200 {object} types.PlanResponse
// @Failure      404 {object} types.ErrorResponse
// @Failure      507 {object} types.ErrorResponse
// @Router       /plan [post]
func handlePlan(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required")
			return
		}

		start := time.Now()
		resp, err := svc.Plan(r.Context(), req)
		if err != nil {
			switch {
			case registry.IsModelNotFound(err):
				observePlan("not_found", "", time.Since(start))
				writeJSONError(w, http.StatusNotFound, err.Error())
			case planner.IsInsufficientMemory(err):
				observePlan("insufficient_memory", "", time.Since(start))
				writeJSONError(w, http.StatusInsufficientStorage, err.Error())
			case planner.IsInvariantViolation(err):
				observePlan("invariant", "", time.Since(start))
				writeJSONError(w, http.StatusInternalServerError, "internal planner error")
				logError(r, err, "planner invariant violated")
			default:
				observePlan("error", "", time.Since(start))
				writeJSONError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		observePlan("planned", string(resp.Plan.Mode), time.Since(start))
		writeJSON(w, resp)
	}
}
