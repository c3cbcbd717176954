package types

import "time"

// PlanRequest asks the planner to place one model load.
type PlanRequest struct {
	// Model identifier from the registry.
	// example: tinyllama.Q4_K_M.gguf
	Model string `json:"model"`
	// Optional context-window override in tokens; 0 means unset.
	// example: 8192
	ContextOverride int `json:"context_override,omitempty"`
	// Number of transformer layers to offload; 0 or omitted means all.
	// example: 20
	OffloadLayers int `json:"offload_layers,omitempty"`
	// CPUOnly skips device placement entirely.
	CPUOnly bool `json:"cpu_only,omitempty"`
}

// PlanResponse is the planner's answer for one load.
type PlanResponse struct {
	// Server-assigned identifier for this decision.
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Context ContextDecision `json:"context"`
	Plan    AllocationPlan  `json:"plan"`
}

// PlanRecord is one row of the persisted decision history.
type PlanRecord struct {
	ID             string    `json:"id"`
	Model          string    `json:"model"`
	Context        int       `json:"context"`
	Mode           string    `json:"mode"`
	EstimatedBytes int64     `json:"estimated_bytes"`
	Outcome        string    `json:"outcome"`
	CreatedAt      time.Time `json:"created_at"`
}

// ModelsResponse wraps the registry listing returned by GET /models.
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// DevicesResponse wraps the current probe snapshot returned by GET /devices.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// PatternsResponse wraps the active pattern table returned by GET /patterns.
type PatternsResponse struct {
	Patterns []PatternEntry `json:"patterns"`
}

// HistoryResponse wraps recent planning decisions.
type HistoryResponse struct {
	Plans []PlanRecord `json:"plans"`
}

// StatusResponse summarizes daemon health for GET /status.
type StatusResponse struct {
	// Number of models visible in the registry.
	Models int `json:"models"`
	// Number of accelerator devices in the last snapshot.
	Devices int `json:"devices"`
	// Number of entries in the active pattern table.
	Patterns int `json:"patterns"`
	// Seconds since the daemon started.
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: insufficient accelerator memory for model load
	Error string `json:"error" example:"insufficient accelerator memory for model load"`
	// HTTP status code.
	// example: 507
	Code int `json:"code" example:"507"`
}
