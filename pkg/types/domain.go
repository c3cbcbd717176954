package types

// Device is a point-in-time snapshot of one accelerator's memory. Devices
// carry no identity beyond their index; snapshots are re-queried before
// every planning decision and must never be cached across calls.
type Device struct {
	// Zero-based accelerator index as reported by the driver.
	// example: 0
	Index int `json:"index" example:"0"`
	// Human-readable device name.
	// example: NVIDIA GeForce RTX 4090
	Name string `json:"name" example:"NVIDIA GeForce RTX 4090"`
	// Total device memory in bytes.
	TotalBytes int64 `json:"total_bytes" example:"25757220864"`
	// Currently free device memory in bytes.
	FreeBytes int64 `json:"free_bytes" example:"20217519471"`
}

// ModelMetadata describes one model file. Architecture fields are optional;
// a zero value means unknown and forces the fixed fallback KV-cost constant.
type ModelMetadata struct {
	// Size of the model file on disk in bytes.
	FileBytes int64 `json:"file_bytes"`
	// Context length the model was trained with, 0 if unknown.
	TrainingContext int `json:"training_context,omitempty"`
	// Number of transformer layers, 0 if unknown.
	LayerCount int `json:"layer_count,omitempty"`
	// Number of key/value attention heads, 0 if unknown.
	KVHeadCount int `json:"kv_head_count,omitempty"`
	// Per-head key dimension, 0 if unknown.
	KeyDim int `json:"key_dim,omitempty"`
	// Per-head value dimension, 0 if unknown.
	ValueDim int `json:"value_dim,omitempty"`
}

// HasArchitecture reports whether all fields needed for the exact KV-cache
// cost formula are present.
func (m ModelMetadata) HasArchitecture() bool {
	return m.LayerCount > 0 && m.KVHeadCount > 0 && m.KeyDim > 0 && m.ValueDim > 0
}

// PlacementMode describes where a model load lands.
type PlacementMode string

const (
	// PlacementSingle places the whole model on one device.
	PlacementSingle PlacementMode = "single"
	// PlacementSplit spreads layers across two or more devices.
	PlacementSplit PlacementMode = "split"
	// PlacementCPU keeps the model entirely on the host.
	PlacementCPU PlacementMode = "cpu"
)

// AllocationPlan is the placement decision handed verbatim to the inference
// engine. Shares is parallel to the device snapshot the plan was computed
// from: Shares[i] is the fraction of the model assigned to the i-th device
// of that snapshot, exactly 0 for devices excluded from the placement.
type AllocationPlan struct {
	Mode PlacementMode `json:"mode" example:"single"`
	// Index of the device carrying the largest share; -1 for CPU plans.
	PrimaryDevice int       `json:"primary_device" example:"0"`
	Shares        []float64 `json:"shares"`
	// Estimated device bytes the load needs, computed once and reused.
	EstimatedBytes int64 `json:"estimated_bytes"`
}

// ContextDecision is the resolved context window for one load. Warnings are
// operator-facing only and never affect the load outcome.
type ContextDecision struct {
	// Resolved context window in tokens. Always >= 512.
	Context  int      `json:"context" example:"8192"`
	Warnings []string `json:"warnings,omitempty"`
}

// PatternEntry maps a model-id glob to a default context size. Entries are
// consulted in order, first match wins. Globs are case-sensitive and support
// '*' and '?' only.
type PatternEntry struct {
	Pattern string `json:"pattern" yaml:"pattern" example:"*llama-3*"`
	Context int    `json:"context" yaml:"context" example:"8192"`
	Note    string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Model represents a discoverable model file on disk.
type Model struct {
	// Stable identifier, the file name including extension.
	// example: tinyllama.Q4_K_M.gguf
	ID string `json:"id" example:"tinyllama.Q4_K_M.gguf"`
	// Human-friendly name.
	Name string `json:"name" example:"tinyllama.Q4_K_M.gguf"`
	// Absolute path to the model file.
	Path string `json:"path" example:"/home/user/models/tinyllama.Q4_K_M.gguf"`
	// Optional architecture hints merged from configuration.
	Arch ArchHints `json:"arch,omitempty"`
}

// ArchHints carries optional per-model architecture dimensions supplied via
// configuration when they cannot be read from the file itself.
type ArchHints struct {
	TrainingContext int `json:"training_context,omitempty" yaml:"training_context,omitempty" toml:"training_context"`
	LayerCount      int `json:"layer_count,omitempty" yaml:"layer_count,omitempty" toml:"layer_count"`
	KVHeadCount     int `json:"kv_head_count,omitempty" yaml:"kv_head_count,omitempty" toml:"kv_head_count"`
	KeyDim          int `json:"key_dim,omitempty" yaml:"key_dim,omitempty" toml:"key_dim"`
	ValueDim        int `json:"value_dim,omitempty" yaml:"value_dim,omitempty" toml:"value_dim"`
}
