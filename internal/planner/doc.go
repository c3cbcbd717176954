// Package planner decides how a model load is placed before the inference
// engine instantiates it: which context window to use and which accelerator
// device(s), if any, should host the weights. It is structured into small
// files by concern:
//
//   - planner.go: Planner type, collaborator interfaces, Plan composition.
//   - kvcache.go: per-token KV-cache cost from transformer dimensions.
//   - estimate.go: architecture-aware device-memory estimate for a load.
//   - allocate.go: single-device and split placement with safety margins.
//   - context.go: context-window resolution with a memory ceiling backstop.
//   - errors.go: capacity-failure and invariant-violation error kinds.
//
// The planner is pure computation over two read-only probes (device memory,
// model metadata). It does not schedule loads, cache instances, or defend
// against concurrent callers racing on the same snapshot; the daemon layer
// serializes loads.
package planner
