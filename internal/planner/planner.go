package planner

import (
	"context"
	"math"

	"pland/pkg/types"
)

// MemoryProbe reports a point-in-time snapshot of accelerator memory. An
// empty snapshot means no accelerators are visible and forces a CPU-only
// plan. Implementations live in internal/probe, one per accelerator family.
type MemoryProbe interface {
	Snapshot(ctx context.Context) ([]types.Device, error)
}

// MetadataProvider resolves a model reference to its metadata. It must fail
// for unknown references; the planner propagates that failure unmodified.
type MetadataProvider interface {
	Metadata(ref string) (types.ModelMetadata, error)
}

// Config encapsulates the collaborators a Planner is built from.
type Config struct {
	Probe    MemoryProbe
	Metadata MetadataProvider
	Patterns PatternSource
	// HostFreeBytes supplies host memory for CPU-only context sizing.
	// Optional; when nil, CPU-only loads size against a zero budget and
	// land on the flat default.
	HostFreeBytes func() (int64, error)
}

// Planner composes KV sizing, context resolution, VRAM estimation and
// device allocation into one call. It holds no mutable state, performs no
// caching, and re-probes device memory on every call; callers are expected
// to serialize concurrent loads so two plans never claim the same free
// memory.
type Planner struct {
	probe    MemoryProbe
	meta     MetadataProvider
	pats     PatternSource
	hostFree func() (int64, error)
}

// New constructs a Planner from Config.
func New(cfg Config) *Planner {
	return &Planner{
		probe:    cfg.Probe,
		meta:     cfg.Metadata,
		pats:     cfg.Patterns,
		hostFree: cfg.HostFreeBytes,
	}
}

// Request describes one load to plan. OffloadLayers == 0 requests a
// CPU-only load; a negative value means "all layers".
type Request struct {
	Model           string
	ContextOverride int
	OffloadLayers   int
}

// Plan decides the context window and device placement for one load.
// Capacity failures return an error satisfying IsInsufficientMemory;
// metadata and probe failures propagate unmodified.
func (p *Planner) Plan(ctx context.Context, req Request) (types.ContextDecision, types.AllocationPlan, error) {
	md, err := p.meta.Metadata(req.Model)
	if err != nil {
		return types.ContextDecision{}, types.AllocationPlan{}, err
	}
	devices, err := p.probe.Snapshot(ctx)
	if err != nil {
		return types.ContextDecision{}, types.AllocationPlan{}, err
	}

	kvPerToken := kvBytesPerTokenFor(md)
	available := p.availableBytes(devices)
	dec := ResolveContext(req.Model, md, available, kvPerToken, req.ContextOverride, p.pats)

	// No accelerators or an explicitly CPU-only request: the allocator is
	// never consulted and the plan costs no device memory.
	if req.OffloadLayers == 0 || len(devices) == 0 {
		return dec, cpuPlan(len(devices)), nil
	}

	est := EstimateVRAM(md.FileBytes, dec.Context, req.OffloadLayers, md.LayerCount, kvPerToken)
	if est == 0 {
		return dec, cpuPlan(len(devices)), nil
	}

	plan, err := Allocate(est, devices)
	if err != nil {
		return dec, types.AllocationPlan{}, err
	}
	if err := checkPlan(plan); err != nil {
		return dec, types.AllocationPlan{}, err
	}
	return dec, plan, nil
}

// availableBytes picks the budget fed to context resolution: the widest
// single device when accelerators exist (placement prefers one device),
// host memory otherwise.
func (p *Planner) availableBytes(devices []types.Device) int64 {
	var widest int64
	for _, d := range devices {
		if d.FreeBytes > widest {
			widest = d.FreeBytes
		}
	}
	if widest > 0 {
		return widest
	}
	if p.hostFree != nil {
		if free, err := p.hostFree(); err == nil {
			return free
		}
	}
	return 0
}

func cpuPlan(deviceCount int) types.AllocationPlan {
	return types.AllocationPlan{
		Mode:          types.PlacementCPU,
		PrimaryDevice: -1,
		Shares:        make([]float64, deviceCount),
	}
}

// checkPlan verifies the split-share invariant before a plan leaves the
// planner. A violation is an internal defect, not a capacity failure.
func checkPlan(plan types.AllocationPlan) error {
	if plan.Mode != types.PlacementSplit {
		return nil
	}
	var sum float64
	participants := 0
	for _, s := range plan.Shares {
		if s > 0 {
			participants++
		}
		sum += s
	}
	if participants < 2 {
		return ErrInvariant("split plan with fewer than two participants")
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return ErrInvariant("split shares do not sum to 1")
	}
	return nil
}
