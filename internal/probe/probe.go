// Package probe provides MemoryProbe implementations, one per accelerator
// family. Every probe returns a fresh point-in-time snapshot; nothing here
// caches, because free memory is only meaningful at the moment of the
// planning decision.
package probe

import (
	"context"

	"pland/pkg/types"
)

// Probe is the device-memory capability the planner depends on. An empty
// snapshot (no error) means no accelerators are visible.
type Probe interface {
	Snapshot(ctx context.Context) ([]types.Device, error)
}

// None is the probe for hosts without accelerators.
type None struct{}

// Snapshot always returns an empty snapshot.
func (None) Snapshot(ctx context.Context) ([]types.Device, error) { return nil, nil }
