package probe

import (
	"context"

	"pland/pkg/types"
)

// Static serves a fixed device inventory from configuration. Useful for
// tests and for deployments where the operator pins the budget instead of
// trusting driver introspection.
type Static struct {
	devices []types.Device
}

// NewStatic copies the given devices into a Static probe.
func NewStatic(devices []types.Device) *Static {
	out := make([]types.Device, len(devices))
	copy(out, devices)
	return &Static{devices: out}
}

// Snapshot returns a copy of the configured inventory.
func (s *Static) Snapshot(ctx context.Context) ([]types.Device, error) {
	out := make([]types.Device, len(s.devices))
	copy(out, s.devices)
	return out, nil
}
