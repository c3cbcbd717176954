package planner

import (
	"fmt"
	"sort"
	"strings"

	"pland/pkg/types"
)

const (
	// allocationMarginNum/Den encode the global 10% safety margin applied
	// once, in aggregate, to the raw estimate.
	allocationMarginNum = 11
	allocationMarginDen = 10

	// splitFloorBytes is the minimum free memory a device must have to
	// participate in a split placement at all.
	splitFloorBytes = 512 << 20

	// splitDeviceOverheadBytes is the fixed per-device overhead each split
	// participant must absorb on top of its share.
	splitDeviceOverheadBytes = 256 << 20
)

// Allocate picks a placement for estimatedBytes across the given snapshot.
// Single-device placement is preferred whenever any device fits the margined
// requirement; otherwise a proportional split is attempted over devices
// above the participation floor, pruning any device whose share plus
// overhead exceeds its free memory. The same inputs always yield the same
// plan. Callers must not invoke Allocate with estimatedBytes == 0.
func Allocate(estimatedBytes int64, devices []types.Device) (types.AllocationPlan, error) {
	if len(devices) == 0 {
		return types.AllocationPlan{}, ErrInsufficientMemory(0, "no accelerator devices in snapshot")
	}
	required := (estimatedBytes*allocationMarginNum + allocationMarginDen - 1) / allocationMarginDen

	// Positions into devices, widest free memory first, index ascending on
	// ties so the decision is deterministic.
	order := make([]int, len(devices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := devices[order[a]], devices[order[b]]
		if da.FreeBytes != db.FreeBytes {
			return da.FreeBytes > db.FreeBytes
		}
		return da.Index < db.Index
	})

	if top := devices[order[0]]; top.FreeBytes >= required {
		shares := make([]float64, len(devices))
		shares[order[0]] = 1.0
		return types.AllocationPlan{
			Mode:           types.PlacementSingle,
			PrimaryDevice:  top.Index,
			Shares:         shares,
			EstimatedBytes: estimatedBytes,
		}, nil
	}

	if plan, ok := allocateSplit(estimatedBytes, required, devices); ok {
		return plan, nil
	}
	return types.AllocationPlan{}, ErrInsufficientMemory(required, capacityDetail(required, devices))
}

// allocateSplit attempts a proportional multi-device placement. Shares are
// recomputed from scratch whenever the participant set changes, because
// dropping one device shifts every remaining share.
func allocateSplit(estimatedBytes, required int64, devices []types.Device) (types.AllocationPlan, bool) {
	in := make([]bool, len(devices))
	for i, d := range devices {
		in[i] = d.FreeBytes >= splitFloorBytes
	}

	for {
		var totalFree int64
		participants := 0
		for i, d := range devices {
			if in[i] {
				totalFree += d.FreeBytes
				participants++
			}
		}
		if participants < 2 {
			return types.AllocationPlan{}, false
		}

		pruned := false
		for i, d := range devices {
			if !in[i] {
				continue
			}
			// Share of the unmargined estimate; the 10% margin is enforced
			// once, in aggregate, below.
			shareBytes := float64(d.FreeBytes) / float64(totalFree) * float64(estimatedBytes)
			if shareBytes+float64(splitDeviceOverheadBytes) > float64(d.FreeBytes) {
				in[i] = false
				pruned = true
				break
			}
		}
		if pruned {
			continue
		}

		if totalFree < required {
			return types.AllocationPlan{}, false
		}
		shares := make([]float64, len(devices))
		primary := -1
		var primaryFree int64 = -1
		for i, d := range devices {
			if !in[i] {
				continue
			}
			shares[i] = float64(d.FreeBytes) / float64(totalFree)
			if d.FreeBytes > primaryFree || (d.FreeBytes == primaryFree && d.Index < primary) {
				primary = d.Index
				primaryFree = d.FreeBytes
			}
		}
		return types.AllocationPlan{
			Mode:           types.PlacementSplit,
			PrimaryDevice:  primary,
			Shares:         shares,
			EstimatedBytes: estimatedBytes,
		}, true
	}
}

// capacityDetail builds the verbose log-only diagnostic for a capacity
// failure. This string must never reach a client response.
func capacityDetail(required int64, devices []types.Device) string {
	var b strings.Builder
	fmt.Fprintf(&b, "required %d bytes with margin; devices:", required)
	for _, d := range devices {
		fmt.Fprintf(&b, " [%d %s free=%d total=%d]", d.Index, d.Name, d.FreeBytes, d.TotalBytes)
	}
	return b.String()
}
