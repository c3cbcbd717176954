package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"pland/pkg/types"
)

// nvidia-smi reports memory in MiB with these query flags.
const nvidiaSMIQuery = "--query-gpu=index,name,memory.total,memory.free"

// NvidiaSMI probes NVIDIA devices by shelling out to nvidia-smi. The binary
// path is configurable so tests and unusual installs can point elsewhere.
type NvidiaSMI struct {
	Bin string
}

// NewNvidiaSMI builds a probe using the given binary, defaulting to
// "nvidia-smi" on PATH.
func NewNvidiaSMI(bin string) *NvidiaSMI {
	if bin == "" {
		bin = "nvidia-smi"
	}
	return &NvidiaSMI{Bin: bin}
}

// Snapshot runs nvidia-smi and parses its CSV output. A missing binary is
// reported as an error rather than an empty snapshot so a CUDA host with a
// broken driver install does not silently plan CPU-only loads.
func (p *NvidiaSMI) Snapshot(ctx context.Context) ([]types.Device, error) {
	cmd := exec.CommandContext(ctx, p.Bin, nvidiaSMIQuery, "--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi: %w", err)
	}
	return parseNvidiaSMI(string(out))
}

// parseNvidiaSMI parses "index, name, total_mib, free_mib" lines.
func parseNvidiaSMI(out string) ([]types.Device, error) {
	var devices []types.Device
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("nvidia-smi: unexpected line %q", line)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("nvidia-smi: bad index in %q: %w", line, err)
		}
		totalMiB, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("nvidia-smi: bad total in %q: %w", line, err)
		}
		freeMiB, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("nvidia-smi: bad free in %q: %w", line, err)
		}
		devices = append(devices, types.Device{
			Index:      idx,
			Name:       strings.TrimSpace(fields[1]),
			TotalBytes: totalMiB << 20,
			FreeBytes:  freeMiB << 20,
		})
	}
	return devices, nil
}
