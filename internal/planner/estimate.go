package planner

// estimateOverheadNum/Den encode the fixed 20% margin for compute buffers
// and scratch space on top of weights and KV cache.
const (
	estimateOverheadNum = 6
	estimateOverheadDen = 5
)

// EstimateVRAM returns the device bytes a (model, context, offload) tuple
// needs. offloadLayers == 0 means a CPU-only load and costs no device
// memory. Weights are prorated by offloaded layers when the total layer
// count is known; otherwise the whole file is assumed resident. The result
// carries a fixed 20% overhead, rounded up.
func EstimateVRAM(fileBytes int64, contextTokens int, offloadLayers, totalLayers int, kvBytesPerToken int64) int64 {
	if offloadLayers == 0 {
		return 0
	}
	weights := fileBytes
	if totalLayers > 0 && offloadLayers > 0 && offloadLayers < totalLayers {
		weights = fileBytes * int64(offloadLayers) / int64(totalLayers)
	}
	kv := kvBytesPerToken * int64(contextTokens)
	raw := weights + kv
	// ceil(raw * 1.2) in integer arithmetic
	return (raw*estimateOverheadNum + estimateOverheadDen - 1) / estimateOverheadDen
}
