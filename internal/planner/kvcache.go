package planner

import "pland/pkg/types"

// FallbackKVBytesPerToken is used whenever any architecture dimension is
// unknown: 256 KiB per token, a deliberately conservative figure.
const FallbackKVBytesPerToken = 256 * 1024

// KVBytesPerToken returns the KV-cache cost of one token for the given
// transformer dimensions. The trailing factor of 2 assumes 16-bit cache
// entries regardless of how the model weights are quantized.
func KVBytesPerToken(layers, kvHeads, keyDim, valueDim int) int64 {
	return int64(layers) * int64(kvHeads) * int64(keyDim+valueDim) * 2
}

// kvBytesPerTokenFor picks the exact formula when all architecture fields
// are present and the fallback constant otherwise.
func kvBytesPerTokenFor(md types.ModelMetadata) int64 {
	if md.HasArchitecture() {
		return KVBytesPerToken(md.LayerCount, md.KVHeadCount, md.KeyDim, md.ValueDim)
	}
	return FallbackKVBytesPerToken
}
