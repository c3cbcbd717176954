package planner

import (
	"fmt"

	"pland/pkg/types"
)

const (
	// MinContext is the hard floor below which no load is configured.
	MinContext = 512
	// MaxContext caps the memory-derived ceiling.
	MaxContext = 131072
	// DefaultContext is the flat fallback used when no better signal exists
	// or when context sizing itself fails.
	DefaultContext = 2048
)

// PatternSource answers glob-pattern context defaults for a model id.
// Implementations may load lazily; an error from Lookup downgrades the
// resolution to the flat default rather than failing the load.
type PatternSource interface {
	Lookup(modelID string) (contextTokens int, ok bool, err error)
}

// ResolveContext chooses the context window for one load. The priority
// chain is: explicit override, the model's training context, the first
// matching pattern-table entry, then the memory-derived ceiling itself.
// Every chosen value is clamped to the ceiling with a warning. ResolveContext
// never fails: any internal error or panic downgrades to the flat default
// with a warning, because context sizing must not block a viable load.
func ResolveContext(modelID string, md types.ModelMetadata, availableBytes, kvBytesPerToken int64, override int, pats PatternSource) (dec types.ContextDecision) {
	defer func() {
		if r := recover(); r != nil {
			dec = types.ContextDecision{
				Context:  DefaultContext,
				Warnings: []string{fmt.Sprintf("context sizing failed (%v); using flat default %d", r, DefaultContext)},
			}
		}
	}()
	return resolveContext(modelID, md, availableBytes, kvBytesPerToken, override, pats)
}

func resolveContext(modelID string, md types.ModelMetadata, availableBytes, kvBytesPerToken int64, override int, pats PatternSource) types.ContextDecision {
	ceiling := contextCeiling(availableBytes, md.FileBytes, kvBytesPerToken)

	if override > 0 {
		return clampDecision(override, "configured override", ceiling)
	}
	if md.TrainingContext > 0 {
		return clampDecision(md.TrainingContext, "training context", ceiling)
	}
	if pats != nil {
		n, ok, err := pats.Lookup(modelID)
		if err != nil {
			return types.ContextDecision{
				Context:  DefaultContext,
				Warnings: []string{fmt.Sprintf("pattern table unavailable (%v); using flat default %d", err, DefaultContext)},
			}
		}
		if ok && n > 0 {
			return clampDecision(n, "pattern default", ceiling)
		}
	}
	// No explicit signal: the ceiling is the answer unless memory is so
	// tight the ceiling itself is tiny, in which case a flat default with
	// a warning beats an unusably small window.
	if ceiling >= DefaultContext {
		return types.ContextDecision{Context: ceiling}
	}
	return types.ContextDecision{
		Context:  DefaultContext,
		Warnings: []string{fmt.Sprintf("low memory: ceiling %d below %d; using flat default %d which may exceed feasibility", ceiling, DefaultContext, DefaultContext)},
	}
}

// contextCeiling derives a coarse memory backstop: 80% of available bytes
// minus the model file, divided by the per-token KV cost, floored to a
// power of two and clamped to [MinContext, MaxContext]. It is intentionally
// coarser than EstimateVRAM and not reconciled with it.
func contextCeiling(availableBytes, fileBytes, kvBytesPerToken int64) int {
	budget := availableBytes*4/5 - fileBytes
	if budget <= 0 {
		return MinContext
	}
	if kvBytesPerToken <= 0 {
		kvBytesPerToken = FallbackKVBytesPerToken
	}
	tokens := budget / kvBytesPerToken
	if tokens < MinContext {
		return MinContext
	}
	c := powerOfTwoFloor(tokens)
	if c > MaxContext {
		return MaxContext
	}
	return c
}

// clampDecision applies the ceiling and the defensive floor to a value
// drawn from an explicit source, warning when the value had to move.
func clampDecision(want int, source string, ceiling int) types.ContextDecision {
	dec := types.ContextDecision{Context: want}
	if dec.Context > ceiling {
		dec.Warnings = append(dec.Warnings,
			fmt.Sprintf("%s %d exceeds memory ceiling; clamped to %d", source, want, ceiling))
		dec.Context = ceiling
	}
	if dec.Context < MinContext {
		dec.Warnings = append(dec.Warnings,
			fmt.Sprintf("%s %d below minimum; raised to %d", source, want, MinContext))
		dec.Context = MinContext
	}
	return dec
}

// powerOfTwoFloor returns the largest power of two <= n, for n >= 1.
func powerOfTwoFloor(n int64) int {
	p := int64(1)
	for p<<1 > 0 && p<<1 <= n {
		p <<= 1
	}
	return int(p)
}
