package planner

import (
	"errors"
	"strings"
	"testing"

	"pland/pkg/types"
)

type staticPatterns struct {
	context int
	ok      bool
	err     error
}

func (p staticPatterns) Lookup(string) (int, bool, error) { return p.context, p.ok, p.err }

type panicPatterns struct{}

func (panicPatterns) Lookup(string) (int, bool, error) { panic("boom") }

func TestResolveContextCeilingFromMemory(t *testing.T) {
	// Scenario E: 2.38 GiB file, arch (36,8,128,128), 18.83 GiB available,
	// no override/training/pattern. The ceiling must land on a power of two
	// no larger than 65536.
	fileGiB := 2.38
	availGiB := 18.83
	md := types.ModelMetadata{
		FileBytes:   int64(fileGiB * float64(gib)),
		LayerCount:  36,
		KVHeadCount: 8,
		KeyDim:      128,
		ValueDim:    128,
	}
	avail := int64(availGiB * float64(gib))
	dec := ResolveContext("m", md, avail, kvBytesPerTokenFor(md), 0, nil)
	if dec.Context > 65536 {
		t.Fatalf("resolved context %d exceeds 65536", dec.Context)
	}
	if dec.Context < MinContext {
		t.Fatalf("resolved context %d below floor", dec.Context)
	}
	if dec.Context&(dec.Context-1) != 0 {
		t.Fatalf("ceiling-derived context %d is not a power of two", dec.Context)
	}
}

func TestResolveContextOverrideWins(t *testing.T) {
	md := types.ModelMetadata{FileBytes: gib, TrainingContext: 32768}
	dec := ResolveContext("m", md, 64*gib, FallbackKVBytesPerToken, 4096, staticPatterns{context: 8192, ok: true})
	if dec.Context != 4096 {
		t.Fatalf("override must win, got %d", dec.Context)
	}
	if len(dec.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", dec.Warnings)
	}
}

func TestResolveContextOverrideClampedToCeiling(t *testing.T) {
	// 8 GiB available, 2 GiB file, fallback KV cost: ceiling is
	// pow2floor((8*0.8-2) GiB / 256 KiB) = pow2floor(17612) = 16384.
	md := types.ModelMetadata{FileBytes: 2 * gib}
	dec := ResolveContext("m", md, 8*gib, FallbackKVBytesPerToken, 100000, nil)
	if dec.Context != 16384 {
		t.Fatalf("expected clamp to 16384, got %d", dec.Context)
	}
	if len(dec.Warnings) == 0 || !strings.Contains(dec.Warnings[0], "clamped") {
		t.Fatalf("expected a clamp warning, got %v", dec.Warnings)
	}
}

func TestResolveContextTrainingThenPattern(t *testing.T) {
	md := types.ModelMetadata{FileBytes: gib, TrainingContext: 8192}
	dec := ResolveContext("m", md, 64*gib, FallbackKVBytesPerToken, 0, staticPatterns{context: 2048, ok: true})
	if dec.Context != 8192 {
		t.Fatalf("training context must beat pattern default, got %d", dec.Context)
	}

	md.TrainingContext = 0
	dec = ResolveContext("m", md, 64*gib, FallbackKVBytesPerToken, 0, staticPatterns{context: 2048, ok: true})
	if dec.Context != 2048 {
		t.Fatalf("pattern default expected, got %d", dec.Context)
	}
}

func TestResolveContextLowMemoryFlatDefault(t *testing.T) {
	// Subtraction is non-positive: ceiling collapses to the floor and the
	// flat default is used with a warning, knowingly above feasibility.
	md := types.ModelMetadata{FileBytes: 8 * gib}
	dec := ResolveContext("m", md, 4*gib, FallbackKVBytesPerToken, 0, nil)
	if dec.Context != DefaultContext {
		t.Fatalf("expected flat default %d, got %d", DefaultContext, dec.Context)
	}
	if len(dec.Warnings) == 0 || !strings.Contains(dec.Warnings[0], "low memory") {
		t.Fatalf("expected low memory warning, got %v", dec.Warnings)
	}
}

func TestResolveContextPatternErrorDowngrades(t *testing.T) {
	md := types.ModelMetadata{FileBytes: gib}
	dec := ResolveContext("m", md, 64*gib, FallbackKVBytesPerToken, 0, staticPatterns{err: errors.New("parse failure")})
	if dec.Context != DefaultContext {
		t.Fatalf("expected flat default on pattern error, got %d", dec.Context)
	}
	if len(dec.Warnings) == 0 {
		t.Fatal("expected a warning")
	}
}

func TestResolveContextNeverPanics(t *testing.T) {
	md := types.ModelMetadata{FileBytes: gib}
	dec := ResolveContext("m", md, 64*gib, FallbackKVBytesPerToken, 0, panicPatterns{})
	if dec.Context != DefaultContext {
		t.Fatalf("expected flat default after panic, got %d", dec.Context)
	}
	if len(dec.Warnings) == 0 {
		t.Fatal("expected a warning after recovered panic")
	}
}

func TestResolveContextDefensiveFloor(t *testing.T) {
	md := types.ModelMetadata{FileBytes: gib}
	dec := ResolveContext("m", md, 64*gib, FallbackKVBytesPerToken, 1, nil)
	if dec.Context != MinContext {
		t.Fatalf("expected floor %d, got %d", MinContext, dec.Context)
	}
}

func TestContextCeilingBounds(t *testing.T) {
	cases := []struct {
		avail, file, kv int64
		want            int
	}{
		{0, 0, FallbackKVBytesPerToken, MinContext},         // nothing available
		{gib, 2 * gib, FallbackKVBytesPerToken, MinContext}, // file larger than budget
		{1 << 40, 0, 4, MaxContext},                         // clamped at the top
	}
	for _, c := range cases {
		if got := contextCeiling(c.avail, c.file, c.kv); got != c.want {
			t.Errorf("contextCeiling(%d,%d,%d) = %d, want %d", c.avail, c.file, c.kv, got, c.want)
		}
	}
}

func TestPowerOfTwoFloor(t *testing.T) {
	cases := map[int64]int{1: 1, 2: 2, 3: 2, 1023: 512, 1024: 1024, 92361: 65536}
	for in, want := range cases {
		if got := powerOfTwoFloor(in); got != want {
			t.Errorf("powerOfTwoFloor(%d) = %d, want %d", in, got, want)
		}
	}
}
