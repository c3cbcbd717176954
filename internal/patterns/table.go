// Package patterns holds the glob-pattern context defaults consulted when a
// load has no explicit context signal. The table is static reference data:
// loaded once, cached read-only, with an explicit reload for operators who
// edit the file in place.
package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pland/pkg/types"
)

// Table is an ordered, read-only list of pattern defaults. First match wins.
type Table struct {
	entries []types.PatternEntry
}

// NewTable copies the given entries into a read-only table.
func NewTable(entries []types.PatternEntry) *Table {
	out := make([]types.PatternEntry, len(entries))
	copy(out, entries)
	return &Table{entries: out}
}

// Entries returns a copy of the table for display purposes.
func (t *Table) Entries() []types.PatternEntry {
	out := make([]types.PatternEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Match returns the context size of the first entry whose pattern matches
// modelID, or false when nothing matches.
func (t *Table) Match(modelID string) (int, bool) {
	for _, e := range t.entries {
		if globMatch(e.Pattern, modelID) {
			return e.Context, true
		}
	}
	return 0, false
}

// LoadFile reads a YAML pattern table. Entries with an empty pattern or a
// non-positive context are configuration defects and fail the load.
func LoadFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []types.PatternEntry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("pattern table %s: %w", path, err)
	}
	for i, e := range entries {
		if e.Pattern == "" {
			return nil, fmt.Errorf("pattern table %s: entry %d has empty pattern", path, i)
		}
		if e.Context <= 0 {
			return nil, fmt.Errorf("pattern table %s: entry %d (%q) has non-positive context", path, i, e.Pattern)
		}
	}
	return NewTable(entries), nil
}

// globMatch matches s against a case-sensitive pattern supporting only '*'
// (any run, including empty) and '?' (exactly one byte). No character
// classes, no escaping.
func globMatch(pattern, s string) bool {
	// Iterative backtracking over the last '*' seen.
	pi, si := 0, 0
	star, ss := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star, ss = pi, si
			pi++
		case star >= 0:
			pi = star + 1
			ss++
			si = ss
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
