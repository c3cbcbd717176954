package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"pland/pkg/types"
)

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "anything", true},
		{"*llama*", "tiny-llama-q4.gguf", true},
		{"*llama*", "mistral.gguf", false},
		{"llama-?b*", "llama-7b.Q4.gguf", true},
		{"llama-?b*", "llama-70b.Q4.gguf", false},
		{"exact.gguf", "exact.gguf", true},
		{"exact.gguf", "EXACT.gguf", false}, // case-sensitive
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
		{"", "", true},
		{"", "x", false},
		{"**", "x", true},
	}
	for _, c := range cases {
		if got := globMatch(c.pattern, c.s); got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}

func TestTableFirstMatchWins(t *testing.T) {
	tbl := NewTable([]types.PatternEntry{
		{Pattern: "*70b*", Context: 4096},
		{Pattern: "*llama*", Context: 8192},
	})
	if n, ok := tbl.Match("llama-70b.gguf"); !ok || n != 4096 {
		t.Fatalf("expected first entry 4096, got %d ok=%v", n, ok)
	}
	if n, ok := tbl.Match("llama-7b.gguf"); !ok || n != 8192 {
		t.Fatalf("expected second entry 8192, got %d ok=%v", n, ok)
	}
	if _, ok := tbl.Match("mistral.gguf"); ok {
		t.Fatal("expected no match")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	body := "- pattern: \"*llama*\"\n  context: 8192\n  note: llama family default\n- pattern: \"*\"\n  context: 4096\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", tbl.Len())
	}
	if n, ok := tbl.Match("anything"); !ok || n != 4096 {
		t.Fatalf("catch-all expected 4096, got %d ok=%v", n, ok)
	}
}

func TestLoadFileRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"empty-pattern.yaml": "- pattern: \"\"\n  context: 4096\n",
		"zero-context.yaml":  "- pattern: \"*\"\n  context: 0\n",
		"not-yaml.yaml":      "{{{",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestStoreLazyLoadAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("- pattern: \"*\"\n  context: 4096\n")

	loads := 0
	s := NewStore(func() (*Table, error) {
		loads++
		return LoadFile(path)
	})

	if n, ok, err := s.Lookup("x"); err != nil || !ok || n != 4096 {
		t.Fatalf("lookup: n=%d ok=%v err=%v", n, ok, err)
	}
	if _, _, err := s.Lookup("y"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected one lazy load, got %d", loads)
	}

	write("- pattern: \"*\"\n  context: 2048\n")
	if err := s.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if n, _, _ := s.Lookup("x"); n != 2048 {
		t.Fatalf("expected reloaded value 2048, got %d", n)
	}
}

func TestStoreReloadFailureKeepsOldTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	if err := os.WriteFile(path, []byte("- pattern: \"*\"\n  context: 4096\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewStore(func() (*Table, error) { return LoadFile(path) })
	if _, _, err := s.Lookup("x"); err != nil {
		t.Fatalf("lookup: %v", err)
	}

	if err := os.WriteFile(path, []byte("{{{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if n, ok, err := s.Lookup("x"); err != nil || !ok || n != 4096 {
		t.Fatalf("previous table must stay active: n=%d ok=%v err=%v", n, ok, err)
	}
}
