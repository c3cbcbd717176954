package registry

import (
	"os"
	"path/filepath"
	"testing"

	"pland/pkg/types"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadDirScansGGUF(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.gguf", 10)
	writeFile(t, dir, "b.GGUF", 20)
	writeFile(t, dir, "notes.txt", 5)
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	reg, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 models, got %d", reg.Len())
	}
	for _, m := range reg.List() {
		if m.ID != m.Name || m.Path == "" {
			t.Fatalf("unexpected entry %+v", m)
		}
	}
}

func TestLoadDirMergesHints(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "llama.gguf", 100)
	hints := map[string]types.ArchHints{
		"llama.gguf": {TrainingContext: 8192, LayerCount: 32, KVHeadCount: 8, KeyDim: 128, ValueDim: 128},
	}
	reg, err := LoadDir(dir, hints)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	md, err := reg.Metadata("llama.gguf")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if md.FileBytes != 100 {
		t.Fatalf("expected file size 100, got %d", md.FileBytes)
	}
	if !md.HasArchitecture() || md.TrainingContext != 8192 {
		t.Fatalf("hints not merged: %+v", md)
	}
}

func TestMetadataUnknownModel(t *testing.T) {
	reg := New(nil)
	_, err := reg.Metadata("missing.gguf")
	if err == nil || !IsModelNotFound(err) {
		t.Fatalf("expected model-not-found, got %v", err)
	}
}

func TestMetadataWithoutHintsHasNoArchitecture(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.gguf", 42)
	reg, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	md, err := reg.Metadata("m.gguf")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if md.HasArchitecture() {
		t.Fatalf("expected no architecture, got %+v", md)
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("expected error for missing dir")
	}
}
