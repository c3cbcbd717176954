package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home) // windows os.UserHomeDir

	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	p, err := ExpandHome("~")
	if err != nil || p != home {
		t.Fatalf("expected %q, got %q err=%v", home, p, err)
	}
	exp, err := ExpandHome("~/models/llm")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if filepath.Base(exp) != "llm" {
		t.Fatalf("unexpected expanded path: %q", exp)
	}
}

func TestEnsureParentDir(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a", "b", "plans.db")
	if err := EnsureParentDir(p); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	fi, err := os.Stat(filepath.Dir(p))
	if err != nil || !fi.IsDir() {
		t.Fatalf("parent not created: %v", err)
	}
	// relative path with no parent is a no-op
	if err := EnsureParentDir("plans.db"); err != nil {
		t.Fatalf("no-parent case: %v", err)
	}
}
