package probe

import "testing"

func TestParseNvidiaSMI(t *testing.T) {
	out := "0, NVIDIA GeForce RTX 4090, 24564, 18944\n1, NVIDIA GeForce RTX 3060, 12288, 8192\n\n"
	devices, err := parseNvidiaSMI(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].Index != 0 || devices[0].Name != "NVIDIA GeForce RTX 4090" {
		t.Fatalf("unexpected device %+v", devices[0])
	}
	if devices[0].TotalBytes != 24564<<20 || devices[0].FreeBytes != 18944<<20 {
		t.Fatalf("MiB conversion wrong: %+v", devices[0])
	}
	if devices[1].Index != 1 || devices[1].FreeBytes != 8192<<20 {
		t.Fatalf("unexpected device %+v", devices[1])
	}
}

func TestParseNvidiaSMIEmpty(t *testing.T) {
	devices, err := parseNvidiaSMI("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no devices, got %d", len(devices))
	}
}

func TestParseNvidiaSMIMalformed(t *testing.T) {
	for _, out := range []string{
		"0, gpu, 24564",             // missing field
		"x, gpu, 24564, 18944",      // bad index
		"0, gpu, huge, 18944",       // bad total
		"0, gpu, 24564, lots",       // bad free
	} {
		if _, err := parseNvidiaSMI(out); err == nil {
			t.Errorf("expected error for %q", out)
		}
	}
}
