package registry

import (
	"testing"
)

func TestGet(t *testing.T) {
	r := New()

	for name, exe := range map[string]string{
		"dymola":   "dymola",
		"optimica": "jm_ipython.sh",
	} {
		eng, err := r.Get(name, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if eng.Name() != name {
			t.Errorf("expected engine name %s, got %s", name, eng.Name())
		}
		if eng.Executable() != exe {
			t.Errorf("%s: expected executable %s, got %s", name, exe, eng.Executable())
		}
	}
}

func TestGetUnknown(t *testing.T) {
	r := New()
	if _, err := r.Get("openmodelica", nil); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestList(t *testing.T) {
	r := New()
	names := r.List()
	if len(names) != 2 {
		t.Fatalf("expected 2 engines, got %d", len(names))
	}
	if names[0] != "dymola" || names[1] != "optimica" {
		t.Errorf("unexpected engine list: %v", names)
	}
}
