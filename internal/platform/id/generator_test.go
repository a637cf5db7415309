package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_NewID(t *testing.T) {
	t.Parallel()

	gen := NewUUIDGenerator()
	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected uuid, got %q: %v", first, err)
	}
}

func TestRandomCodeGenerator_NewCode(t *testing.T) {
	t.Parallel()

	gen := NewRandomCodeGenerator()
	code, err := gen.NewCode(8)
	if err != nil {
		t.Fatalf("new code: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("expected 8 chars, got %q", code)
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			t.Fatalf("unexpected rune %q in %q", r, code)
		}
	}

	if _, err := gen.NewCode(0); err == nil {
		t.Fatalf("expected error for zero length")
	}
}
