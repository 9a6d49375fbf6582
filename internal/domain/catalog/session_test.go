package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessionAddVariantRejectsDuplicates(t *testing.T) {
	s := NewSession()
	s.EditingVariants = []string{"Large-Room"}

	v, err := s.AddVariant("Small", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.VariantKey != "Small" || v.Price != 10 {
		t.Fatalf("unexpected variant %+v", v)
	}

	tests := []struct {
		name  string
		label string
	}{
		{"same label", "Small"},
		{"stored key", "Large Room"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AddVariant(tt.label, 5); !errors.Is(err, ErrVariantExists) {
				t.Fatalf("expected ErrVariantExists, got %v", err)
			}
			if len(s.Variants) != 1 {
				t.Fatalf("expected 1 drafted variant, got %d", len(s.Variants))
			}
		})
	}

	var verr ValidationErrors
	if _, err := s.AddVariant("  ", 1); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}

func TestSessionRemoveAndForget(t *testing.T) {
	s := NewSession()
	s.EditingVariants = []string{"A", "B"}
	s.AddVariant("C", 1)
	s.AddVariant("D", 2)

	s.RemoveVariant("C")
	s.ForgetStoredVariant("A")

	if len(s.Variants) != 1 || s.Variants[0].VariantKey != "D" {
		t.Fatalf("unexpected variants %+v", s.Variants)
	}
	if len(s.EditingVariants) != 1 || s.EditingVariants[0] != "B" {
		t.Fatalf("unexpected editing variants %v", s.EditingVariants)
	}

	// a removed stored key can be drafted again
	if _, err := s.AddVariant("A", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	s := NewSession()
	id := uuid.New()
	s.ServiceID = &id
	s.AddVariant("Small", 10)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, s.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got.ServiceID != id || len(got.Variants) != 1 {
		t.Fatalf("unexpected session %+v", got)
	}

	// mutations of a loaded copy do not leak into the store
	got.AddVariant("Large", 20)
	again, _ := store.Get(ctx, s.Token)
	if len(again.Variants) != 1 {
		t.Fatalf("expected stored session to be unchanged, got %+v", again.Variants)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, s.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
