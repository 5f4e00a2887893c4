package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestKind(t *testing.T) {
	if Kind(nil) != nil {
		t.Fatal("nil error has no kind")
	}
	if k := Kind(fmt.Errorf("wrapped: %w", ErrAliasConflict)); k != ErrAliasConflict {
		t.Fatalf("got %v", k)
	}
	if k := Kind(errors.New("boom")); k != ErrTransient {
		t.Fatalf("unknown errors are transient, got %v", k)
	}
}

func TestStoreErrorWrapsTransient(t *testing.T) {
	err := storeError(context.Background(), "op", errors.New("connection reset"))
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient, got %v", err)
	}
	if err := storeError(context.Background(), "op", ErrNotFound); err != ErrNotFound {
		t.Fatalf("taxonomy errors must pass through, got %v", err)
	}
	if err := storeError(context.Background(), "op", context.Canceled); !errors.Is(err, ErrTransient) {
		t.Fatalf("cancellation is transient, got %v", err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	if !isDuplicateKey(gorm.ErrDuplicatedKey) {
		t.Fatal("gorm duplicate not detected")
	}
	if !isDuplicateKey(errors.New("constraint failed: UNIQUE constraint failed: links.short_code (2067)")) {
		t.Fatal("sqlite duplicate not detected")
	}
	if isDuplicateKey(errors.New("timeout")) || isDuplicateKey(nil) {
		t.Fatal("false positive")
	}
}
