package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestLinkOwnedBy(t *testing.T) {
	owner := uuid.New()
	link := &Link{OwnerID: &owner}

	if !link.OwnedBy(owner) {
		t.Fatal("owner not recognised")
	}
	if link.OwnedBy(uuid.New()) {
		t.Fatal("stranger recognised as owner")
	}
	if (&Link{}).OwnedBy(owner) {
		t.Fatal("link without owner reported as owned")
	}
}
