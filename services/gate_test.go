package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"link_shortener/models"
)

func TestGateCanManage(t *testing.T) {
	var g Gate
	owner := newActor()
	other := newActor()
	owned := &models.Link{OwnerID: &owner.ID}
	anonymous := &models.Link{}

	if g.CanManage(owned, nil) || g.CanManage(anonymous, nil) {
		t.Fatal("anonymous actor must not manage links")
	}
	if !g.CanManage(owned, owner) {
		t.Fatal("owner must manage own link")
	}
	if g.CanManage(owned, other) {
		t.Fatal("other user must not manage owned link")
	}
	if !g.CanManage(anonymous, other) {
		t.Fatal("any authenticated user may manage an anonymous link")
	}
}

func TestGateRequireErrors(t *testing.T) {
	var g Gate
	ownerID := uuid.New()
	link := &models.Link{OwnerID: &ownerID}

	if err := g.RequireManage(link, nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := g.RequireManage(link, newActor()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := g.RequirePremium(nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for anonymous, got %v", err)
	}
	if err := g.RequirePremium(&Actor{ID: ownerID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for standard user, got %v", err)
	}
	if err := g.RequirePremium(&Actor{ID: ownerID, IsPremium: true}); err != nil {
		t.Fatalf("premium user rejected: %v", err)
	}
}
