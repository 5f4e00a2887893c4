package services

import (
	"github.com/google/uuid"

	"link_shortener/models"
)

// Actor is the authenticated principal behind a request. A nil *Actor means
// the request is anonymous.
type Actor struct {
	ID        uuid.UUID
	IsPremium bool
}

func (a *Actor) UserID() *uuid.UUID {
	if a == nil {
		return nil
	}
	id := a.ID
	return &id
}

// Gate holds every ownership and premium rule.
type Gate struct{}

// CanManage allows an authenticated actor to manage anonymous links and the
// links it owns.
func (Gate) CanManage(link *models.Link, actor *Actor) bool {
	if actor == nil {
		return false
	}
	return link.OwnerID == nil || link.OwnedBy(actor.ID)
}

func (Gate) RequireAuthenticated(actor *Actor) error {
	if actor == nil {
		return ErrUnauthorized
	}
	return nil
}

func (g Gate) RequireManage(link *models.Link, actor *Actor) error {
	if err := g.RequireAuthenticated(actor); err != nil {
		return err
	}
	if !g.CanManage(link, actor) {
		return ErrForbidden
	}
	return nil
}

func (Gate) RequirePremium(actor *Actor) error {
	if actor == nil || !actor.IsPremium {
		return ErrForbidden
	}
	return nil
}
