package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"link_shortener/codegen"
	"link_shortener/models"
)

type Options struct {
	Generator        codegen.Generator
	LinkLifetime     time.Duration
	RenewalWindow    time.Duration
	GenerateAttempts int
	Now              func() time.Time
}

// Shortener is the entry point used by the HTTP layer. It strings the
// components together in the order each request type needs: creation goes
// to the store, a redirect resolves, checks liveness and records, and
// management requests pass the gate before reaching stats or the store.
type Shortener struct {
	Links    *LinkStore
	Recorder *AccessRecorder
	Stats    *StatsAggregator
	Users    *Users
	Policy   ExpiryPolicy
	Gate     Gate

	now func() time.Time
}

func NewShortener(db *gorm.DB, opts Options) *Shortener {
	if opts.Generator == nil {
		opts.Generator = codegen.NewRandomGenerator()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	policy := NewExpiryPolicy(opts.LinkLifetime, opts.RenewalWindow)

	return &Shortener{
		Links:    NewLinkStore(db, opts.Generator, policy, opts.GenerateAttempts, opts.Now),
		Recorder: NewAccessRecorder(db, policy),
		Stats:    NewStatsAggregator(db, policy),
		Users:    NewUsers(db, opts.Now),
		Policy:   policy,
		now:      opts.Now,
	}
}

func (s *Shortener) Shorten(ctx context.Context, p CreateParams, actor *Actor) (*models.Link, error) {
	p.OwnerID = actor.UserID()
	return s.Links.Create(ctx, p)
}

func (s *Shortener) Search(ctx context.Context, originalURL string) ([]models.Link, error) {
	links, err := s.Links.FindByURL(ctx, originalURL)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNoResults
	}
	return links, nil
}

// Redirect resolves code and records the access when the link is live.
func (s *Shortener) Redirect(ctx context.Context, code string, actor *Actor) (*models.Link, error) {
	link, err := s.Links.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !s.Policy.IsLive(link, now) {
		return nil, ErrExpired
	}
	if _, err := s.Recorder.Record(ctx, link, actor, now); err != nil {
		return nil, err
	}
	return link, nil
}

// LinkStats is the owner view of a live link.
func (s *Shortener) LinkStats(ctx context.Context, code string, actor *Actor) (LinkStats, error) {
	if err := s.Gate.RequireAuthenticated(actor); err != nil {
		return LinkStats{}, err
	}
	link, err := s.Links.FindByCode(ctx, code)
	if err != nil {
		return LinkStats{}, err
	}
	if err := s.Gate.RequireManage(link, actor); err != nil {
		return LinkStats{}, err
	}
	if !s.Policy.IsLive(link, s.now()) {
		return LinkStats{}, ErrExpired
	}
	return s.Stats.LinkStats(link), nil
}

func (s *Shortener) MyExpired(ctx context.Context, actor *Actor) ([]ExpiredSummary, error) {
	if err := s.Gate.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.Stats.ExpiredForOwner(ctx, actor.ID, s.now())
}

func (s *Shortener) Rename(ctx context.Context, code, newAlias string, actor *Actor) (*models.Link, error) {
	return s.Links.Rename(ctx, code, newAlias, actor)
}

func (s *Shortener) Delete(ctx context.Context, code string, actor *Actor) error {
	return s.Links.Delete(ctx, code, actor)
}

func (s *Shortener) SetPremium(ctx context.Context, actor *Actor, status bool) error {
	if err := s.Gate.RequireAuthenticated(actor); err != nil {
		return err
	}
	return s.Users.SetPremium(ctx, actor, status)
}

func (s *Shortener) requirePremium(actor *Actor) error {
	if err := s.Gate.RequireAuthenticated(actor); err != nil {
		return err
	}
	return s.Gate.RequirePremium(actor)
}

// AllExpired lists expired links of every owner.
func (s *Shortener) AllExpired(ctx context.Context, actor *Actor) ([]ExpiredSummary, error) {
	if err := s.requirePremium(actor); err != nil {
		return nil, err
	}
	return s.Stats.AllExpired(ctx, s.now())
}

// PremiumLinkStats reports any link regardless of owner or expiry.
func (s *Shortener) PremiumLinkStats(ctx context.Context, code string, actor *Actor) (LinkStats, error) {
	if err := s.requirePremium(actor); err != nil {
		return LinkStats{}, err
	}
	link, err := s.Links.FindByCode(ctx, code)
	if err != nil {
		return LinkStats{}, err
	}
	return s.Stats.LinkStats(link), nil
}

func (s *Shortener) Queries(ctx context.Context, code string, actor *Actor) ([]models.Visit, error) {
	if err := s.requirePremium(actor); err != nil {
		return nil, err
	}
	return s.Stats.QueriesForCode(ctx, code)
}
