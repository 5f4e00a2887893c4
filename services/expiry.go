package services

import (
	"time"

	"link_shortener/models"
)

const (
	DefaultLinkLifetime  = 24 * time.Hour
	DefaultRenewalWindow = 24 * time.Hour
)

// ExpiryPolicy decides link liveness. All comparisons happen at minute
// granularity and every expires_at it hands out is minute aligned, so the
// live check and the expired listings agree on the boundary.
type ExpiryPolicy struct {
	Lifetime      time.Duration
	RenewalWindow time.Duration
}

func NewExpiryPolicy(lifetime, renewal time.Duration) ExpiryPolicy {
	if lifetime <= 0 {
		lifetime = DefaultLinkLifetime
	}
	if renewal <= 0 {
		renewal = DefaultRenewalWindow
	}
	return ExpiryPolicy{Lifetime: lifetime, RenewalWindow: renewal}
}

// Truncate drops seconds and below and normalizes to UTC.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

func (p ExpiryPolicy) IsLive(link *models.Link, now time.Time) bool {
	return Truncate(now).Before(Truncate(link.ExpiresAt))
}

// Renew returns the expiry a link gets when accessed at now.
func (p ExpiryPolicy) Renew(now time.Time) time.Time {
	return Truncate(now).Add(p.RenewalWindow)
}

// InitialExpiry returns the expiry of a link created at now without an
// explicit one.
func (p ExpiryPolicy) InitialExpiry(now time.Time) time.Time {
	return Truncate(now).Add(p.Lifetime)
}

// ExpiredBefore is the cutoff for expired listings: a link is expired at now
// iff expires_at <= ExpiredBefore(now).
func (p ExpiryPolicy) ExpiredBefore(now time.Time) time.Time {
	return Truncate(now)
}
