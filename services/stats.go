package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"link_shortener/models"
)

type LinkStats struct {
	OriginalURL  string     `json:"original_url"`
	CreatedAt    time.Time  `json:"created_at"`
	Clicks       int64      `json:"clicks"`
	LastAccessed *time.Time `json:"last_accessed"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

type ExpiredSummary struct {
	ShortCode    string     `json:"-"`
	OriginalURL  string     `json:"original_url"`
	CreatedAt    time.Time  `json:"created_at"`
	Clicks       int64      `json:"clicks"`
	LastAccessed *time.Time `json:"last_accessed"`
}

// StatsAggregator builds read-only analytics views. It never renews or
// counts anything.
type StatsAggregator struct {
	db     *gorm.DB
	policy ExpiryPolicy
}

func NewStatsAggregator(db *gorm.DB, policy ExpiryPolicy) *StatsAggregator {
	return &StatsAggregator{db: db, policy: policy}
}

func (a *StatsAggregator) LinkStats(link *models.Link) LinkStats {
	return LinkStats{
		OriginalURL:  link.OriginalURL,
		CreatedAt:    link.CreatedAt,
		Clicks:       link.Clicks,
		LastAccessed: link.LastAccessed,
		ExpiresAt:    link.ExpiresAt,
	}
}

func (a *StatsAggregator) ExpiredForOwner(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]ExpiredSummary, error) {
	return a.expired(ctx, a.db.WithContext(ctx).Where("owner_id = ?", ownerID), now)
}

func (a *StatsAggregator) AllExpired(ctx context.Context, now time.Time) ([]ExpiredSummary, error) {
	return a.expired(ctx, a.db.WithContext(ctx), now)
}

func (a *StatsAggregator) expired(ctx context.Context, q *gorm.DB, now time.Time) ([]ExpiredSummary, error) {
	var links []models.Link
	err := q.Where("expires_at <= ?", a.policy.ExpiredBefore(now)).
		Order("expires_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, storeError(ctx, "list expired links", err)
	}
	if len(links) == 0 {
		return nil, ErrNoResults
	}

	out := make([]ExpiredSummary, 0, len(links))
	for _, l := range links {
		out = append(out, ExpiredSummary{
			ShortCode:    l.ShortCode,
			OriginalURL:  l.OriginalURL,
			CreatedAt:    l.CreatedAt,
			Clicks:       l.Clicks,
			LastAccessed: l.LastAccessed,
		})
	}
	return out, nil
}

// QueriesForCode returns the visits currently filed under code, oldest first.
func (a *StatsAggregator) QueriesForCode(ctx context.Context, code string) ([]models.Visit, error) {
	var visits []models.Visit
	err := a.db.WithContext(ctx).
		Where("short_code = ?", code).
		Order("accessed_at ASC, id ASC").
		Find(&visits).Error
	if err != nil {
		return nil, storeError(ctx, "list visits", err)
	}
	if len(visits) == 0 {
		return nil, ErrNoResults
	}
	return visits, nil
}
