package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"link_shortener/models"
)

// AccessRecorder turns a successful redirect into a visit and the matching
// counter, last-access and expiry updates, all in one transaction.
type AccessRecorder struct {
	db     *gorm.DB
	policy ExpiryPolicy
}

func NewAccessRecorder(db *gorm.DB, policy ExpiryPolicy) *AccessRecorder {
	return &AccessRecorder{db: db, policy: policy}
}

// Record registers an access to link at now. The click is an in-database
// increment guarded by the liveness condition, so concurrent redirects
// never lose a count and a link that expired or vanished in between is
// reported instead of touched. On success link holds the updated row.
func (r *AccessRecorder) Record(ctx context.Context, link *models.Link, actor *Actor, now time.Time) (*models.Visit, error) {
	now = now.UTC()
	var visit models.Visit

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Link{}).
			Where("id = ? AND expires_at > ?", link.ID, r.policy.ExpiredBefore(now)).
			Updates(map[string]any{
				"clicks":        gorm.Expr("clicks + ?", 1),
				"last_accessed": now,
				"expires_at":    r.policy.Renew(now),
			})
		if res.Error != nil {
			return res.Error
		}

		var fresh models.Link
		if err := tx.First(&fresh, link.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if res.RowsAffected == 0 {
			return ErrExpired
		}

		visit = models.Visit{
			LinkID:      fresh.ID,
			UserID:      actor.UserID(),
			ShortCode:   fresh.ShortCode,
			OriginalURL: fresh.OriginalURL,
			AccessedAt:  now,
		}
		if err := tx.Create(&visit).Error; err != nil {
			return err
		}
		*link = fresh
		return nil
	})
	if err != nil {
		return nil, storeError(ctx, "record access", err)
	}
	return &visit, nil
}
