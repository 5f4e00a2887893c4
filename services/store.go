package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"link_shortener/codegen"
	"link_shortener/models"
)

const DefaultGenerateAttempts = 10

type CreateParams struct {
	OriginalURL string
	CustomAlias string
	// ExpiresAt is the raw YYYY-MM-DD[ HH[:MM]] text; empty means the
	// default lifetime.
	ExpiresAt string
	OwnerID   *uuid.UUID
}

// LinkStore owns link records. Every mutating operation runs in a single
// transaction; a unique index on short_code is the authority on collisions.
type LinkStore struct {
	db       *gorm.DB
	gen      codegen.Generator
	policy   ExpiryPolicy
	gate     Gate
	attempts int
	now      func() time.Time
}

func NewLinkStore(db *gorm.DB, gen codegen.Generator, policy ExpiryPolicy, attempts int, now func() time.Time) *LinkStore {
	if attempts <= 0 {
		attempts = DefaultGenerateAttempts
	}
	if now == nil {
		now = time.Now
	}
	return &LinkStore{
		db:       db,
		gen:      gen,
		policy:   policy,
		attempts: attempts,
		now:      now,
	}
}

func (s *LinkStore) Create(ctx context.Context, p CreateParams) (*models.Link, error) {
	if !codegen.ValidURL(p.OriginalURL) {
		return nil, ErrInvalidURL
	}
	alias := strings.TrimSpace(p.CustomAlias)
	if alias != "" && !codegen.ValidAlias(alias) {
		return nil, ErrInvalidAlias
	}

	now := s.now().UTC()
	expiresAt := s.policy.InitialExpiry(now)
	if p.ExpiresAt != "" {
		t, err := codegen.ParseDate(p.ExpiresAt)
		if err != nil {
			return nil, ErrInvalidDate
		}
		expiresAt = Truncate(t)
	}

	link := &models.Link{
		OriginalURL: p.OriginalURL,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
		OwnerID:     p.OwnerID,
	}
	insert := func(tx *gorm.DB, code string) error {
		link.ID = 0
		link.ShortCode = code
		return tx.Create(link).Error
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if alias != "" {
			return s.claimAlias(tx, alias, insert)
		}
		_, err := s.allocate(tx, insert)
		return err
	})
	if err != nil {
		return nil, storeError(ctx, "create link", err)
	}
	return link, nil
}

func (s *LinkStore) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	var link models.Link
	if err := findByCode(s.db.WithContext(ctx), code, false, &link); err != nil {
		return nil, storeError(ctx, "find link by code", err)
	}
	return &link, nil
}

func (s *LinkStore) FindByURL(ctx context.Context, originalURL string) ([]models.Link, error) {
	var links []models.Link
	err := s.db.WithContext(ctx).Where("original_url = ?", originalURL).Find(&links).Error
	if err != nil {
		return nil, storeError(ctx, "find links by url", err)
	}
	return links, nil
}

// Rename moves a link to newAlias, or to a freshly generated code when
// newAlias is empty. The new code is copied onto the link's visits.
func (s *LinkStore) Rename(ctx context.Context, code, newAlias string, actor *Actor) (*models.Link, error) {
	if err := s.gate.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	newAlias = strings.TrimSpace(newAlias)

	var link models.Link
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findByCode(tx, code, true, &link); err != nil {
			return err
		}
		if err := s.gate.RequireManage(&link, actor); err != nil {
			return err
		}
		if newAlias != "" && !codegen.ValidAlias(newAlias) {
			return ErrInvalidAlias
		}

		now := s.now().UTC()
		move := func(tx *gorm.DB, c string) error {
			return tx.Model(&models.Link{}).
				Where("id = ?", link.ID).
				Updates(map[string]any{"short_code": c, "created_at": now}).Error
		}

		next := newAlias
		if next == "" {
			var err error
			if next, err = s.allocate(tx, move); err != nil {
				return err
			}
		} else if err := s.claimAlias(tx, next, move); err != nil {
			return err
		}

		if err := tx.Model(&models.Visit{}).Where("link_id = ?", link.ID).Update("short_code", next).Error; err != nil {
			return err
		}
		link.ShortCode = next
		link.CreatedAt = now
		return nil
	})
	if err != nil {
		return nil, storeError(ctx, "rename link", err)
	}
	return &link, nil
}

// Delete removes a link together with its visits.
func (s *LinkStore) Delete(ctx context.Context, code string, actor *Actor) error {
	if err := s.gate.RequireAuthenticated(actor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link models.Link
		if err := findByCode(tx, code, true, &link); err != nil {
			return err
		}
		if err := s.gate.RequireManage(&link, actor); err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", link.ID).Delete(&models.Visit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Link{}, link.ID).Error
	})
	return storeError(ctx, "delete link", err)
}

// claimAlias applies claim for a caller chosen code, reporting a taken code
// as ErrAliasConflict.
func (s *LinkStore) claimAlias(tx *gorm.DB, alias string, claim func(*gorm.DB, string) error) error {
	taken, err := codeTaken(tx, alias)
	if err != nil {
		return err
	}
	if taken {
		return ErrAliasConflict
	}
	err = tx.Transaction(func(sp *gorm.DB) error { return claim(sp, alias) })
	if isDuplicateKey(err) {
		return ErrAliasConflict
	}
	return err
}

// allocate draws generated codes until claim succeeds on one nobody holds.
// Each claim runs under a savepoint so a unique violation from a concurrent
// writer leaves the outer transaction usable for the next attempt.
func (s *LinkStore) allocate(tx *gorm.DB, claim func(*gorm.DB, string) error) (string, error) {
	for i := 0; i < s.attempts; i++ {
		code, err := s.gen.Generate()
		if err != nil {
			return "", err
		}
		taken, err := codeTaken(tx, code)
		if err != nil {
			return "", err
		}
		if taken {
			slog.Debug("short code collision", "attempt", i+1, "code", code)
			continue
		}
		err = tx.Transaction(func(sp *gorm.DB) error { return claim(sp, code) })
		if err == nil {
			return code, nil
		}
		if !isDuplicateKey(err) {
			return "", err
		}
		slog.Debug("short code taken concurrently", "attempt", i+1, "code", code)
	}
	return "", ErrGenerationExhausted
}

func codeTaken(tx *gorm.DB, code string) (bool, error) {
	var n int64
	err := tx.Model(&models.Link{}).Where("short_code = ?", code).Count(&n).Error
	return n > 0, err
}

func findByCode(tx *gorm.DB, code string, forUpdate bool, link *models.Link) error {
	q := tx.Where("short_code = ?", code)
	if forUpdate && tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
