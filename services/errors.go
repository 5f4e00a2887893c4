package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidAlias        = errors.New("invalid alias")
	ErrInvalidDate         = errors.New("invalid date")
	ErrAliasConflict       = errors.New("alias already exists")
	ErrNotFound            = errors.New("link not found")
	ErrExpired             = errors.New("link expired")
	ErrUnauthorized        = errors.New("not authenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrNoResults           = errors.New("no results")
	ErrGenerationExhausted = errors.New("could not allocate a unique short code")
	ErrTransient           = errors.New("store unavailable")
)

var kinds = []error{
	ErrInvalidURL,
	ErrInvalidAlias,
	ErrInvalidDate,
	ErrAliasConflict,
	ErrNotFound,
	ErrExpired,
	ErrUnauthorized,
	ErrForbidden,
	ErrNoResults,
	ErrGenerationExhausted,
	ErrTransient,
}

// Kind returns the taxonomy sentinel err belongs to. Errors outside the
// taxonomy are reported as ErrTransient.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrTransient
}

// storeError logs a persistence failure for op and wraps it as transient.
// Taxonomy errors raised inside a transaction pass through untouched.
func storeError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return err
		}
	}
	slog.ErrorContext(ctx, "store operation failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %v", ErrTransient, op, err)
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
