// Package cache memoizes read-only responses for a short time. Backends only
// move bytes; Cached does the JSON encoding and decides what gets stored.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"link_shortener/metrics"
)

var ErrMiss = errors.New("cache miss")

//go:generate mockgen -destination=mocks/backend.go -package=mocks link_shortener/cache Backend

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached returns the value stored under key, or runs compute and stores its
// result for ttl. Errors from compute are returned as is and never stored.
// A failing backend degrades to calling compute directly. A nil backend or
// a non-positive ttl disables caching.
func Cached[T any](ctx context.Context, b Backend, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if b == nil || ttl <= 0 {
		return compute(ctx)
	}

	data, err := b.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		jsonErr := json.Unmarshal(data, &v)
		if jsonErr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return v, nil
		}
		slog.WarnContext(ctx, "dropping undecodable cache entry", "key", key, "error", jsonErr)
		metrics.CacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, ErrMiss):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		slog.WarnContext(ctx, "cache get failed", "key", key, "error", err)
		metrics.CacheLookups.WithLabelValues("error").Inc()
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	data, err = json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return v, nil
	}
	if err := b.Set(ctx, key, data, ttl); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
	return v, nil
}

// Key identifies a request: method, path, query parameters in sorted order
// and the acting user, empty for anonymous callers.
func Key(method, path string, query url.Values, actor string) string {
	var b strings.Builder
	b.WriteString("resp:")
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(path)
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	b.WriteString("|actor=")
	b.WriteString(actor)
	return b.String()
}
