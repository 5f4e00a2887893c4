package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"link_shortener/codegen"
	"link_shortener/models"
)

func TestCreateGeneratedCode(t *testing.T) {
	s, _, _ := newTestShortener(t, Options{})
	ctx := context.Background()

	link, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://www.google.com"}, nil)
	if err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if !codegen.ValidAlias(link.ShortCode) || len(link.ShortCode) != 8 {
		t.Fatalf("unexpected code %q", link.ShortCode)
	}
	if link.Clicks != 0 || link.LastAccessed != nil || link.OwnerID != nil {
		t.Fatalf("unexpected fresh link: %+v", link)
	}
	want := Truncate(epoch).Add(24 * time.Hour)
	if !link.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", link.ExpiresAt, want)
	}

	got, err := s.Links.FindByCode(ctx, link.ShortCode)
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if got.OriginalURL != "https://www.google.com" {
		t.Fatalf("stored url %q", got.OriginalURL)
	}
}

func TestCreateCustomAliasAndConflict(t *testing.T) {
	s, _, _ := newTestShortener(t, Options{})
	ctx := context.Background()
	owner := newActor()

	link, err := s.Shorten(ctx, CreateParams{
		OriginalURL: "https://www.google.com",
		CustomAlias: "example",
		ExpiresAt:   "2031-04-01 10:00",
	}, owner)
	if err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if link.ShortCode != "example" || link.OwnerID == nil || *link.OwnerID != owner.ID {
		t.Fatalf("unexpected link %+v", link)
	}
	if want := time.Date(2031, 4, 1, 10, 0, 0, 0, time.UTC); !link.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", link.ExpiresAt, want)
	}

	_, err = s.Shorten(ctx, CreateParams{OriginalURL: "https://www.youtube.com", CustomAlias: "example"}, nil)
	if !errors.Is(err, ErrAliasConflict) {
		t.Fatalf("expected ErrAliasConflict, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	s, _, db := newTestShortener(t, Options{})
	ctx := context.Background()

	cases := []struct {
		name string
		p    CreateParams
		want error
	}{
		{"bad url", CreateParams{OriginalURL: "123abc"}, ErrInvalidURL},
		{"ftp url", CreateParams{OriginalURL: "ftp://x.org"}, ErrInvalidURL},
		{"bad alias", CreateParams{OriginalURL: "https://x.org", CustomAlias: "example/*@"}, ErrInvalidAlias},
		{"bad date", CreateParams{OriginalURL: "https://x.org", ExpiresAt: "asdfaf"}, ErrInvalidDate},
		{"day first date", CreateParams{OriginalURL: "https://x.org", ExpiresAt: "01-04-2031"}, ErrInvalidDate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := s.Shorten(ctx, c.p, nil); !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}

	var n int64
	db.Model(&models.Link{}).Count(&n)
	if n != 0 {
		t.Fatalf("validation failures must not persist, found %d links", n)
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	gen := &scriptedGenerator{codes: []string{"taken", "taken", "fresh"}}
	s, _, _ := newTestShortener(t, Options{Generator: gen})
	ctx := context.Background()

	if _, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://a.org", CustomAlias: "taken"}, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	link, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://b.org"}, nil)
	if err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if link.ShortCode != "fresh" {
		t.Fatalf("expected fresh, got %q", link.ShortCode)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 generator calls, got %d", gen.calls)
	}
}

func TestCreateGenerationExhausted(t *testing.T) {
	gen := &scriptedGenerator{codes: []string{"taken"}}
	s, _, _ := newTestShortener(t, Options{Generator: gen, GenerateAttempts: 4})
	ctx := context.Background()

	if _, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://a.org", CustomAlias: "taken"}, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://b.org"}, nil)
	if !errors.Is(err, ErrGenerationExhausted) {
		t.Fatalf("expected ErrGenerationExhausted, got %v", err)
	}
	if gen.calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", gen.calls)
	}
}

func TestConcurrentCreatesGetDistinctCodes(t *testing.T) {
	s, _, _ := newTestShortener(t, Options{})
	ctx := context.Background()

	const n = 25
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			link, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://same.example"}, nil)
			if err != nil {
				t.Errorf("Shorten: %v", err)
				return
			}
			codes <- link.ShortCode
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for c := range codes {
		if seen[c] {
			t.Fatalf("code %q allocated twice", c)
		}
		seen[c] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d links, got %d", n, len(seen))
	}
}

func TestSearchByURL(t *testing.T) {
	s, _, _ := newTestShortener(t, Options{})
	ctx := context.Background()

	a, _ := s.Shorten(ctx, CreateParams{OriginalURL: "https://www.google.com"}, nil)
	b, _ := s.Shorten(ctx, CreateParams{OriginalURL: "https://www.google.com", CustomAlias: "g"}, nil)
	if _, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://www.habr.com"}, nil); err != nil {
		t.Fatalf("Shorten: %v", err)
	}

	links, err := s.Search(ctx, "https://www.google.com")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := map[string]bool{}
	for _, l := range links {
		got[l.ShortCode] = true
	}
	if len(links) != 2 || !got[a.ShortCode] || !got[b.ShortCode] {
		t.Fatalf("unexpected search result %+v", links)
	}

	if _, err := s.Search(ctx, "https://nowhere.example"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestRenameChecks(t *testing.T) {
	s, _, _ := newTestShortener(t, Options{})
	ctx := context.Background()
	owner, other := newActor(), newActor()

	if _, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://x.org", CustomAlias: "example"}, owner); err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if _, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://y.org", CustomAlias: "busy"}, owner); err != nil {
		t.Fatalf("Shorten: %v", err)
	}

	cases := []struct {
		name  string
		code  string
		alias string
		actor *Actor
		want  error
	}{
		{"anonymous", "missing", "new", nil, ErrUnauthorized},
		{"invalid alias", "example", "bad alias", owner, ErrInvalidAlias},
		{"not found", "missing", "new", owner, ErrNotFound},
		{"not found before invalid alias", "missing", "bad alias", owner, ErrNotFound},
		{"other owner", "example", "new", other, ErrForbidden},
		{"other owner before invalid alias", "example", "bad alias", other, ErrForbidden},
		{"conflict", "example", "busy", owner, ErrAliasConflict},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := s.Rename(ctx, c.code, c.alias, c.actor); !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}

	if _, err := s.Links.FindByCode(ctx, "example"); err != nil {
		t.Fatalf("failed renames must leave the link in place: %v", err)
	}
}

func TestRenamePropagatesToVisits(t *testing.T) {
	s, clock, _ := newTestShortener(t, Options{})
	ctx := context.Background()
	owner := newActor()

	if _, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://x.org", CustomAlias: "example"}, owner); err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if _, err := s.Redirect(ctx, "example", nil); err != nil {
		t.Fatalf("Redirect: %v", err)
	}

	clock.Advance(time.Hour)
	link, err := s.Rename(ctx, "example", "", owner)
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if link.ShortCode == "example" || !codegen.ValidAlias(link.ShortCode) {
		t.Fatalf("expected a fresh generated code, got %q", link.ShortCode)
	}
	if !link.CreatedAt.Equal(epoch.Add(time.Hour)) {
		t.Fatalf("created_at not reset: %v", link.CreatedAt)
	}

	if _, err := s.Links.FindByCode(ctx, "example"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old code still resolves: %v", err)
	}
	visits, err := s.Stats.QueriesForCode(ctx, link.ShortCode)
	if err != nil {
		t.Fatalf("QueriesForCode: %v", err)
	}
	if len(visits) != 1 || visits[0].OriginalURL != "https://x.org" {
		t.Fatalf("unexpected visits %+v", visits)
	}
	if _, err := s.Stats.QueriesForCode(ctx, "example"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("visits still filed under old code: %v", err)
	}
}

func TestRenameAnonymousLinkByAnyUser(t *testing.T) {
	s, _, _ := newTestShortener(t, Options{})
	ctx := context.Background()

	if _, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://x.org", CustomAlias: "anon"}, nil); err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	link, err := s.Rename(ctx, "anon", "renamed", newActor())
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if link.ShortCode != "renamed" || link.OwnerID != nil {
		t.Fatalf("unexpected link %+v", link)
	}
}

func TestDelete(t *testing.T) {
	s, _, db := newTestShortener(t, Options{})
	ctx := context.Background()
	owner, other := newActor(), newActor()

	if err := s.Delete(ctx, "missing", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous delete must fail unauthorized first, got %v", err)
	}
	if err := s.Delete(ctx, "missing", owner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.Shorten(ctx, CreateParams{OriginalURL: "https://x.org", CustomAlias: "example"}, owner); err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if _, err := s.Redirect(ctx, "example", other); err != nil {
		t.Fatalf("Redirect: %v", err)
	}
	if err := s.Delete(ctx, "example", other); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := s.Delete(ctx, "example", owner); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.Links.FindByCode(ctx, "example"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("link still present: %v", err)
	}
	var visits int64
	db.Model(&models.Visit{}).Count(&visits)
	if visits != 0 {
		t.Fatalf("visits must be deleted with the link, found %d", visits)
	}
}
