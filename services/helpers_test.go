package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"link_shortener/database"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedGenerator hands out codes in order, repeating the last one.
type scriptedGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (g *scriptedGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	if i >= len(g.codes) {
		i = len(g.codes) - 1
	}
	g.calls++
	return g.codes[i], nil
}

var epoch = time.Date(2030, 6, 15, 12, 30, 45, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestShortener(t *testing.T, opts Options) (*Shortener, *fakeClock, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	clock := newClock(epoch)
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	return NewShortener(db, opts), clock, db
}

func newActor() *Actor {
	return &Actor{ID: uuid.New()}
}
