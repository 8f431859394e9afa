// Package cardcache keeps Scryfall name lookups in SQLite so repeated
// hydration of the same cards does not reach the network.
package cardcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mightstone-backend/internal/components/assert"
	"mightstone-backend/internal/components/chrono"
	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/internal/scrapers/scryfall"

	_ "modernc.org/sqlite"
)

const (
	report_store_read  = "store.read"
	report_store_write = "store.write"
	report_store_purge = "store.purge"
	report_store_hit   = "store.hit"
)

const DefaultTTL = 7 * 24 * time.Hour

// Open opens (or creates) the SQLite database at path and applies the
// schema, ":memory:" gives a private in-memory database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cardcache: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cardcache: apply schema: %w", err)
	}
	return db, nil
}

type Store struct {
	qry  *Queries
	ttl  time.Duration
	time chrono.TimeAPI
	tel  telemetry.API
}

func NewStore(db *sql.DB, ttl time.Duration, time chrono.TimeAPI, tel telemetry.API) *Store {
	assert.NotNil(db)
	assert.NotNil(time)
	assert.NotNil(tel)
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		qry:  NewQueries(db),
		ttl:  ttl,
		time: time,
		tel:  telemetry.NewScopedAPI("cardcache", tel),
	}
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the cached card for name unless it is older than the TTL.
func (s *Store) Get(ctx context.Context, name string) (scryfall.Card, bool) {
	row, err := s.qry.GetCardLookup(ctx, cacheKey(name))
	if errors.Is(err, sql.ErrNoRows) {
		return scryfall.Card{}, false
	}
	if err != nil {
		s.tel.ReportWarning(report_store_read, name, err)
		return scryfall.Card{}, false
	}
	if s.time.Now().Sub(time.Unix(row.FetchedAt, 0)) > s.ttl {
		return scryfall.Card{}, false
	}

	var card scryfall.Card
	if err := json.Unmarshal([]byte(row.CardJson), &card); err != nil {
		s.tel.ReportWarning(report_store_read, name, err)
		return scryfall.Card{}, false
	}
	return card, true
}

func (s *Store) Put(ctx context.Context, name string, card scryfall.Card) error {
	encoded, err := json.Marshal(card)
	if err != nil {
		return err
	}
	return s.qry.PutCardLookup(ctx, CardLookup{
		Name:      cacheKey(name),
		CardID:    card.ID,
		CardJson:  string(encoded),
		FetchedAt: s.time.Now().Unix(),
	})
}

// Purge deletes every entry older than the TTL.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	before := s.time.Now().Add(-s.ttl).Unix()
	count, err := s.qry.DeleteCardLookupsBefore(ctx, before)
	if err != nil {
		s.tel.ReportBroken(report_store_purge, err)
		return 0, err
	}
	s.tel.ReportCount(report_store_purge, count)
	return count, nil
}

// SchedulePurge runs Purge on the given cron schedule.
func (s *Store) SchedulePurge(cron chrono.CronAPI, schedule string) error {
	return cron.Cron(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = s.Purge(ctx)
	})
}

// Lookup is the exact name lookup being cached.
type Lookup interface {
	Named(ctx context.Context, name string) (scryfall.Card, error)
}

// CachedLookup answers from the store and falls back to inner, storing
// successful answers. Failures are never cached.
type CachedLookup struct {
	store *Store
	inner Lookup
}

func NewCachedLookup(store *Store, inner Lookup) CachedLookup {
	assert.NotNil(store)
	assert.NotNil(inner)
	return CachedLookup{store: store, inner: inner}
}

func (c CachedLookup) Named(ctx context.Context, name string) (scryfall.Card, error) {
	if card, ok := c.store.Get(ctx, name); ok {
		c.store.tel.ReportCount(report_store_hit, 1)
		return card, nil
	}
	card, err := c.inner.Named(ctx, name)
	if err != nil {
		return scryfall.Card{}, err
	}
	if err := c.store.Put(ctx, name, card); err != nil {
		c.store.tel.ReportWarning(report_store_write, name, err)
	}
	return card, nil
}
