package cloudsync

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/common"
	"github.com/dmitrijs2005/brewlog/internal/models"
	"github.com/dmitrijs2005/brewlog/internal/storage"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func ptr(t time.Time) *time.Time { return &t }

// fakeClock advances by one second on every reading.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(start time.Time) *fakeClock { return &fakeClock{t: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// ---- local store ----

type memStore struct {
	mu         sync.Mutex
	data       map[string][]byte
	writes     map[string]int
	failWrite  error
	afterWrite func(key string)
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, writes: map[string]int{}}
}

func (m *memStore) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memStore) Write(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	if m.failWrite != nil {
		m.mu.Unlock()
		return m.failWrite
	}
	m.data[key] = append([]byte(nil), value...)
	m.writes[key]++
	hook := m.afterWrite
	m.mu.Unlock()

	if hook != nil {
		hook(key)
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) writeCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[key]
}

func seedLocal[T any](t *testing.T, s storage.Store, key string, items ...T) {
	t.Helper()
	require.NoError(t, storage.SaveCollection(context.Background(), s, key, items))
}

func loadLocal[T any](t *testing.T, s storage.Store, key string) []T {
	t.Helper()
	items, err := storage.LoadCollection[T](context.Background(), s, key)
	require.NoError(t, err)
	return items
}

// ---- remote ----

// fakeRemote behaves like the cloud service: it stamps SyncedAt with its own
// clock on upsert and filters "changed since" on that stamp.
type fakeRemote struct {
	mu         sync.Mutex
	configured bool
	authed     bool
	clock      func() time.Time

	entries map[string]models.JournalEntry
	bars    map[string]models.Bar

	entryBatches [][]models.JournalEntry
	barBatches   [][]models.Bar
	fetches      int

	fetchEntriesErr error
	fetchBarsErr    error
	upsertErr       error

	onFetchEntries func()
	onUpsert       func()
}

func newFakeRemote(clock func() time.Time) *fakeRemote {
	return &fakeRemote{
		configured: true,
		authed:     true,
		clock:      clock,
		entries:    map[string]models.JournalEntry{},
		bars:       map[string]models.Bar{},
	}
}

func (r *fakeRemote) IsConfigured() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configured
}

func (r *fakeRemote) IsAuthenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authed
}

func (r *fakeRemote) setAuthed(v bool) {
	r.mu.Lock()
	r.authed = v
	r.mu.Unlock()
}

// putEntry stores e as if another device had pushed it at syncedAt.
func (r *fakeRemote) putEntry(e models.JournalEntry, syncedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.SyncedAt = ptr(syncedAt)
	r.entries[e.ID] = e
}

func (r *fakeRemote) putBar(b models.Bar, syncedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.SyncedAt = ptr(syncedAt)
	r.bars[b.ID] = b
}

func (r *fakeRemote) GetUpdatedJournalEntries(_ context.Context, since time.Time) ([]models.JournalEntry, error) {
	r.mu.Lock()
	r.fetches++
	hook := r.onFetchEntries
	err := r.fetchEntriesErr
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range r.entries {
		if e.SyncedAt.After(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SyncedAt.Before(*out[j].SyncedAt) })
	return out, nil
}

func (r *fakeRemote) GetUpdatedBars(_ context.Context, since time.Time) ([]models.Bar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if r.fetchBarsErr != nil {
		return nil, r.fetchBarsErr
	}
	var out []models.Bar
	for _, b := range r.bars {
		if b.SyncedAt.After(since) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SyncedAt.Before(*out[j].SyncedAt) })
	return out, nil
}

func (r *fakeRemote) UpsertJournalEntries(_ context.Context, entries []models.JournalEntry) error {
	r.mu.Lock()
	hook := r.onUpsert
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if !r.authed {
		return common.ErrNotAuthenticated
	}
	r.entryBatches = append(r.entryBatches, append([]models.JournalEntry(nil), entries...))
	now := r.clock()
	for _, e := range entries {
		e.SyncedAt = ptr(now)
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeRemote) UpsertBars(_ context.Context, bars []models.Bar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.barBatches = append(r.barBatches, append([]models.Bar(nil), bars...))
	now := r.clock()
	for _, b := range bars {
		b.SyncedAt = ptr(now)
		r.bars[b.ID] = b
	}
	return nil
}

var errNetwork = errors.New("network unreachable")

// ---- scheduler ----

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

// C returns nil once stopped, so a stopped ticker never fires.
func (m *manualTicker) C() <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	return m.ch
}

func (m *manualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// tick blocks until the auto-sync loop has received the tick.
func (m *manualTicker) tick() { m.ch <- t0 }

type manualScheduler struct {
	mu        sync.Mutex
	tickers   []*manualTicker
	intervals []time.Duration
}

func (s *manualScheduler) NewTicker(d time.Duration) Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	s.tickers = append(s.tickers, t)
	s.intervals = append(s.intervals, d)
	return t
}

func (s *manualScheduler) last() *manualTicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickers[len(s.tickers)-1]
}
