package cloudsync

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/models"
	"github.com/dmitrijs2005/brewlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *memStore, *fakeRemote, *fakeClock) {
	t.Helper()
	clock := newClock(at(1000))
	local := newMemStore()
	remote := newFakeRemote(clock.Now)
	e := New(local, remote, Options{Now: clock.Now})
	return e, local, remote, clock
}

func entry(id string, updated int, synced *time.Time) models.JournalEntry {
	return models.JournalEntry{
		SyncMeta: models.SyncMeta{ID: id, CreatedAt: at(0), UpdatedAt: at(updated), SyncedAt: synced},
		BeerName: "beer " + id,
		Rating:   4,
	}
}

func bar(id string, updated int, synced *time.Time) models.Bar {
	return models.Bar{
		SyncMeta: models.SyncMeta{ID: id, CreatedAt: at(0), UpdatedAt: at(updated), SyncedAt: synced},
		Name:     "bar " + id,
	}
}

func TestSync_NotAuthenticated(t *testing.T) {
	local := newMemStore()

	res := New(local, nil, Options{}).Sync(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, ReasonNotAuthenticated, res.Error)

	remote := newFakeRemote(time.Now)
	remote.authed = false
	e := New(local, remote, Options{})
	res = e.Sync(context.Background())
	assert.Equal(t, ReasonNotAuthenticated, res.Error)
	assert.Equal(t, 0, remote.fetches)
	assert.False(t, e.Status().InProgress)

	remote.configured = false
	remote.authed = true
	assert.Equal(t, ReasonNotAuthenticated, e.Sync(context.Background()).Error)
}

func TestSync_CleanRecordAndNothingRemote(t *testing.T) {
	e, local, _, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyBars, bar("b1", 100, ptr(at(100))))

	res := e.Sync(context.Background())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0, res.Pulled())
	assert.Equal(t, 0, res.Pushed())
}

func TestSync_PushesNeverSyncedRecord(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyBars, bar("b1", 100, nil))

	res := e.Sync(context.Background())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0, res.Pulled())
	assert.Equal(t, 1, res.PushedBars)
	require.Len(t, remote.barBatches, 1)
	require.Len(t, remote.barBatches[0], 1)
	assert.Equal(t, "b1", remote.barBatches[0][0].ID)

	got := loadLocal[models.Bar](t, local, storage.KeyBars)
	require.Len(t, got, 1)
	assert.False(t, got[0].Dirty())
}

func TestSync_RemoteNewerReplacesLocal(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyJournalEntries, entry("j1", 50, ptr(at(50))))
	newer := entry("j1", 200, nil)
	newer.BeerName = "Heady Topper"
	newer.Notes = "from phone"
	remote.putEntry(newer, at(500))

	res := e.Sync(context.Background())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.PulledEntries)
	assert.Equal(t, 0, res.Conflicts)

	got := loadLocal[models.JournalEntry](t, local, storage.KeyJournalEntries)
	require.Len(t, got, 1)
	assert.True(t, got[0].UpdatedAt.Equal(at(200)))
	assert.Equal(t, "Heady Topper", got[0].BeerName)
	assert.Equal(t, "from phone", got[0].Notes)
	assert.False(t, got[0].Dirty())
	assert.Equal(t, 0, res.PushedEntries)
}

func TestSync_LocalNewerOrTieIsKept(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	newerLocal := entry("j1", 300, nil)
	newerLocal.Notes = "local edit"
	tie := entry("j2", 100, ptr(at(100)))
	tie.Notes = "local tie"
	seedLocal(t, local, storage.KeyJournalEntries, newerLocal, tie)

	stale := entry("j1", 200, nil)
	stale.Notes = "stale remote"
	remote.putEntry(stale, at(500))
	sameTime := entry("j2", 100, nil)
	sameTime.Notes = "remote tie"
	remote.putEntry(sameTime, at(500))

	res := e.Sync(context.Background())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0, res.PulledEntries)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 1, res.PushedEntries)

	got := loadLocal[models.JournalEntry](t, local, storage.KeyJournalEntries)
	require.Len(t, got, 2)
	assert.Equal(t, "local edit", got[0].Notes)
	assert.Equal(t, "local tie", got[1].Notes)
	assert.Equal(t, "local edit", remote.entries["j1"].Notes)
}

func TestSync_IsIdempotent(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyJournalEntries, entry("j1", 10, nil), entry("j2", 20, nil))
	seedLocal(t, local, storage.KeyBars, bar("b1", 30, nil))
	remote.putBar(bar("b2", 40, nil), at(900))

	first := e.Sync(context.Background())
	require.True(t, first.Success, first.Error)
	assert.Equal(t, 1, first.PulledBars)
	assert.Equal(t, 2, first.PushedEntries)
	assert.Equal(t, 1, first.PushedBars)

	second := e.Sync(context.Background())
	require.True(t, second.Success, second.Error)
	assert.Equal(t, 0, second.Pulled())
	assert.Equal(t, 0, second.Pushed())
	assert.Equal(t, 0, second.Conflicts)
	assert.Equal(t, 0, e.Status().PendingChanges)
}

func TestSync_PushSendsEditMadeAfterPull(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyJournalEntries, entry("j1", 10, ptr(at(10))))
	remote.putEntry(entry("j2", 20, nil), at(500))

	edited := false
	local.afterWrite = func(key string) {
		if key != storage.KeyJournalEntries || edited {
			return
		}
		edited = true
		items := loadLocal[models.JournalEntry](t, local, key)
		items[0].Notes = "edited between pull and push"
		items[0].Touch(at(2000))
		seedLocal(t, local, key, items...)
	}

	res := e.Sync(context.Background())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.PulledEntries)
	require.Equal(t, 1, res.PushedEntries)
	require.Len(t, remote.entryBatches, 1)
	assert.Equal(t, "j1", remote.entryBatches[0][0].ID)
	assert.Equal(t, "edited between pull and push", remote.entryBatches[0][0].Notes)
}

func TestSync_EditDuringUpsertStaysDirty(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyJournalEntries, entry("j1", 10, nil), entry("j2", 20, nil))

	remote.onUpsert = func() {
		items := loadLocal[models.JournalEntry](t, local, storage.KeyJournalEntries)
		items[1].Touch(at(5000))
		seedLocal(t, local, storage.KeyJournalEntries, items...)
	}

	res := e.Sync(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.PushedEntries)

	got := loadLocal[models.JournalEntry](t, local, storage.KeyJournalEntries)
	assert.False(t, got[0].Dirty())
	assert.True(t, got[1].Dirty())
	assert.Equal(t, 1, e.Status().PendingChanges)
}

func TestSync_ReentrantCallIsRefused(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyJournalEntries, entry("j1", 10, nil))

	entered := make(chan struct{})
	release := make(chan struct{})
	remote.onFetchEntries = func() {
		close(entered)
		<-release
	}

	done := make(chan Result)
	go func() { done <- e.Sync(context.Background()) }()
	<-entered

	assert.True(t, e.Status().InProgress)
	writesBefore := local.writeCount(storage.KeyJournalEntries)

	res := e.Sync(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, ReasonInProgress, res.Error)
	assert.Equal(t, writesBefore, local.writeCount(storage.KeyJournalEntries))

	close(release)
	first := <-done
	require.True(t, first.Success, first.Error)
	assert.False(t, e.Status().InProgress)
}

func TestSync_RemoteFailureIsReported(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyJournalEntries, entry("j1", 10, nil))
	remote.putBar(bar("b1", 20, nil), at(500))
	remote.fetchEntriesErr = errNetwork

	res := e.Sync(context.Background())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, errNetwork.Error())
	st := e.Status()
	assert.False(t, st.InProgress)
	assert.Equal(t, res.Error, st.LastError)
	assert.Nil(t, st.LastSync)
	assert.Empty(t, remote.entryBatches)

	// the bar side was merged before the failure surfaced
	assert.Len(t, loadLocal[models.Bar](t, local, storage.KeyBars), 1)

	last, err := storage.LoadLastSync(context.Background(), local)
	require.NoError(t, err)
	assert.Nil(t, last)

	remote.fetchEntriesErr = nil
	res = e.Sync(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Empty(t, e.Status().LastError)
}

func TestSync_PushFailureKeepsRecordsDirty(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyBars, bar("b1", 10, nil))
	remote.upsertErr = errNetwork

	res := e.Sync(context.Background())

	assert.False(t, res.Success)
	got := loadLocal[models.Bar](t, local, storage.KeyBars)
	assert.True(t, got[0].Dirty())
}

func TestSync_LocalWriteFailureIsReported(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	remote.putEntry(entry("j1", 10, nil), at(500))
	local.failWrite = storage.ErrBackendFailure

	res := e.Sync(context.Background())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, storage.ErrBackendFailure.Error())
	assert.False(t, e.Status().InProgress)
}

func TestSync_DeletedRecordIsPushed(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	gone := entry("j1", 10, ptr(at(5)))
	gone.Deleted = true
	seedLocal(t, local, storage.KeyJournalEntries, gone)

	res := e.Sync(context.Background())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.PushedEntries)
	assert.True(t, remote.entries["j1"].Deleted)
}

func TestSync_PersistsWatermarkAndInitializeLoadsIt(t *testing.T) {
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyBars, bar("b1", 10, nil))

	require.True(t, e.Sync(context.Background()).Success)
	st := e.Status()
	require.NotNil(t, st.LastSync)

	persisted, err := storage.LoadLastSync(context.Background(), local)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.True(t, persisted.Equal(*st.LastSync))

	restarted := New(local, remote, Options{})
	require.NoError(t, restarted.Initialize(context.Background()))
	got := restarted.Status()
	require.NotNil(t, got.LastSync)
	assert.True(t, got.LastSync.Equal(*st.LastSync))
	assert.Equal(t, 0, got.PendingChanges)
}

func TestInitialize_CountsPendingChanges(t *testing.T) {
	local := newMemStore()
	seedLocal(t, local, storage.KeyJournalEntries, entry("j1", 10, nil), entry("j2", 10, ptr(at(10))))
	seedLocal(t, local, storage.KeyBars, bar("b1", 20, ptr(at(10))))

	e := New(local, nil, Options{})
	require.NoError(t, e.Initialize(context.Background()))

	st := e.Status()
	assert.Nil(t, st.LastSync)
	assert.Equal(t, 2, st.PendingChanges)
}

func TestStatus_ReturnsCopy(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	require.True(t, e.Sync(context.Background()).Success)

	st := e.Status()
	require.NotNil(t, st.LastSync)
	orig := *st.LastSync
	*st.LastSync = time.Time{}
	st.LastError = "mutated"

	again := e.Status()
	assert.True(t, again.LastSync.Equal(orig))
	assert.Empty(t, again.LastError)
}

func TestSync_SinceUsesWatermark(t *testing.T) {
	e, local, remote, clock := newTestEngine(t)
	require.True(t, e.Sync(context.Background()).Success)

	// pushed by another device before our watermark: not fetched again
	remote.putEntry(entry("old", 10, nil), at(0))
	// pushed after the watermark
	remote.putEntry(entry("new", 20, nil), clock.Now().Add(time.Minute))

	res := e.Sync(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.PulledEntries)

	got := loadLocal[models.JournalEntry](t, local, storage.KeyJournalEntries)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestSync_RestoreThenResetWatermarkPullsNewerRemote(t *testing.T) {
	ctx := context.Background()
	e, local, remote, _ := newTestEngine(t)
	seedLocal(t, local, storage.KeyJournalEntries, entry("j1", 10, nil))
	require.True(t, e.Sync(ctx).Success)

	backup, err := local.Read(ctx, storage.KeyJournalEntries)
	require.NoError(t, err)

	edited := loadLocal[models.JournalEntry](t, local, storage.KeyJournalEntries)
	edited[0].Notes = "newer edit"
	edited[0].UpdatedAt = at(5000)
	seedLocal(t, local, storage.KeyJournalEntries, edited...)
	require.Equal(t, 1, e.Sync(ctx).PushedEntries)
	require.True(t, e.Sync(ctx).Success)

	require.NoError(t, local.Write(ctx, storage.KeyJournalEntries, backup))

	// The watermark still points past the newer remote version.
	res := e.Sync(ctx)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0, res.Pulled())
	assert.Equal(t, 0, res.Pushed())

	require.NoError(t, e.ResetWatermark(ctx))
	assert.Nil(t, e.Status().LastSync)
	_, stored := local.data[storage.KeyLastSync]
	assert.False(t, stored)

	res = e.Sync(ctx)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.PulledEntries)
	assert.Equal(t, 0, res.Pushed())

	got := loadLocal[models.JournalEntry](t, local, storage.KeyJournalEntries)
	require.Len(t, got, 1)
	assert.Equal(t, "newer edit", got[0].Notes)
	assert.True(t, got[0].UpdatedAt.Equal(at(5000)))
	assert.False(t, got[0].Dirty())
	assert.Equal(t, "newer edit", remote.entries["j1"].Notes)
}

func TestResetWatermark_RefusedWhileSyncing(t *testing.T) {
	e, local, _, _ := newTestEngine(t)
	require.NoError(t, storage.SaveLastSync(context.Background(), local, at(100)))
	require.NoError(t, e.Initialize(context.Background()))

	e.mu.Lock()
	e.status.InProgress = true
	e.mu.Unlock()

	assert.ErrorIs(t, e.ResetWatermark(context.Background()), ErrInProgress)
	require.NotNil(t, e.Status().LastSync)
	assert.True(t, e.Status().LastSync.Equal(at(100)))
}

func TestSync_PanicInPullIsReported(t *testing.T) {
	e, _, remote, _ := newTestEngine(t)
	remote.onFetchEntries = func() { panic("decoder blew up") }

	res := e.Sync(context.Background())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "decoder blew up")
	st := e.Status()
	assert.False(t, st.InProgress)
	assert.Contains(t, st.LastError, "decoder blew up")
}
