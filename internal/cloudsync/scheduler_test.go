package cloudsync

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAutoEngine(t *testing.T) (*Engine, *fakeRemote, *manualScheduler, chan Result) {
	t.Helper()
	clock := newClock(at(1000))
	local := newMemStore()
	seedLocal(t, local, storage.KeyBars, bar("b1", 10, nil))
	remote := newFakeRemote(clock.Now)
	sched := &manualScheduler{}
	results := make(chan Result, 4)
	e := New(local, remote, Options{
		Now:        clock.Now,
		Scheduler:  sched,
		OnAutoSync: func(r Result) { results <- r },
	})
	t.Cleanup(e.StopAutoSync)
	return e, remote, sched, results
}

func waitResult(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("auto sync did not run")
		return Result{}
	}
}

func TestStartAutoSync_DefaultInterval(t *testing.T) {
	e, _, sched, _ := newAutoEngine(t)

	e.StartAutoSync(context.Background(), 0)
	require.True(t, e.AutoSyncRunning())
	assert.Equal(t, []time.Duration{DefaultAutoSyncInterval}, sched.intervals)

	e.StartAutoSync(context.Background(), time.Minute)
	assert.Equal(t, time.Minute, sched.intervals[1])
	assert.True(t, sched.tickers[0].isStopped(), "previous timer must be replaced")
}

func TestAutoSync_RunsOnTick(t *testing.T) {
	e, remote, sched, results := newAutoEngine(t)
	e.StartAutoSync(context.Background(), time.Minute)

	sched.last().tick()
	res := waitResult(t, results)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.PushedBars)
	remote.mu.Lock()
	assert.Len(t, remote.barBatches, 1)
	remote.mu.Unlock()
}

func TestAutoSync_SkipsTickWhenNotAuthenticated(t *testing.T) {
	e, remote, sched, results := newAutoEngine(t)
	remote.setAuthed(false)
	e.StartAutoSync(context.Background(), time.Minute)

	tk := sched.last()
	tk.tick()
	// the loop is unbuffered, so the second send returns only after the
	// first tick was fully handled
	tk.tick()

	select {
	case r := <-results:
		t.Fatalf("unexpected run: %+v", r)
	default:
	}
	remote.mu.Lock()
	assert.Equal(t, 0, remote.fetches)
	remote.mu.Unlock()

	remote.setAuthed(true)
	tk.tick()
	assert.True(t, waitResult(t, results).Success)
}

func TestStopAutoSync(t *testing.T) {
	e, _, sched, results := newAutoEngine(t)
	e.StartAutoSync(context.Background(), time.Minute)
	tk := sched.last()

	e.StopAutoSync()
	assert.False(t, e.AutoSyncRunning())
	assert.True(t, tk.isStopped())

	select {
	case tk.ch <- t0:
		t.Fatal("stopped loop still receives ticks")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Empty(t, results)

	e.StopAutoSync()
}

func TestAutoSync_EndsWithContext(t *testing.T) {
	e, _, sched, _ := newAutoEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	e.StartAutoSync(ctx, time.Minute)
	tk := sched.last()
	cancel()
	time.Sleep(20 * time.Millisecond)

	select {
	case tk.ch <- t0:
		t.Fatal("loop still running after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}
