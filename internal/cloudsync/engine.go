package cloudsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/logging"
	"github.com/dmitrijs2005/brewlog/internal/models"
	"github.com/dmitrijs2005/brewlog/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Logger    logging.Logger
	Scheduler Scheduler
	Now       func() time.Time
	// OnAutoSync receives the result of every timer-driven run.
	OnAutoSync func(Result)
}

// Engine owns the sync status and runs reconciliations between a local
// store and a Remote.
type Engine struct {
	local  storage.Store
	remote Remote
	log    logging.Logger
	now    func() time.Time

	mu     sync.Mutex
	status Status

	sched      Scheduler
	onAutoSync func(Result)
	autoMu     sync.Mutex
	auto       *autoSync
}

// New creates an engine. remote may be nil when no cloud is configured;
// every run then reports ReasonNotAuthenticated.
func New(local storage.Store, remote Remote, opts Options) *Engine {
	e := &Engine{
		local:      local,
		remote:     remote,
		log:        opts.Logger,
		now:        opts.Now,
		sched:      opts.Scheduler,
		onAutoSync: opts.OnAutoSync,
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.sched == nil {
		e.sched = realScheduler{}
	}
	return e
}

// Initialize loads the persisted watermark and counts pending changes.
func (e *Engine) Initialize(ctx context.Context) error {
	last, err := storage.LoadLastSync(ctx, e.local)
	if err != nil {
		return fmt.Errorf("load last sync: %w", err)
	}
	pending, err := e.PendingChanges(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.status.LastSync = last
	e.status.PendingChanges = pending
	e.mu.Unlock()
	return nil
}

// ResetWatermark forgets the last successful sync so the next run pulls every
// remote record again. Call it after local data was replaced wholesale, e.g.
// by a restore from backup; last-write-wins then brings back newer remote
// versions. It fails with ErrInProgress while a run is in flight.
func (e *Engine) ResetWatermark(ctx context.Context) error {
	e.mu.Lock()
	if e.status.InProgress {
		e.mu.Unlock()
		return ErrInProgress
	}
	err := e.local.Delete(ctx, storage.KeyLastSync)
	if err == nil {
		e.status.LastSync = nil
	}
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("reset last sync: %w", err)
	}

	pending, err := e.PendingChanges(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.status.PendingChanges = pending
	e.mu.Unlock()
	e.log.Info(ctx, "sync watermark reset", "pending_changes", pending)
	return nil
}

// Status returns a copy of the current status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status.clone()
}

// PendingChanges counts dirty local records of both kinds.
func (e *Engine) PendingChanges(ctx context.Context) (int, error) {
	entries, err := countDirty[models.JournalEntry](ctx, e.local, storage.KeyJournalEntries)
	if err != nil {
		return 0, err
	}
	bars, err := countDirty[models.Bar](ctx, e.local, storage.KeyBars)
	if err != nil {
		return 0, err
	}
	return entries + bars, nil
}

func (e *Engine) authenticated() bool {
	return e.remote != nil && e.remote.IsConfigured() && e.remote.IsAuthenticated()
}

// Sync performs one full reconciliation. It refuses to run without an
// authenticated remote or while another run is in flight.
func (e *Engine) Sync(ctx context.Context) (res Result) {
	if !e.authenticated() {
		return Result{Error: ReasonNotAuthenticated}
	}

	e.mu.Lock()
	if e.status.InProgress {
		e.mu.Unlock()
		return Result{Error: ReasonInProgress}
	}
	e.status.InProgress = true
	e.status.LastError = ""
	since := time.Unix(0, 0).UTC()
	if e.status.LastSync != nil {
		since = *e.status.LastSync
	}
	e.mu.Unlock()

	started := e.now().UTC()
	e.log.Info(ctx, "sync started", "since", since)

	defer func() {
		if p := recover(); p != nil {
			res.Success = false
			res.Error = fmt.Sprint(p)
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		e.status.InProgress = false
		if res.Error != "" {
			e.status.LastError = res.Error
			e.log.Error(ctx, "sync failed", "error", res.Error)
			return
		}
		e.status.LastSync = &started
		e.log.Info(ctx, "sync completed",
			"pulled_entries", res.PulledEntries,
			"pulled_bars", res.PulledBars,
			"pushed_entries", res.PushedEntries,
			"pushed_bars", res.PushedBars,
			"conflicts", res.Conflicts,
		)
	}()

	if err := e.run(ctx, since, started, &res); err != nil {
		res.Success = false
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

func (e *Engine) run(ctx context.Context, since, started time.Time, res *Result) error {
	var (
		g                            errgroup.Group
		entryConflicts, barConflicts int
	)

	g.Go(recovered(func() error {
		var err error
		res.PulledEntries, entryConflicts, err = pull[models.JournalEntry](ctx, e.local, storage.KeyJournalEntries, since, e.remote.GetUpdatedJournalEntries)
		return err
	}))
	g.Go(recovered(func() error {
		var err error
		res.PulledBars, barConflicts, err = pull[models.Bar](ctx, e.local, storage.KeyBars, since, e.remote.GetUpdatedBars)
		return err
	}))
	err := g.Wait()
	res.Conflicts = entryConflicts + barConflicts
	if err != nil {
		return err
	}

	if res.PushedEntries, err = push[models.JournalEntry](ctx, e.local, storage.KeyJournalEntries, e.remote.UpsertJournalEntries); err != nil {
		return err
	}
	if res.PushedBars, err = push[models.Bar](ctx, e.local, storage.KeyBars, e.remote.UpsertBars); err != nil {
		return err
	}

	if err := storage.SaveLastSync(ctx, e.local, started); err != nil {
		return fmt.Errorf("save last sync: %w", err)
	}

	pending, err := e.PendingChanges(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.status.PendingChanges = pending
	e.mu.Unlock()
	return nil
}

// recovered turns a panic in fn into an error, so a failing pull goroutine
// ends the run like any other error instead of crashing the process.
func recovered(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return fn()
	}
}
