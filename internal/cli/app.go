package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/cloudsync"
	"github.com/dmitrijs2005/brewlog/internal/logging"
	"github.com/dmitrijs2005/brewlog/internal/services"
	"github.com/dmitrijs2005/brewlog/internal/storage"
)

// SyncEngine is the part of cloudsync.Engine the CLI drives.
type SyncEngine interface {
	Sync(ctx context.Context) cloudsync.Result
	Status() cloudsync.Status
	StartAutoSync(ctx context.Context, interval time.Duration)
	StopAutoSync()
	AutoSyncRunning() bool
	ResetWatermark(ctx context.Context) error
}

// StorageManager is the part of storage.Adapter the CLI drives.
type StorageManager interface {
	Tier() storage.Tier
	DirectoryName() string
	UsingDirectory() bool
	SwitchToDirectory(ctx context.Context, path string) error
	ResetDirectory(ctx context.Context) error
	Backup(ctx context.Context, dst storage.Backend) (int, error)
	Restore(ctx context.Context, src storage.Backend) (int, error)
}

// Deps are the collaborators of an App. Snapshot may be nil when no S3
// bucket is configured.
type Deps struct {
	Storage          StorageManager
	Journal          services.JournalService
	Bars             services.BarService
	Auth             services.AuthService
	Engine           SyncEngine
	Snapshot         storage.Backend
	AutoSyncInterval time.Duration
	Logger           logging.Logger
	In               io.Reader
	Out              io.Writer
}

// App is the interactive journal client: it owns the REPL and drives the
// local services, the storage adapter and the sync engine.
type App struct {
	storage          StorageManager
	journal          services.JournalService
	bars             services.BarService
	auth             services.AuthService
	engine           SyncEngine
	snapshot         storage.Backend
	autoSyncInterval time.Duration
	log              logging.Logger

	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds an App from its dependencies. Nil In/Out default to
// stdin/stdout and a nil Logger discards output.
func NewApp(d Deps) *App {
	a := &App{
		storage:          d.Storage,
		journal:          d.Journal,
		bars:             d.Bars,
		auth:             d.Auth,
		engine:           d.Engine,
		snapshot:         d.Snapshot,
		autoSyncInterval: d.AutoSyncInterval,
		log:              d.Logger,
		in:               d.In,
		out:              d.Out,
	}
	if a.log == nil {
		a.log = logging.Discard()
	}
	if a.in == nil {
		a.in = os.Stdin
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	a.reader = bufio.NewReader(a.in)
	return a
}

func (a *App) isLoggedIn() bool {
	return a.auth != nil && a.auth.Email() != ""
}

func (a *App) getStatus() string {
	s := string(a.storage.Tier())
	if email := a.auth.Email(); email != "" {
		s = email + " " + s
	}
	if a.engine.Status().InProgress {
		s += " syncing"
	}
	return fmt.Sprintf("(%s)", s)
}

// Run restores a saved session, starts auto sync when signed in, and runs
// the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.engine.StopAutoSync()

	printlnFn("Welcome to brewlog (type 'help' for commands)")

	if err := a.auth.Restore(ctx); err == nil {
		printlnFn("Signed in as", a.auth.Email())
		a.engine.StartAutoSync(ctx, a.autoSyncInterval)
	} else {
		a.log.Debug(ctx, "no session restored", "error", err)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(&lineReader{r: a.reader}))
}

func (a *App) fail(ctx context.Context, msg string, err error) error {
	a.log.Error(ctx, msg, "error", err)
	printlnFn(fmt.Sprintf("%s: %v", msg, err))
	return err
}
