package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/brewlog/internal/cloudsync"
)

// Sync runs one reconciliation with the cloud and reports the counts.
func (a *App) Sync(ctx context.Context) error {
	res := a.engine.Sync(ctx)
	printResult(res)
	if !res.Success {
		return errors.New(res.Error)
	}
	return nil
}

func printResult(res cloudsync.Result) {
	if !res.Success {
		printlnFn("Sync failed:", res.Error)
		return
	}
	printlnFn(fmt.Sprintf("Sync complete: pulled %d entries, %d bars; pushed %d entries, %d bars; %d conflicts",
		res.PulledEntries, res.PulledBars, res.PushedEntries, res.PushedBars, res.Conflicts))
}

// Status prints the sync and storage state.
func (a *App) Status(ctx context.Context) error {
	st := a.engine.Status()

	last := "never"
	if st.LastSync != nil {
		last = st.LastSync.Local().Format("2006-01-02 15:04:05")
	}
	account := a.auth.Email()
	if account == "" {
		account = "not signed in"
	}
	auto := "off"
	if a.engine.AutoSyncRunning() {
		auto = "on"
	}

	printlnFn("Account:        ", account)
	printlnFn("Storage:        ", a.storage.Tier())
	printlnFn("Last sync:      ", last)
	printlnFn("Pending changes:", st.PendingChanges)
	printlnFn("Auto sync:      ", auto)
	if st.InProgress {
		printlnFn("Sync in progress")
	}
	if st.LastError != "" {
		printlnFn("Last error:     ", st.LastError)
	}
	return nil
}

// AutoSync turns the periodic sync on or off.
func (a *App) AutoSync(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: autosync on|off")
		return nil
	}
	switch args[0] {
	case "on":
		if !a.isLoggedIn() {
			printlnFn("Log in first")
			return nil
		}
		a.engine.StartAutoSync(ctx, a.autoSyncInterval)
		printlnFn("Auto sync on")
	case "off":
		a.engine.StopAutoSync()
		printlnFn("Auto sync off")
	default:
		printlnFn("Usage: autosync on|off")
	}
	return nil
}
