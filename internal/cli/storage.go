package cli

import (
	"context"
	"errors"
	"fmt"
)

var errNoSnapshot = errors.New("no S3 bucket configured")

// Storage prints the active storage tier.
func (a *App) Storage(ctx context.Context) error {
	if a.storage.UsingDirectory() {
		printlnFn("Storage: directory", a.storage.DirectoryName())
		return nil
	}
	printlnFn("Storage:", a.storage.Tier())
	return nil
}

// UseDir moves the data into a directory, or with "reset" back to the
// default tier.
func (a *App) UseDir(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: usedir <path>|reset")
		return nil
	}

	if args[0] == "reset" {
		if err := a.storage.ResetDirectory(ctx); err != nil {
			return a.fail(ctx, "error resetting storage", err)
		}
		printlnFn("Storage:", a.storage.Tier())
		return nil
	}

	if err := a.storage.SwitchToDirectory(ctx, args[0]); err != nil {
		return a.fail(ctx, "error switching storage", err)
	}
	printlnFn("Storage: directory", a.storage.DirectoryName())
	return nil
}

// Backup copies local data to the S3 snapshot.
func (a *App) Backup(ctx context.Context) error {
	if a.snapshot == nil {
		return a.fail(ctx, "backup unavailable", errNoSnapshot)
	}
	n, err := a.storage.Backup(ctx, a.snapshot)
	if err != nil {
		return a.fail(ctx, "backup error", err)
	}
	printlnFn(fmt.Sprintf("Backed up %d keys", n))
	return nil
}

// Restore replaces local data with the S3 snapshot. The sync watermark is
// reset afterwards so the next sync re-pulls newer cloud versions.
func (a *App) Restore(ctx context.Context) error {
	if a.snapshot == nil {
		return a.fail(ctx, "restore unavailable", errNoSnapshot)
	}
	n, err := a.storage.Restore(ctx, a.snapshot)
	if err != nil {
		return a.fail(ctx, "restore error", err)
	}
	if err := a.engine.ResetWatermark(ctx); err != nil {
		return a.fail(ctx, "error resetting sync state", err)
	}
	printlnFn(fmt.Sprintf("Restored %d keys", n))
	return nil
}
