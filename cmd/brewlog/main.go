package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/brewlog/internal/cli"
	"github.com/dmitrijs2005/brewlog/internal/cloud"
	"github.com/dmitrijs2005/brewlog/internal/cloudsync"
	"github.com/dmitrijs2005/brewlog/internal/config"
	"github.com/dmitrijs2005/brewlog/internal/filex"
	"github.com/dmitrijs2005/brewlog/internal/logging"
	"github.com/dmitrijs2005/brewlog/internal/services"
	"github.com/dmitrijs2005/brewlog/internal/storage"
)

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	dataDir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	// the REPL owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(filepath.Join(dataDir, "brewlog.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logger := logging.NewJSONLogger(logFile, logging.ParseLevel(cfg.LogLevel))

	kv := storage.NewFileKVBackend(cfg.KVPath())
	opts := storage.Options{KV: kv, Logger: logger}
	if sb, err := storage.OpenSQLite(ctx, cfg.SQLitePath()); err != nil {
		logger.Warn(ctx, "embedded database unavailable", "error", err)
	} else {
		opts.SQLite = sb
	}

	adapter, err := storage.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer adapter.Close()

	// the session lives in the kv tier so it survives tier switches
	sessions := services.NewSessionStore(kv, logger)

	var (
		remote   cloudsync.Remote
		accounts services.Accounts
	)
	if cfg.CloudEnabled() {
		svc, err := cloud.Open(ctx, cfg.CloudDSN, cloud.Options{
			SecretKey:                    cfg.SecretKey,
			AccessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
			RefreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
			Logger:                       logger.With("component", "cloud"),
			OnSessionChange:              sessions.Save,
		})
		if err != nil {
			logger.Error(ctx, "cloud unavailable, working offline", "error", err)
			fmt.Println("Cloud unavailable, working offline")
		} else {
			defer svc.Close()
			remote, accounts = svc, svc
		}
	}

	syncLog := logger.With("component", "sync")
	engine := cloudsync.New(adapter, remote, cloudsync.Options{
		Logger: syncLog,
		OnAutoSync: func(r cloudsync.Result) {
			if !r.Success {
				syncLog.Warn(ctx, "auto sync failed", "error", r.Error)
			}
		},
	})
	if err := engine.Initialize(ctx); err != nil {
		logger.Error(ctx, "sync state not loaded", "error", err)
	}

	var snapshot storage.Backend
	if cfg.BackupEnabled() {
		s3b, err := storage.NewS3Backend(ctx, storage.S3Config{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
		})
		if err != nil {
			logger.Error(ctx, "backup target unavailable", "error", err)
		} else {
			snapshot = s3b
		}
	}

	app := cli.NewApp(cli.Deps{
		Storage:          adapter,
		Journal:          services.NewJournalService(adapter, nil),
		Bars:             services.NewBarService(adapter, nil),
		Auth:             services.NewAuthService(accounts, sessions),
		Engine:           engine,
		Snapshot:         snapshot,
		AutoSyncInterval: cfg.AutoSyncInterval,
		Logger:           logger,
	})
	app.Run(ctx)
	return nil
}
