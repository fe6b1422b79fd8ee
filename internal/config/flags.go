package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/flagx"
)

var knownFlags = []string{"-d", "-db", "-s", "-i", "-l", "-b", "-g", "-e", "-u", "-p"}

// parseFlags overlays cfg with the flags it knows about, ignoring all other
// arguments. It panics on malformed values.
func parseFlags(cfg *Config, osArgs []string) {
	args := flagx.FilterArgs(osArgs, knownFlags)

	fs := flag.NewFlagSet("brewlog", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.CloudDSN, "db", cfg.CloudDSN, "cloud database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "token signing secret")
	interval := fs.Int("i", int(cfg.AutoSyncInterval.Seconds()), "auto-sync interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 backup bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AutoSyncInterval = time.Duration(*interval) * time.Second
}
