package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the brewlog CLI.
type Config struct {
	DataDir    string
	SQLiteFile string
	KVFile     string
	LogLevel   string

	CloudDSN                     string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	AutoSyncInterval             time.Duration

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3Prefix       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.SQLiteFile = "brewlog.db"
	c.KVFile = "brewlog.kv.json"
	c.LogLevel = "info"
	c.CloudDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 30 * 24 * time.Hour
	c.AutoSyncInterval = 5 * time.Minute
	c.S3Region = "us-east-1"
	c.S3Prefix = "brewlog"
}

// SQLitePath is SQLiteFile resolved against DataDir.
func (c *Config) SQLitePath() string { return c.resolve(c.SQLiteFile) }

// KVPath is KVFile resolved against DataDir.
func (c *Config) KVPath() string { return c.resolve(c.KVFile) }

// CloudEnabled reports whether a cloud database is configured.
func (c *Config) CloudEnabled() bool { return c.CloudDSN != "" }

// BackupEnabled reports whether an S3 bucket is configured.
func (c *Config) BackupEnabled() bool { return c.S3Bucket != "" }

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".brewlog"
	}
	return filepath.Join(home, ".brewlog")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg, os.Args[1:])
	return cfg
}
