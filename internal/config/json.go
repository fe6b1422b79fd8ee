package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/brewlog/internal/flagx"
	"github.com/dmitrijs2005/brewlog/internal/timex"
)

// JsonConfig is the on-disk shape of the config file.
type JsonConfig struct {
	DataDir                      string         `json:"data_dir"`
	SQLiteFile                   string         `json:"sqlite_file"`
	KVFile                       string         `json:"kv_file"`
	LogLevel                     string         `json:"log_level"`
	CloudDSN                     string         `json:"cloud_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	AutoSyncInterval             timex.Duration `json:"auto_sync_interval"`
	S3AccessKey                  string         `json:"s3_access_key"`
	S3SecretKey                  string         `json:"s3_secret_key"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3Prefix                     string         `json:"s3_prefix"`
}

// parseJson overlays cfg with the file named by -c/-config or
// $BREWLOG_CONFIG. It panics on read or decode errors.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.SQLiteFile, jc.SQLiteFile)
	setString(&cfg.KVFile, jc.KVFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.CloudDSN, jc.CloudDSN)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3Prefix, jc.S3Prefix)

	if jc.AccessTokenValidityDuration.Duration > 0 {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RefreshTokenValidityDuration.Duration > 0 {
		cfg.RefreshTokenValidityDuration = jc.RefreshTokenValidityDuration.Duration
	}
	if jc.AutoSyncInterval.Duration > 0 {
		cfg.AutoSyncInterval = jc.AutoSyncInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
