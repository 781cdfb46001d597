package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Seed
		Remote
		Sync
		Tasks
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path        string
		BusyTimeout time.Duration // How long a new handle waits on a lock held by a stale handle
		RetryPause  time.Duration // Pause before the single retry of a locked write
		Debug       bool          // Log every SQL statement
	}
	Seed struct {
		Enabled  bool
		CacheDir string // Where the bundled image is materialized before copying
	}
	Remote struct {
		APIURL    string
		AuthToken string
		Timeout   time.Duration
	}
	Sync struct {
		Enabled        bool
		Interval       time.Duration // Minimum time between automatic full syncs (default: 24h)
		CheckSchedule  string        // Cron format: how often to ask "is sync due"
		OutboxSchedule string        // Cron format: how often to drain the mutation outbox
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Log struct {
		File       string // Empty logs to stderr only
		MaxSizeMB  int    // Rotate after this many megabytes
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("database_path", DefaultDatabasePath())
	v.SetDefault("database_busy_timeout", "5s")
	v.SetDefault("database_retry_pause", "150ms")
	v.SetDefault("database_debug", false)

	v.SetDefault("seed_enabled", true)
	v.SetDefault("seed_cache_dir", DefaultSeedCacheDir())

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("api_auth_token", "")
	v.SetDefault("api_timeout", "60s")

	// Sync defaults
	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_interval", "24h")
	v.SetDefault("sync_check_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("sync_outbox_schedule", "*/5 * * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Log file defaults
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)
	v.SetDefault("log_compress", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:        v.GetString("DATABASE_PATH"),
			BusyTimeout: v.GetDuration("DATABASE_BUSY_TIMEOUT"),
			RetryPause:  v.GetDuration("DATABASE_RETRY_PAUSE"),
			Debug:       v.GetBool("DATABASE_DEBUG"),
		},
		Seed: Seed{
			Enabled:  v.GetBool("SEED_ENABLED"),
			CacheDir: v.GetString("SEED_CACHE_DIR"),
		},
		Remote: Remote{
			APIURL:    v.GetString("API_URL"),
			AuthToken: v.GetString("API_AUTH_TOKEN"),
			Timeout:   v.GetDuration("API_TIMEOUT"),
		},
		Sync: Sync{
			Enabled:        v.GetBool("SYNC_ENABLED"),
			Interval:       v.GetDuration("SYNC_INTERVAL"),
			CheckSchedule:  v.GetString("SYNC_CHECK_SCHEDULE"),
			OutboxSchedule: v.GetString("SYNC_OUTBOX_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Log: Log{
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
			Compress:   v.GetBool("LOG_COMPRESS"),
		},
	}
}
