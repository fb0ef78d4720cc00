package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/plexpatrol/plexpatrol/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Plex     sharedConfig.PlexConfig     `mapstructure:"plex"`
	Monitor  sharedConfig.MonitorConfig  `mapstructure:"monitor"`
	Rules    sharedConfig.RulesConfig    `mapstructure:"rules"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Telegram sharedConfig.TelegramConfig `mapstructure:"telegram"`
	Email    sharedConfig.EmailConfig    `mapstructure:"email"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Notify   sharedConfig.NotifyConfig   `mapstructure:"notify"`
	Sync     sharedConfig.SyncConfig     `mapstructure:"sync"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (searched in dir, ./configs and ../configs)
// layered under PLEXPATROL_* environment variables. A missing file is not an
// error: defaults and environment are enough to run.
func Load(dir string) (*Config, *viper.Viper, error) {
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}

	appConfigMu.Lock()
	appConfig = cfg
	appConfigMu.Unlock()

	return cfg, v, nil
}

// Get returns the last loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PLEXPATROL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Rules.DefaultMaxStreams < 1 {
		cfg.Rules.DefaultMaxStreams = 1
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Operator API
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.mode", "release")

	// Media server
	v.SetDefault("plex.server_url", "http://localhost:32400")
	v.SetDefault("plex.token", "")
	v.SetDefault("plex.timeout", "10s")
	v.SetDefault("plex.probe_timeout", "5s")
	v.SetDefault("plex.terminate_retries", 3)
	v.SetDefault("plex.terminate_retry_delay", "2s")

	// Enforcement loop
	v.SetDefault("monitor.check_interval", "30s")
	v.SetDefault("monitor.cleanup_every_ticks", 10)
	v.SetDefault("monitor.cleanup_older_than", "30m")
	v.SetDefault("monitor.unhealthy_after", 3)
	v.SetDefault("monitor.reconnect_every", 5)
	v.SetDefault("monitor.max_backoff", "60s")
	v.SetDefault("monitor.stop_grace", "2s")

	// Policy
	v.SetDefault("rules.default_max_streams", 2)
	v.SetDefault("rules.termination_message", "Your subscription does not allow playback on multiple screens.")
	v.SetDefault("rules.paused_message", "Stream stopped: another device is already watching on this account.")
	v.SetDefault("rules.playing_message", "Stream stopped: too many devices are watching on this account.")
	v.SetDefault("rules.disabled_message", "This account has been disabled. Contact the server administrator.")

	// Database
	v.SetDefault("database.path", "plexpatrol.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.busy_timeout_ms", 5000)
	v.SetDefault("database.migration_strategy", "goose")

	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Notifications
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.timeout", "10s")
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 1025)
	v.SetDefault("email.from_address", "plexpatrol@localhost")
	v.SetDefault("email.from_name", "PlexPatrol")
	v.SetDefault("notify.cooldown", "10m")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Account sync
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.interval", "6h")
	v.SetDefault("sync.timezone", "UTC")
}
