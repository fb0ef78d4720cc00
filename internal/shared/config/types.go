package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PlexConfig holds the media server endpoint and the terminate retry budget.
type PlexConfig struct {
	ServerURL           string        `mapstructure:"server_url"`
	Token               string        `mapstructure:"token"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ProbeTimeout        time.Duration `mapstructure:"probe_timeout"`
	TerminateRetries    int           `mapstructure:"terminate_retries"`
	TerminateRetryDelay time.Duration `mapstructure:"terminate_retry_delay"`
}

// MonitorConfig tunes the enforcement loop.
type MonitorConfig struct {
	CheckInterval     time.Duration `mapstructure:"check_interval"`
	CleanupEveryTicks int           `mapstructure:"cleanup_every_ticks"`
	CleanupOlderThan  time.Duration `mapstructure:"cleanup_older_than"`
	UnhealthyAfter    int           `mapstructure:"unhealthy_after"`
	ReconnectEvery    int           `mapstructure:"reconnect_every"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	StopGrace         time.Duration `mapstructure:"stop_grace"`
}

// RulesConfig holds the global limit and the reason texts sent with a stop.
type RulesConfig struct {
	DefaultMaxStreams  int    `mapstructure:"default_max_streams"`
	TerminationMessage string `mapstructure:"termination_message"`
	PausedMessage      string `mapstructure:"paused_message"`
	PlayingMessage     string `mapstructure:"playing_message"`
	DisabledMessage    string `mapstructure:"disabled_message"`
}

type DatabaseConfig struct {
	Path              string `mapstructure:"path"`
	MaxOpenConns      int    `mapstructure:"max_open_conns"`
	BusyTimeoutMs     int    `mapstructure:"busy_timeout_ms"`
	MigrationStrategy string `mapstructure:"migration_strategy"`
}

// GetDSN returns the sqlite DSN with WAL journaling and a busy timeout.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", d.Path, d.BusyTimeoutMs)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   int64         `mapstructure:"chat_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	SMTPHost     string   `mapstructure:"smtp_host"`
	SMTPPort     int      `mapstructure:"smtp_port"`
	SMTPUser     string   `mapstructure:"smtp_user"`
	SMTPPassword string   `mapstructure:"smtp_password"`
	FromAddress  string   `mapstructure:"from_address"`
	FromName     string   `mapstructure:"from_name"`
	To           []string `mapstructure:"to"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type NotifyConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
}

type SyncConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Timezone string        `mapstructure:"timezone"`
}
