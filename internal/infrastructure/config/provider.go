package config

import (
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	sharedConfig "github.com/plexpatrol/plexpatrol/internal/shared/config"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

// Provider serves the current configuration snapshot and swaps it when the
// config file changes on disk.
type Provider struct {
	v      *viper.Viper
	snap   atomic.Pointer[Config]
	logger logger.Interface
}

var _ sharedConfig.Provider = (*Provider)(nil)

func NewProvider(cfg *Config, v *viper.Viper, log logger.Interface) *Provider {
	p := &Provider{v: v, logger: log}
	p.snap.Store(cfg)
	return p
}

// Watch starts fsnotify-backed reloading. It is a no-op when no config file
// was found at load time.
func (p *Provider) Watch() {
	if p.v == nil || p.v.ConfigFileUsed() == "" {
		return
	}
	p.v.OnConfigChange(p.reload)
	p.v.WatchConfig()
	p.logger.Infow("watching config file for changes", "file", p.v.ConfigFileUsed())
}

func (p *Provider) reload(e fsnotify.Event) {
	cfg, err := decode(p.v)
	if err != nil {
		p.logger.Warnw("config reload failed, keeping previous values", "file", e.Name, "error", err)
		return
	}
	p.snap.Store(cfg)

	appConfigMu.Lock()
	appConfig = cfg
	appConfigMu.Unlock()

	p.logger.Infow("config reloaded",
		"file", e.Name,
		"check_interval", cfg.Monitor.CheckInterval,
		"default_max_streams", cfg.Rules.DefaultMaxStreams,
	)
}

// Current returns the active snapshot.
func (p *Provider) Current() *Config {
	return p.snap.Load()
}

func (p *Provider) PlexServerURL() string {
	return p.Current().Plex.ServerURL
}

func (p *Provider) PlexToken() string {
	return p.Current().Plex.Token
}

func (p *Provider) CheckInterval() time.Duration {
	return p.Current().Monitor.CheckInterval
}

func (p *Provider) DefaultMaxStreams() int {
	return p.Current().Rules.DefaultMaxStreams
}

func (p *Provider) DefaultTerminationMessage() string {
	return p.Current().Rules.TerminationMessage
}

func (p *Provider) Rules() sharedConfig.RulesConfig {
	return p.Current().Rules
}
