package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Health struct {
	BaseURL      string        `env:"BASE_URL, default=http://localhost:8000"`
	Timeout      time.Duration `env:"TIMEOUT, default=5s"`
	StartupGrace time.Duration `env:"STARTUP_GRACE, default=2s"`
}

type Deploy struct {
	RenderAPIURL string        `env:"RENDER_API_URL, default=https://api.render.com/v1"`
	PollInterval time.Duration `env:"POLL_INTERVAL, default=10s"`
	MaxPolls     uint          `env:"MAX_POLLS, default=30"`
	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT, default=30s"`
}

type Ledger struct {
	// Path of the JSONL ledger; empty disables report hashing.
	Path   string `env:"PATH"`
	KeyDir string `env:"KEY_DIR, default=keys"`
}

type Config struct {
	ConfigPath     string        `env:"CONFIG, default=config/projects.yaml"`
	WorkDir        string        `env:"WORKDIR, default=."`
	ReportDir      string        `env:"REPORT_DIR, default=reports"`
	CommandTimeout time.Duration `env:"COMMAND_TIMEOUT, default=30m"`
	Health         Health        `env:",prefix=HEALTH_"`
	Deploy         Deploy        `env:",prefix=DEPLOY_"`
	Ledger         Ledger        `env:",prefix=LEDGER_"`
}

// Load reads MAMOS_* variables from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("MAMOS_", l),
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
