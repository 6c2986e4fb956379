// Package config loads relay settings from the environment, an optional .env
// file and an optional YAML file declaring static OAuth providers.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"github.com/viant/cmdrelay/schema"
	"gopkg.in/yaml.v3"
)

const (
	InvokeLocal  = "local"
	InvokeRemote = "remote"
)

// Config represents the relay configuration.
type Config struct {
	Addr string `env:"CMDRELAY_ADDR" envDefault:":8080"`
	// PublicURL is the externally reachable relay URL; the OAuth callback is served under it.
	PublicURL   string `env:"CMDRELAY_PUBLIC_URL" envDefault:"http://localhost:8080"`
	CallbackURL string `env:"CMDRELAY_CALLBACK_URL"`
	StoreURL    string `env:"CMDRELAY_STORE_URL" envDefault:"mem://"`

	PendingTTL       time.Duration `env:"CMDRELAY_PENDING_TTL"       envDefault:"60s"`
	SessionTTL       time.Duration `env:"CMDRELAY_SESSION_TTL"       envDefault:"60s"`
	LinkValidity     time.Duration `env:"CMDRELAY_LINK_VALIDITY"     envDefault:"30m"`
	ExchangeTimeout  time.Duration `env:"CMDRELAY_EXCHANGE_TIMEOUT"  envDefault:"10s"`
	DispatchTimeout  time.Duration `env:"CMDRELAY_DISPATCH_TIMEOUT"  envDefault:"10s"`
	DispatchMaxTries uint          `env:"CMDRELAY_DISPATCH_MAX_TRIES" envDefault:"3"`
	InvokeTimeout    time.Duration `env:"CMDRELAY_INVOKE_TIMEOUT"    envDefault:"5m"`

	InvokeMode   string `env:"CMDRELAY_INVOKE_MODE" envDefault:"local"`
	InvokeURL    string `env:"CMDRELAY_INVOKE_URL"`
	InvokeSecret string `env:"CMDRELAY_INVOKE_SECRET"`

	SlackSigningSecret string `env:"CMDRELAY_SLACK_SIGNING_SECRET"`
	// ActionSecret enables the JSON envelope route; callers send it in the X-Relay-Action-Secret header.
	ActionSecret string `env:"CMDRELAY_ACTION_SECRET"`
	AcceptAccessToken  bool   `env:"CMDRELAY_ACCEPT_ACCESS_TOKEN"`

	ProvidersURL       string `env:"CMDRELAY_PROVIDERS_FILE"`
	GitHubClientID     string `env:"CMDRELAY_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"CMDRELAY_GITHUB_CLIENT_SECRET"`
	GitHubBaseURL      string `env:"CMDRELAY_GITHUB_BASE_URL" envDefault:"https://github.com"`
	GitHubScope        string `env:"CMDRELAY_GITHUB_SCOPE"    envDefault:"user:email,read:org"`

	LogLevel  string `env:"CMDRELAY_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"CMDRELAY_LOG_FORMAT" envDefault:"json"`

	// Providers are the static providers declared in ProvidersURL and the GitHub variables.
	Providers []schema.ProviderConfig `env:"-"`
}

type providersFile struct {
	Providers []schema.ProviderConfig `yaml:"providers"`
}

// Callback returns the OAuth redirect URL.
func (c *Config) Callback() string {
	if c.CallbackURL != "" {
		return c.CallbackURL
	}
	return strings.TrimSuffix(c.PublicURL, "/") + "/callback"
}

// Validate checks setting consistency.
func (c *Config) Validate() error {
	switch c.InvokeMode {
	case InvokeLocal:
	case InvokeRemote:
		if c.InvokeURL == "" || c.InvokeSecret == "" {
			return fmt.Errorf("invoke mode %q requires CMDRELAY_INVOKE_URL and CMDRELAY_INVOKE_SECRET", c.InvokeMode)
		}
	default:
		return fmt.Errorf("unsupported invoke mode: %q", c.InvokeMode)
	}
	if c.PendingTTL <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("pending and session TTL must be positive")
	}
	seen := map[string]bool{}
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("static provider without name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate static provider: %v", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Load reads the configuration; envFile, when empty, defaults to an optional .env in the working directory.
func Load(ctx context.Context, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %v: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(ctx, os.Environ())
}

// FromEnv parses the configuration from environment entries (KEY=value).
func FromEnv(ctx context.Context, environ []string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ProvidersURL != "" {
		providers, err := LoadProviders(ctx, cfg.ProvidersURL)
		if err != nil {
			return nil, err
		}
		cfg.Providers = append(cfg.Providers, providers...)
	}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		cfg.Providers = append(cfg.Providers, schema.ProviderConfig{
			Name:         "github",
			GrantType:    schema.GrantAuthorizationCode,
			BaseURL:      cfg.GitHubBaseURL,
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Scope:        cfg.GitHubScope,
		})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadProviders reads static providers from a YAML document at URL (any afs supported location).
func LoadProviders(ctx context.Context, URL string) ([]schema.ProviderConfig, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load providers %v: %w", URL, err)
	}
	file := &providersFile{}
	if err = yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("invalid providers file %v: %w", URL, err)
	}
	return file.Providers, nil
}
