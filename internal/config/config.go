// Package config loads the YAML configuration shared by the freefall runner
// and the reference authority.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MJE43/freefall-wager/internal/authority"
	"github.com/MJE43/freefall-wager/internal/outcome"
	"github.com/MJE43/freefall-wager/internal/physics"
	"github.com/MJE43/freefall-wager/internal/rgs"
	"github.com/MJE43/freefall-wager/internal/round"
	"github.com/MJE43/freefall-wager/internal/world"
)

// Environment overrides, applied after the file is read.
const (
	EnvRGSURL       = "FREEFALL_RGS_URL"
	EnvDBPath       = "FREEFALL_DB_PATH"
	EnvStartBalance = "FREEFALL_START_BALANCE"
	EnvRGSAddr      = "FREEFALL_RGS_ADDR"
)

// Config is the root of the YAML document.
type Config struct {
	Modes     map[string]*ModeConfig `yaml:"modes"`
	Authority AuthorityConfig        `yaml:"authority"`
	Round     RoundConfig            `yaml:"round"`
	Ledger    LedgerConfig           `yaml:"ledger"`
	RGS       RGSConfig              `yaml:"rgs"`
}

// ModeConfig overrides one mode. Omitted fields keep the built-in value.
type ModeConfig struct {
	Table    outcome.Table  `yaml:"table"`
	EntryBet *float64       `yaml:"entry_bet"`
	Gravity  float64        `yaml:"gravity"`
	MaxFall  float64        `yaml:"max_fall"`
	World    *world.Profile `yaml:"world"`
}

// AuthorityConfig selects remote resolution. An empty URL means local.
type AuthorityConfig struct {
	URL           string        `yaml:"url"`
	HealthTimeout time.Duration `yaml:"health_timeout"`
	BetTimeout    time.Duration `yaml:"bet_timeout"`
}

// RoundConfig holds player-side settings.
type RoundConfig struct {
	Balance      float64 `yaml:"balance"`
	SnapToTarget bool    `yaml:"snap_to_target"`
}

// LedgerConfig points at the SQLite history. Empty disables it.
type LedgerConfig struct {
	Path      string `yaml:"path"`
	FlushSize int    `yaml:"flush_size"`
}

// RGSConfig configures the reference authority server.
type RGSConfig struct {
	Addr           string   `yaml:"addr"`
	ServerSeed     string   `yaml:"server_seed"`
	MaxBet         float64  `yaml:"max_bet"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default mirrors the built-in tables and mode settings.
func Default() *Config {
	tables := outcome.DefaultTables()
	modes := round.DefaultModes()

	cfg := &Config{
		Modes: make(map[string]*ModeConfig, len(modes)),
		Authority: AuthorityConfig{
			HealthTimeout: authority.DefaultHealthTimeout,
			BetTimeout:    authority.DefaultBetTimeout,
		},
		Round:  RoundConfig{Balance: 1000},
		Ledger: LedgerConfig{FlushSize: 25},
		RGS:    RGSConfig{Addr: ":8090"},
	}
	for mode, s := range modes {
		entry := s.EntryBet
		profile := s.World
		cfg.Modes[string(mode)] = &ModeConfig{
			Table:    tables[mode].Clone(),
			EntryBet: &entry,
			Gravity:  s.Tuning.Gravity,
			MaxFall:  s.Tuning.MaxFall,
			World:    &profile,
		}
	}
	return cfg
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads the defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge decodes data onto cfg. Modes named in the file are merged field by
// field over the built-in ones; mode names are canonicalized.
func (c *Config) merge(data []byte) error {
	defaults := c.Modes
	c.Modes = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		c.Modes = defaults
		return err
	}
	overrides := c.Modes
	c.Modes = defaults

	for name, m := range overrides {
		mode, err := outcome.ParseMode(name)
		if err != nil {
			return err
		}
		if m == nil {
			m = &ModeConfig{}
		}
		if def, ok := defaults[string(mode)]; ok {
			if len(m.Table) == 0 {
				m.Table = def.Table
			}
			if m.EntryBet == nil {
				m.EntryBet = def.EntryBet
			}
			if m.Gravity == 0 {
				m.Gravity = def.Gravity
			}
			if m.MaxFall == 0 {
				m.MaxFall = def.MaxFall
			}
			if m.World == nil {
				m.World = def.World
			}
		}
		c.Modes[string(mode)] = m
	}
	return nil
}

func (c *Config) applyEnv() error {
	if s := os.Getenv(EnvRGSURL); s != "" {
		c.Authority.URL = s
	}
	if s := os.Getenv(EnvDBPath); s != "" {
		c.Ledger.Path = s
	}
	if s := os.Getenv(EnvRGSAddr); s != "" {
		c.RGS.Addr = s
	}
	if s := os.Getenv(EnvStartBalance); s != "" {
		var v float64
		if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvStartBalance, s, err)
		}
		c.Round.Balance = v
	}
	return nil
}

// Validate checks every table and mode setting.
func (c *Config) Validate() error {
	if len(c.Modes) == 0 {
		return errors.New("config: no modes configured")
	}
	seen := make(map[outcome.Mode]string, len(c.Modes))
	for _, name := range c.modeNames() {
		m := c.Modes[name]
		mode, err := outcome.ParseMode(name)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if prev, dup := seen[mode]; dup {
			return fmt.Errorf("config: modes %q and %q both configure %s", prev, name, mode)
		}
		seen[mode] = name
		if m == nil {
			return fmt.Errorf("config: mode %s is empty", name)
		}
		if err := m.Table.Validate(); err != nil {
			return fmt.Errorf("config: mode %s: %w", name, err)
		}
		if m.EntryBet != nil && *m.EntryBet < 0 {
			return fmt.Errorf("config: mode %s: negative entry_bet", name)
		}
		if m.Gravity <= 0 || m.MaxFall <= 0 {
			return fmt.Errorf("config: mode %s: gravity and max_fall must be positive", name)
		}
	}
	if _, ok := seen[outcome.ModeBase]; !ok {
		return errors.New("config: base mode is required")
	}
	if c.Authority.HealthTimeout < 0 || c.Authority.BetTimeout < 0 {
		return errors.New("config: negative authority timeout")
	}
	if c.Round.Balance < 0 {
		return errors.New("config: negative starting balance")
	}
	return nil
}

func (c *Config) modeNames() []string {
	names := make([]string, 0, len(c.Modes))
	for name := range c.Modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables returns the tier table of every configured mode.
func (c *Config) Tables() map[outcome.Mode]outcome.Table {
	out := make(map[outcome.Mode]outcome.Table, len(c.Modes))
	for name, m := range c.Modes {
		if mode, err := outcome.ParseMode(name); err == nil {
			out[mode] = m.Table.Clone()
		}
	}
	return out
}

// RoundModes converts the mode section into lifecycle settings.
func (c *Config) RoundModes() map[outcome.Mode]round.ModeSettings {
	out := make(map[outcome.Mode]round.ModeSettings, len(c.Modes))
	for name, m := range c.Modes {
		mode, err := outcome.ParseMode(name)
		if err != nil {
			continue
		}
		tuning := physics.DefaultTuning()
		tuning.Gravity, tuning.MaxFall = m.Gravity, m.MaxFall
		s := round.ModeSettings{Tuning: tuning, World: world.BaseProfile()}
		if m.EntryBet != nil {
			s.EntryBet = *m.EntryBet
		}
		if m.World != nil {
			s.World = *m.World
		}
		out[mode] = s
	}
	return out
}

// Remote reports whether outcomes come from an authority.
func (c *Config) Remote() bool { return c.Authority.URL != "" }

// AuthorityClient returns the client settings for the authority section.
func (c *Config) AuthorityClient() authority.Config {
	return authority.Config{
		BaseURL:       c.Authority.URL,
		HealthTimeout: c.Authority.HealthTimeout,
		BetTimeout:    c.Authority.BetTimeout,
	}
}

// Server returns the reference authority settings.
func (c *Config) Server() rgs.Config {
	return rgs.Config{
		ServerSeed:     c.RGS.ServerSeed,
		Tables:         c.Tables(),
		MaxBet:         c.RGS.MaxBet,
		AllowedOrigins: c.RGS.AllowedOrigins,
	}
}
