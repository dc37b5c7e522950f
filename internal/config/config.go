package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// DateLayouts are Go time layouts tried, in order, on spreadsheet date cells.
	DateLayouts []string `toml:"date_layouts"`
	// Timezone names the IANA zone used to turn log timestamps and epoch values into dates.
	Timezone string `toml:"timezone"`
	// PlainNumberUnit is the unit of duration cells holding a bare number.
	PlainNumberUnit string `toml:"plain_number_unit"`
	// IdleCutoff drops desktop log events idle for at least this long; empty disables it.
	IdleCutoff string `toml:"idle_cutoff"`

	MoonwatchDir string `toml:"moonwatch_dir"`
	LogLevel     string `toml:"log_level"`
	LogJSON      bool   `toml:"log_json"`
}

var DefaultDateLayouts = []string{
	"Jan 2, 2006",
	"2006-01-02",
	"02.01.2006",
	"2 Jan 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func Defaults(home string) *Config {
	return &Config{
		DateLayouts:     append([]string(nil), DefaultDateLayouts...),
		Timezone:        "UTC",
		PlainNumberUnit: "seconds",
		MoonwatchDir:    filepath.Join(home, ".moonwatch-rs", "log"),
		LogLevel:        "warn",
	}
}

// Path returns the default config file location.
func Path(home string) string {
	return filepath.Join(home, ".config", "miscr", "config.toml")
}

// Load reads ~/.config/miscr/config.toml over the defaults; a missing file is fine.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return load(Path(home), home, false)
}

// LoadFile reads an explicit config file, which must exist.
func LoadFile(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return load(path, home, true)
}

func load(cfgPath, home string, required bool) (*Config, error) {
	cfg := Defaults(home)

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	} else if required {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	cfg.MoonwatchDir = expandHome(cfg.MoonwatchDir, home)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.DateLayouts) == 0 {
		return fmt.Errorf("date_layouts must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.IdleCutoffDuration(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IdleCutoffDuration() (time.Duration, error) {
	if c.IdleCutoff == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.IdleCutoff)
	if err != nil {
		return 0, fmt.Errorf("idle_cutoff %q: %w", c.IdleCutoff, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("idle_cutoff %q is negative", c.IdleCutoff)
	}
	return d, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
