package readers

import (
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/Zuo-Peng/miscreaders/internal/config"
	"github.com/Zuo-Peng/miscreaders/internal/parse"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// Config holds reader defaults as read from a miscr TOML config file. The zero
// value reads dates as UTC with the built-in date layouts.
type Config = config.Config

// LoadConfig reads a TOML config file for use with FromConfig.
func LoadConfig(path string) (*Config, error) {
	return config.LoadFile(path)
}

type options struct {
	parse    parse.Options
	cfg      *config.Config
	cfgPath  string
	cfgLoads bool
}

// Option configures a reader.
type Option func(*options)

// WithDateLayouts sets the time.Parse layouts tried on spreadsheet date cells.
func WithDateLayouts(layouts ...string) Option {
	return func(o *options) {
		o.parse.DateLayouts = layouts
	}
}

// WithLocation sets the time zone that turns timestamps into calendar dates.
// Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.parse.Location = loc
	}
}

// WithPlainNumberUnit sets the unit of duration cells holding a bare number.
// Default: seconds. Count is not a duration unit and fails the read.
func WithPlainNumberUnit(u usage.Unit) Option {
	return func(o *options) {
		o.parse.PlainNumberUnit = u
		o.parse.PlainNumberUnitSet = true
	}
}

// WithIdleCutoff drops desktop events whose idle time reaches d.
func WithIdleCutoff(d time.Duration) Option {
	return func(o *options) {
		o.parse.IdleCutoff = d
	}
}

func WithLogger(l *charmlog.Logger) Option {
	return func(o *options) {
		o.parse.Logger = l
	}
}

// FromConfig takes defaults from a loaded config. Other options override it.
func FromConfig(cfg *Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithConfigFile loads defaults from a TOML config file, see FromConfig.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.cfgPath = path
		o.cfgLoads = true
	}
}

func resolve(opts []Option) (parse.Options, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.parse.PlainNumberUnitSet && !o.parse.PlainNumberUnit.IsDuration() {
		return parse.Options{}, fmt.Errorf("plain number unit %s is not a duration unit", o.parse.PlainNumberUnit)
	}

	cfg := o.cfg
	if o.cfgLoads {
		loaded, err := config.LoadFile(o.cfgPath)
		if err != nil {
			return parse.Options{}, err
		}
		cfg = loaded
	}
	if cfg == nil {
		return o.parse, nil
	}

	base, err := parse.OptionsFromConfig(cfg)
	if err != nil {
		return parse.Options{}, err
	}
	if o.parse.DateLayouts != nil {
		base.DateLayouts = o.parse.DateLayouts
	}
	if o.parse.Location != nil {
		base.Location = o.parse.Location
	}
	if o.parse.PlainNumberUnitSet {
		base.PlainNumberUnit = o.parse.PlainNumberUnit
	}
	if o.parse.IdleCutoff != 0 {
		base.IdleCutoff = o.parse.IdleCutoff
	}
	base.Logger = o.parse.Logger
	return base, nil
}
