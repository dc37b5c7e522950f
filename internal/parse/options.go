package parse

import (
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/Zuo-Peng/miscreaders/internal/config"
	"github.com/Zuo-Peng/miscreaders/internal/logging"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// Options are shared by all adapters. The zero value is usable.
type Options struct {
	// DateLayouts are tried in order on spreadsheet date cells.
	DateLayouts []string
	// Location turns epoch values and naive timestamps into calendar dates.
	Location *time.Location
	// PlainNumberUnit is the unit of a duration cell holding a bare number.
	// It is only honored with PlainNumberUnitSet, as its zero value is microseconds.
	PlainNumberUnit    usage.Unit
	PlainNumberUnitSet bool
	// IdleCutoff drops desktop events idle for at least this long; zero disables it.
	IdleCutoff time.Duration
	Logger     *charmlog.Logger
}

// OptionsFromConfig resolves a loaded config into adapter options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}
	idle, err := cfg.IdleCutoffDuration()
	if err != nil {
		return Options{}, err
	}
	unit := usage.Seconds
	if cfg.PlainNumberUnit != "" {
		if unit, err = usage.ParseUnit(cfg.PlainNumberUnit); err != nil {
			return Options{}, err
		}
		if !unit.IsDuration() {
			return Options{}, fmt.Errorf("plain_number_unit %q is not a duration unit", cfg.PlainNumberUnit)
		}
	}
	return Options{
		DateLayouts:        cfg.DateLayouts,
		Location:           loc,
		PlainNumberUnit:    unit,
		PlainNumberUnitSet: true,
		IdleCutoff:         idle,
	}, nil
}

func (o Options) withDefaults() Options {
	if len(o.DateLayouts) == 0 {
		o.DateLayouts = config.DefaultDateLayouts
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if !o.PlainNumberUnitSet || !o.PlainNumberUnit.IsDuration() {
		o.PlainNumberUnit, o.PlainNumberUnitSet = usage.Seconds, true
	}
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
	return o
}
