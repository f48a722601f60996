package dashboard

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lunfardo314/widgetfl/formula"
	"github.com/lunfardo314/widgetfl/internal/config"
	"go.uber.org/multierr"
)

// BoardFile is a dashboard definition with a snapshot of sensor readings:
//
//	[[widgets]]
//	title = "Boiler"
//	sensor = "boiler.temp"
//	formula = "helpers.round(toF(value), 1)"
//	unit = "°F"
//
//	[readings]
//	"boiler.temp" = 71.3
type BoardFile struct {
	Widgets  []Widget               `toml:"widgets" yaml:"widgets"`
	Readings map[string]interface{} `toml:"readings" yaml:"readings"`
}

// LoadBoardFile reads TOML or YAML board file. Widgets without id get a random one
func LoadBoardFile(path string) (*BoardFile, error) {
	ret := &BoardFile{}
	if err := config.DecodeFile(path, ret); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for i := range ret.Widgets {
		if ret.Widgets[i].ID == "" {
			ret.Widgets[i].ID = uuid.NewString()
		}
		if seen[ret.Widgets[i].ID] {
			return nil, fmt.Errorf("%s: repeating widget id '%s'", path, ret.Widgets[i].ID)
		}
		seen[ret.Widgets[i].ID] = true
	}
	return ret, nil
}

// Validate checks all widgets, formula problems are *formula.CompileError
func (bf *BoardFile) Validate(opts ...formula.Option) error {
	var err error
	for i := range bf.Widgets {
		err = multierr.Append(err, bf.Widgets[i].Validate(opts...))
	}
	return err
}

// ReadingValues converts the readings snapshot
func (bf *BoardFile) ReadingValues() (map[string]formula.Value, error) {
	keys := make([]string, 0, len(bf.Readings))
	for k := range bf.Readings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ret := make(map[string]formula.Value, len(bf.Readings))
	for _, k := range keys {
		v, err := formula.ValueOf(bf.Readings[k])
		if err != nil {
			return nil, fmt.Errorf("reading '%s': %w", k, err)
		}
		ret[k] = v
	}
	return ret, nil
}
