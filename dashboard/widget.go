// Package dashboard is the side of widget rendering which applies widget formulas
// to sensor readings and formats the result for display.
package dashboard

import (
	"fmt"
	"strconv"

	"github.com/lunfardo314/widgetfl/formula"
)

// Widget is the part of a dashboard widget configuration the formula engine needs
type Widget struct {
	ID    string `toml:"id" yaml:"id" json:"id"`
	Title string `toml:"title" yaml:"title" json:"title"`
	// Sensor is the key of the reading shown by the widget
	Sensor string `toml:"sensor" yaml:"sensor" json:"sensor"`
	// Formula transforms the reading. Empty formula shows the reading as is
	Formula  string `toml:"formula" yaml:"formula" json:"formula,omitempty"`
	Decimals *int   `toml:"decimals" yaml:"decimals" json:"decimals,omitempty"`
	Unit     string `toml:"unit" yaml:"unit" json:"unit,omitempty"`
}

// Validate compiles the formula. An invalid formula must not be saved
func (w *Widget) Validate(opts ...formula.Option) error {
	if w.Sensor == "" {
		return fmt.Errorf("widget '%s': sensor is not set", w.ID)
	}
	if w.Decimals != nil && (*w.Decimals < 0 || *w.Decimals > formula.MaxDecimals) {
		return fmt.Errorf("widget '%s': decimals must be from 0 to %d", w.ID, formula.MaxDecimals)
	}
	if w.Formula == "" {
		return nil
	}
	if _, err := formula.Compile(w.Formula, opts...); err != nil {
		return err
	}
	return nil
}

// Display is what a widget shows after a refresh
type Display struct {
	WidgetID string        `json:"widgetId"`
	Title    string        `json:"title,omitempty"`
	Raw      formula.Value `json:"raw"`
	Value    formula.Value `json:"value"`
	Text     string        `json:"text"`
	// Fallback is true when the formula failed and the raw reading is shown
	Fallback bool `json:"fallback,omitempty"`
}

// NoData is the text of a widget without a reading
const NoData = "n/a"

// FormatValue renders the value with widget decimals and unit
func (w *Widget) FormatValue(v formula.Value) string {
	var text string
	switch v.Kind() {
	case formula.KindNull:
		return NoData
	case formula.KindNumber:
		n, _ := v.Number()
		if w.Decimals != nil {
			text = strconv.FormatFloat(n, 'f', *w.Decimals, 64)
		} else {
			text = v.String()
		}
	default:
		text = v.String()
	}
	if w.Unit != "" {
		text += " " + w.Unit
	}
	return text
}
