package dashboard

import (
	"github.com/lunfardo314/widgetfl/formula"
	"github.com/lunfardo314/widgetfl/util/logger"
	"go.uber.org/zap"
)

// Board renders a set of widgets. Formulas are compiled once and shared through the cache
type Board struct {
	widgets []Widget
	cache   *formula.Cache
	log     *zap.SugaredLogger
}

// NewBoard with nil cache uses a private cache with default options
func NewBoard(widgets []Widget, cache *formula.Cache, log *zap.SugaredLogger) *Board {
	if cache == nil {
		cache = formula.NewCache(formula.CacheOptions{})
	}
	ret := &Board{
		widgets: make([]Widget, len(widgets)),
		cache:   cache,
		log:     logger.OrNop(log),
	}
	copy(ret.widgets, widgets)
	return ret
}

func (b *Board) Widgets() []Widget {
	ret := make([]Widget, len(b.widgets))
	copy(ret, b.widgets)
	return ret
}

// Render evaluates every widget with its reading. Missing reading is Null.
// A formula which does not compile or fails on the reading falls back to the raw reading,
// one broken widget never affects the others
func (b *Board) Render(readings map[string]formula.Value) []Display {
	ret := make([]Display, len(b.widgets))
	for i := range b.widgets {
		ret[i] = b.render(&b.widgets[i], readings[b.widgets[i].Sensor])
	}
	return ret
}

func (b *Board) render(w *Widget, raw formula.Value) Display {
	ret := Display{
		WidgetID: w.ID,
		Title:    w.Title,
		Raw:      raw,
		Value:    raw,
	}
	if w.Formula != "" {
		v, err := b.evaluate(w.Formula, raw)
		if err != nil {
			b.log.Debugf("widget '%s': %v", w.ID, err)
			ret.Fallback = true
		} else {
			ret.Value = v
		}
	}
	ret.Text = w.FormatValue(ret.Value)
	return ret
}

func (b *Board) evaluate(source string, raw formula.Value) (formula.Value, error) {
	f, err := b.cache.Get(source)
	if err != nil {
		return formula.Null(), err
	}
	return f.Evaluate(raw)
}
