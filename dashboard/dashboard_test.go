package dashboard

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lunfardo314/widgetfl/formula"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

func decimals(n int) *int {
	return &n
}

func testWidgets() []Widget {
	return []Widget{
		{ID: "t", Title: "Temperature", Sensor: "temp", Formula: "helpers.round(toF(value), 1)", Decimals: decimals(1), Unit: "°F"},
		{ID: "s", Sensor: "temp", Formula: `value > 10 ? "high" : "low"`},
		{ID: "raw", Sensor: "hum", Decimals: decimals(0), Unit: "%"},
		{ID: "div", Sensor: "hum", Formula: "value / 0"},
		{ID: "bad", Sensor: "hum", Formula: "window.alert(1)"},
		{ID: "none", Sensor: "missing", Formula: "value == null ? 0 : 1"},
	}
}

func TestRender(t *testing.T) {
	b := NewBoard(testWidgets(), nil, zap.NewExample().Sugar())
	res := b.Render(map[string]formula.Value{
		"temp": formula.Num(21.5),
		"hum":  formula.Num(43.2),
	})
	require.EqualValues(t, 6, len(res))

	require.EqualValues(t, "t", res[0].WidgetID)
	require.EqualValues(t, "Temperature", res[0].Title)
	require.EqualValues(t, formula.Num(70.7), res[0].Value)
	require.EqualValues(t, "70.7 °F", res[0].Text)
	require.False(t, res[0].Fallback)

	require.EqualValues(t, formula.Str("high"), res[1].Value)
	require.EqualValues(t, "high", res[1].Text)

	require.EqualValues(t, formula.Num(43.2), res[2].Value)
	require.EqualValues(t, "43 %", res[2].Text)

	require.True(t, res[3].Fallback)
	require.EqualValues(t, formula.Num(43.2), res[3].Value)
	require.EqualValues(t, "43.2", res[3].Text)

	require.True(t, res[4].Fallback)
	require.EqualValues(t, res[4].Raw, res[4].Value)

	require.EqualValues(t, formula.Null(), res[5].Raw)
	require.EqualValues(t, formula.Num(0), res[5].Value)
}

func TestFormatValue(t *testing.T) {
	w := Widget{Unit: "kWh", Decimals: decimals(2)}
	require.EqualValues(t, "1.50 kWh", w.FormatValue(formula.Num(1.5)))
	require.EqualValues(t, "on kWh", w.FormatValue(formula.Str("on")))
	require.EqualValues(t, NoData, w.FormatValue(formula.Null()))
	w = Widget{}
	require.EqualValues(t, "true", w.FormatValue(formula.Bool(true)))
	require.EqualValues(t, "0.1", w.FormatValue(formula.Num(0.1)))
}

func TestWidgetValidate(t *testing.T) {
	w := Widget{ID: "a", Sensor: "x", Formula: "clamp(value, 0)"}
	err := w.Validate()
	var ce *formula.CompileError
	require.True(t, errors.As(err, &ce))
	require.EqualValues(t, "ArityMismatch", ce.Reason())

	w.Formula = "clamp(value, 0, 1)"
	require.NoError(t, w.Validate())

	w.Formula = "clamp(x, 0, 1)"
	require.Error(t, w.Validate())
	require.NoError(t, w.Validate(formula.WithPlaceholder("x")))

	require.Error(t, (&Widget{ID: "b"}).Validate())
	require.Error(t, (&Widget{ID: "c", Sensor: "x", Decimals: decimals(-1)}).Validate())
}

func TestRefresher(t *testing.T) {
	t.Run("1", func(t *testing.T) {
		b := NewBoard(testWidgets()[:1], nil, nil)
		var mutex sync.Mutex
		temp := 0.0
		src := ReadingSourceFunc(func() (map[string]formula.Value, error) {
			mutex.Lock()
			defer mutex.Unlock()
			temp += 100
			return map[string]formula.Value{"temp": formula.Num(temp)}, nil
		})
		r := NewRefresher(b, src, RefresherOptions{Period: 5 * time.Millisecond})
		r.Start()

		got := make([]string, 0)
		done := make(chan struct{})
		go func() {
			r.Updates(func(d []Display) {
				if len(got) < 2 {
					got = append(got, d[0].Text)
				}
			})
			close(done)
		}()
		require.Eventually(t, func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return temp >= 300
		}, time.Second, time.Millisecond)
		r.Stop()
		<-done
		require.EqualValues(t, []string{"212.0 °F", "392.0 °F"}, got)
	})
	t.Run("2", func(t *testing.T) {
		b := NewBoard(testWidgets(), nil, nil)
		failing := ReadingSourceFunc(func() (map[string]formula.Value, error) {
			return nil, errors.New("sensor gateway is down")
		})
		r := NewRefresher(b, failing, RefresherOptions{})
		r.Refresh()
		r.Stop()
		count := 0
		r.Updates(func([]Display) { count++ })
		require.EqualValues(t, 0, count)
	})
	t.Run("3", func(t *testing.T) {
		b := NewBoard(testWidgets(), nil, nil)
		r := NewRefresher(b, StaticReadings(map[string]formula.Value{"hum": formula.Num(1)}), RefresherOptions{QueueCapacity: 2})
		for i := 0; i < 5; i++ {
			r.Refresh()
		}
		r.Stop()
		count := 0
		r.Updates(func([]Display) { count++ })
		require.EqualValues(t, 2, count)
		require.EqualValues(t, 3, r.Dropped())
	})
	t.Run("after stop", func(t *testing.T) {
		b := NewBoard(testWidgets(), nil, nil)
		r := NewRefresher(b, StaticReadings(map[string]formula.Value{"hum": formula.Num(1)}), RefresherOptions{})
		r.Refresh()
		r.Stop()
		require.NotPanics(t, func() {
			r.Refresh()
			r.Stop()
		})
		count := 0
		r.Updates(func([]Display) { count++ })
		require.EqualValues(t, 1, count)
	})
	t.Run("delay", func(t *testing.T) {
		b := NewBoard(testWidgets()[:1], nil, nil)
		var calls atomic.Int32
		src := ReadingSourceFunc(func() (map[string]formula.Value, error) {
			calls.Inc()
			return map[string]formula.Value{"temp": formula.Num(0)}, nil
		})
		r := NewRefresher(b, src, RefresherOptions{Period: time.Hour, Delay: 30 * time.Millisecond})
		r.Start()
		require.EqualValues(t, 0, calls.Load())

		got := make(chan Display, 1)
		go r.Updates(func(d []Display) {
			got <- d[0]
		})
		select {
		case d := <-got:
			require.EqualValues(t, "32.0 °F", d.Text)
		case <-time.After(time.Second):
			t.Fatal("delayed refresh did not happen")
		}
		r.Stop()
		require.EqualValues(t, 1, calls.Load())
	})
}

func TestLoadBoardFile(t *testing.T) {
	dir := t.TempDir()
	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(dir, "board.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[[widgets]]
id = "boiler"
sensor = "boiler.temp"
formula = "helpers.round(toF(value), 1)"
unit = "°F"

[[widgets]]
sensor = "door"
formula = 'value ? "open" : "closed"'

[readings]
"boiler.temp" = 20
door = true
`), 0o644))
		bf, err := LoadBoardFile(path)
		require.NoError(t, err)
		require.EqualValues(t, 2, len(bf.Widgets))
		require.EqualValues(t, "boiler", bf.Widgets[0].ID)
		require.NotEmpty(t, bf.Widgets[1].ID)
		require.NoError(t, bf.Validate())

		readings, err := bf.ReadingValues()
		require.NoError(t, err)
		res := NewBoard(bf.Widgets, nil, nil).Render(readings)
		require.EqualValues(t, "68 °F", res[0].Text)
		require.EqualValues(t, "open", res[1].Text)
	})
	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "board.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
widgets:
  - id: a
    sensor: x
    formula: "foo(value)"
  - id: b
    sensor: x
    formula: "clamp(value, 1)"
readings:
  x: 3
`), 0o644))
		bf, err := LoadBoardFile(path)
		require.NoError(t, err)
		err = bf.Validate()
		require.Error(t, err)
		require.True(t, errors.Is(err, &formula.ParseError{Kind: formula.UnknownFunction}))
		require.True(t, errors.Is(err, &formula.ParseError{Kind: formula.ArityMismatch}))

		readings, err := bf.ReadingValues()
		require.NoError(t, err)
		require.EqualValues(t, formula.Num(3), readings["x"])
	})
	t.Run("duplicate", func(t *testing.T) {
		path := filepath.Join(dir, "dup.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
widgets:
  - {id: a, sensor: x}
  - {id: a, sensor: y}
`), 0o644))
		_, err := LoadBoardFile(path)
		require.Error(t, err)
	})
}
