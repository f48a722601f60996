package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunfardo314/widgetfl/dashboard"
	"github.com/lunfardo314/widgetfl/formula"
	"github.com/lunfardo314/widgetfl/internal/style"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	renderJSON  bool
	renderEvery time.Duration
	renderDelay time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render <board-file>",
	Short: "Render dashboard widgets with the readings from the board file",
	Long: `Render every widget of a TOML or YAML board file with the readings snapshot
from the same file. Invalid formulas are reported and their widgets show the raw reading.

With --every the file is re-read and the board rendered again each period until interrupted.

Example board.toml:

  [[widgets]]
  title = "Boiler"
  sensor = "boiler.temp"
  formula = "helpers.round(toF(value), 1)"
  unit = "°F"

  [readings]
  "boiler.temp" = 71.3`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "Output as JSON")
	renderCmd.Flags().DurationVar(&renderEvery, "every", 0, "Re-render periodically, e.g. 5s")
	renderCmd.Flags().DurationVar(&renderDelay, "delay", 0, "With --every, postpone the first render")
}

func runRender(cmd *cobra.Command, args []string) error {
	path := args[0]
	bf, err := dashboard.LoadBoardFile(path)
	if err != nil {
		return err
	}
	for _, e := range multierr.Errors(bf.Validate(env.cfg.FormulaOptions()...)) {
		env.log.Warnf("%s: %v", path, e)
	}
	board := dashboard.NewBoard(bf.Widgets, env.cache, env.log)

	if renderEvery <= 0 {
		readings, err := bf.ReadingValues()
		if err != nil {
			return err
		}
		return printDisplays(cmd.OutOrStdout(), board.Render(readings))
	}

	// widgets are fixed at start, readings are reloaded on every tick
	source := dashboard.ReadingSourceFunc(func() (map[string]formula.Value, error) {
		f, err := dashboard.LoadBoardFile(path)
		if err != nil {
			return nil, err
		}
		return f.ReadingValues()
	})
	r := dashboard.NewRefresher(board, source, dashboard.RefresherOptions{
		Period: renderEvery,
		Delay:  renderDelay,
		Log:    env.log,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.Start()
	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	r.Updates(func(d []dashboard.Display) {
		if err := printDisplays(cmd.OutOrStdout(), d); err != nil {
			env.log.Errorf("render: %v", err)
		}
	})
	if n := r.Dropped(); n > 0 {
		env.log.Warnf("%d update(s) were dropped", n)
	}
	return nil
}

func printDisplays(w io.Writer, lst []dashboard.Display) error {
	if renderJSON {
		return json.NewEncoder(w).Encode(lst)
	}
	tbl := style.NewTable(w, "WIDGET", "VALUE", "")
	for _, d := range lst {
		title := d.Title
		if title == "" {
			title = d.WidgetID
		}
		mark := ""
		if d.Fallback {
			mark = tbl.Styles().Warning.Render("(raw)")
		}
		tbl.AddRow(title, d.Text, mark)
	}
	_, err := fmt.Fprint(w, tbl.Render())
	return err
}
