// Package cmd implements the wfl command line: checking, evaluating and previewing
// widget formulas, and serving the formula API.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lunfardo314/widgetfl/formula"
	"github.com/lunfardo314/widgetfl/internal/config"
	"github.com/lunfardo314/widgetfl/util/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	debugMode  bool
)

// errReported means the diagnostics are already printed, only the exit code is left
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "wfl",
	Short: "Widget formula language tool",
	Long: `wfl checks and evaluates dashboard widget formulas.

A formula computes the displayed value from the sensor reading bound to 'value':

  helpers.round(toF(value), 1)
  value > 30 ? "hot" : "ok"
  clamp(value, 0, 100)`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML or YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

// environment shared by the commands, built from the config before any command runs
type environment struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	cache *formula.Cache
}

var env environment

func setup(_ *cobra.Command, _ []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if debugMode {
		cfg.Log.Debug = true
	}
	env.cfg = cfg
	env.log = logger.New("wfl", cfg.Log.Debug)
	env.cache = formula.NewCache(formula.CacheOptions{
		MaxEntries: cfg.Cache.MaxEntries,
		Options:    cfg.FormulaOptions(),
		Log:        env.log,
	})
	env.log.Debugf("engine: max tokens %d, max depth %d, placeholder '%s', legacy truthiness %v",
		cfg.Engine.MaxTokens, cfg.Engine.MaxDepth, cfg.Engine.Placeholder, cfg.Engine.LegacyTruthiness)
	return nil
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if env.log != nil {
		_ = env.log.Sync()
	}
	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

// printCompileError shows the diagnostics with the caret under the position
func printCompileError(w io.Writer, err error) {
	var ce *formula.CompileError
	if errors.As(err, &ce) {
		fmt.Fprintf(w, "%s @ %d: %s\n%s\n", ce.Reason(), ce.Pos, ce.Msg, ce.Snippet())
		return
	}
	var ee *formula.EvalError
	if errors.As(err, &ee) {
		fmt.Fprintf(w, "%s @ %d: %s\n", ee.Kind, ee.Pos, ee.Msg)
		return
	}
	fmt.Fprintln(w, err)
}
