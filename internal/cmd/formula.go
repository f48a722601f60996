package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/lunfardo314/widgetfl/formula"
	"github.com/lunfardo314/widgetfl/internal/api"
	"github.com/lunfardo314/widgetfl/internal/style"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <formula>",
	Short: "Validate a formula and print its canonical form",
	Long: `Compile the formula without evaluating it.

Prints the fully parenthesized form if the formula is valid, otherwise
the error kind with the position in the source. Exit code is 1 for invalid formula.

Examples:
  wfl check 'value * 2 + 1'         # ((value * 2) + 1)
  wfl check 'clamp(value, 0)'       # ArityMismatch @ 0`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var (
	evalValue    string
	evalFallback string
)

var evalCmd = &cobra.Command{
	Use:   "eval <formula>",
	Short: "Evaluate a formula with a reading",
	Long: `Evaluate the formula with the reading given as JSON scalar and print the result as JSON.

With --fallback any compile or evaluation error results in the fallback value
and exit code 0, the same way widgets fall back to the raw reading.

Examples:
  wfl eval 'toF(value)' --value 21.5
  wfl eval 'value ? "open" : "closed"' --value true
  wfl eval 'value / 0' --value 1 --fallback null`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

var helpersJSON bool

var helpersCmd = &cobra.Command{
	Use:   "helpers",
	Short: "List helper functions available in formulas",
	Args:  cobra.NoArgs,
	RunE:  runHelpers,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalValue, "value", "null", "Reading as JSON: number, string, boolean or null")
	evalCmd.Flags().StringVar(&evalFallback, "fallback", "", "Result as JSON in case of any error")

	rootCmd.AddCommand(helpersCmd)
	helpersCmd.Flags().BoolVar(&helpersJSON, "json", false, "Output as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	f, err := env.cache.Get(args[0])
	if err != nil {
		printCompileError(cmd.ErrOrStderr(), err)
		return errReported
	}
	fmt.Fprintln(cmd.OutOrStdout(), f.String())
	return nil
}

func parseValueFlag(name, data string) (formula.Value, error) {
	var ret formula.Value
	if err := json.Unmarshal([]byte(data), &ret); err != nil {
		return formula.Null(), fmt.Errorf("--%s: %w", name, err)
	}
	return ret, nil
}

func runEval(cmd *cobra.Command, args []string) error {
	v, err := parseValueFlag("value", evalValue)
	if err != nil {
		return err
	}
	var res formula.Value
	if evalFallback != "" {
		fallback, err := parseValueFlag("fallback", evalFallback)
		if err != nil {
			return err
		}
		res = env.cache.EvaluateOrFallback(args[0], v, fallback)
	} else {
		f, err := env.cache.Get(args[0])
		if err != nil {
			printCompileError(cmd.ErrOrStderr(), err)
			return errReported
		}
		if res, err = f.Evaluate(v); err != nil {
			printCompileError(cmd.ErrOrStderr(), err)
			return errReported
		}
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runHelpers(cmd *cobra.Command, _ []string) error {
	lib := formula.Helpers()
	if helpersJSON {
		lst := make([]api.HelperInfo, len(lib))
		for i, h := range lib {
			lst[i] = api.HelperInfo{Name: h.Name, MinArgs: h.Arity.Min, MaxArgs: h.Arity.Max, Doc: h.Doc}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(lst)
	}
	tbl := style.NewTable(cmd.OutOrStdout(), "NAME", "ARGS", "DESCRIPTION")
	for _, h := range lib {
		tbl.AddRow(h.Name, h.Arity.String(), h.Doc)
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), tbl.Render())
	return err
}
