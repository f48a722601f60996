// wfl checks, evaluates and serves dashboard widget formulas.
package main

import (
	"os"

	"github.com/lunfardo314/widgetfl/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
