// Command goatx explores the GOAT shoe-ranking dataset: a web dashboard plus
// command-line chart, KPI, regression and snapshot tools.
package main

import (
	"os"
)

func main() {

	setupEnvironment()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
