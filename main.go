// main.go
//
// Minimal entry point that delegates CLI handling to the Cobra root command in cmd/root.go
// (run, sweep and serve are registered there and in their own files).

package main

import (
	"github.com/inference-sim/desim/cmd"
)

func main() {
	cmd.Execute()
}
