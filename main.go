// Package main provides the entry point for lc3sim.
// lc3sim is a cycle-level LC-3 machine emulator with a configurable
// pipeline performance model.
//
// For the full CLI, use: go run ./cmd/lc3sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("lc3sim - LC-3 Cycle-Level Emulator")
	fmt.Println("Micro-state functional engine with a pipeline timing model")
	fmt.Println("")
	fmt.Println("Usage: lc3sim [options] <program.obj>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -timing    Enable pipeline timing simulation")
	fmt.Println("  -config    Path to pipeline configuration JSON file")
	fmt.Println("  -hex       Treat the program as a hex text listing")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/lc3sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/lc3sim' instead.")
	}
}
