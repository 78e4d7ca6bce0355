// Command benchmark runs the lc3sim timing benchmark suite.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results as a JSON report
//	-config     Path to a pipeline configuration JSON file
//	-no-icache  Disable instruction cache modeling
//	-no-dcache  Disable data cache modeling
//	-validate   Fail with a nonzero exit when a benchmark misses its
//	            expected registers, memory, or output
//
// Example:
//
//	# Run the suite with human-readable output
//	go run ./cmd/benchmark
//
//	# Compare pipeline shapes in a spreadsheet
//	go run ./cmd/benchmark -csv > five_stage.csv
//	go run ./cmd/benchmark -csv -config shallow.json > three_stage.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/lc3sim/benchmarks"
	"github.com/sarchlab/lc3sim/timing/pipeline"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	configPath := flag.String("config", "", "Path to pipeline configuration JSON file")
	noICache := flag.Bool("no-icache", false, "Disable instruction cache modeling")
	noDCache := flag.Bool("no-dcache", false, "Disable data cache modeling")
	validate := flag.Bool("validate", false, "Check results against expectations")
	flag.Parse()

	pipeConfig := pipeline.DefaultConfig()
	if *configPath != "" {
		var err error
		pipeConfig, err = pipeline.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading pipeline config: %v\n", err)
			os.Exit(1)
		}
	}
	pipeConfig.ICache.Enabled = pipeConfig.ICache.Enabled && !*noICache
	pipeConfig.DCache.Enabled = pipeConfig.DCache.Enabled && !*noDCache

	config := benchmarks.DefaultConfig()
	config.Pipeline = pipeConfig
	config.Output = os.Stdout

	harness := benchmarks.NewHarness(config)
	suite := benchmarks.GetMicrobenchmarks()
	harness.AddBenchmarks(suite)

	if !*csvOutput && !*jsonOutput {
		fmt.Println("lc3sim Timing Benchmark Harness")
		fmt.Println("===============================")
		fmt.Printf("Pipeline: %s (depth %d)\n", pipeConfig.Name, pipeConfig.Depth)
		fmt.Printf("I-Cache: %v\n", pipeConfig.ICache.Enabled)
		fmt.Printf("D-Cache: %v\n", pipeConfig.DCache.Enabled)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON report: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	if *validate {
		failed := 0
		for i, r := range results {
			if err := benchmarks.Validate(suite[i], r); err != nil {
				fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
				failed++
			}
		}
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d benchmarks failed validation\n",
				failed, len(results))
			os.Exit(1)
		}
	}
}
