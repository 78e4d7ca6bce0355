// Package main provides accuracy validation for the timing model.
// It checks that every pipeline configuration leaves the functional
// results of the benchmark suite untouched: timing is an observer, and
// any configuration that changes a register, memory word, or output
// byte is a defect.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sarchlab/lc3sim/benchmarks"
	"github.com/sarchlab/lc3sim/timing/pipeline"
)

// shapes lists the pipeline configurations the suite must run identically
// under.
func shapes() map[string]*pipeline.Config {
	deep := pipeline.DefaultConfig()
	deep.Name = "8-Stage"
	deep.Depth = 8
	deep.Stages = []pipeline.StageKind{
		pipeline.StageFetch, pipeline.StageDecode, pipeline.StageExecute,
		pipeline.StageExecute, pipeline.StageMemory, pipeline.StageMemory,
		pipeline.StageWriteback, pipeline.StageWriteback,
	}

	shallow := pipeline.DefaultConfig()
	shallow.Name = "3-Stage"
	shallow.Depth = 3
	shallow.Stages = []pipeline.StageKind{
		pipeline.StageFetch, pipeline.StageExecute, pipeline.StageWriteback,
	}

	noForwarding := pipeline.DefaultConfig()
	noForwarding.ForwardingEnabled = false

	predicted := pipeline.DefaultConfig()
	predicted.BranchPredictionEnabled = true

	detailed := pipeline.DefaultConfig()
	detailed.UseDetailedCaches = true

	noCaches := pipeline.DefaultConfig()
	noCaches.ICache.Enabled = false
	noCaches.DCache.Enabled = false

	return map[string]*pipeline.Config{
		"default":        pipeline.DefaultConfig(),
		"deep":           deep,
		"shallow":        shallow,
		"no-forwarding":  noForwarding,
		"predicted":      predicted,
		"detailed-cache": detailed,
		"no-caches":      noCaches,
	}
}

func validateShape(name string, config *pipeline.Config) int {
	harnessConfig := benchmarks.DefaultConfig()
	harnessConfig.Pipeline = config
	harnessConfig.Output = &bytes.Buffer{}

	harness := benchmarks.NewHarness(harnessConfig)
	suite := benchmarks.GetMicrobenchmarks()
	harness.AddBenchmarks(suite)

	failures := 0
	for i, result := range harness.RunAll() {
		if err := benchmarks.Validate(suite[i], result); err != nil {
			fmt.Printf("FAIL [%s] %v\n", name, err)
			failures++
			continue
		}
		fmt.Printf("ok   [%s] %s: %d cycles, CPI %.3f\n",
			name, result.Name, result.SimulatedCycles, result.CPI)
	}
	return failures
}

func main() {
	fmt.Println("lc3sim timing accuracy validation")
	fmt.Println("=================================")

	failures := 0
	for name, config := range shapes() {
		failures += validateShape(name, config)
	}

	fmt.Println()
	if failures > 0 {
		fmt.Printf("%d validation failures\n", failures)
		os.Exit(1)
	}
	fmt.Println("All configurations preserve functional results.")
}
