// Package main provides a profiling wrapper for lc3sim to identify
// simulator performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/lc3sim/emu"
	"github.com/sarchlab/lc3sim/loader"
	"github.com/sarchlab/lc3sim/timing/core"
	"github.com/sarchlab/lc3sim/timing/pipeline"
)

var (
	timing      = flag.Bool("timing", false, "Enable timing simulation mode")
	hexInput    = flag.Bool("hex", false, "Treat the program as a hex text listing")
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 1000000, "max instructions to execute (0 = unlimited)")
	repeat      = flag.Int("repeat", 1, "number of times to repeat the run")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.obj>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)
	prog, err := loadProgram(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Origin: x%04X (%d words)\n", prog.Origin, len(prog.Words))

	// The timeout only guards profiling runs of non-halting programs.
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	start := time.Now()

	var instrCount, microSteps uint64
	for i := 0; i < *repeat; i++ {
		if *timing {
			instrCount, microSteps = runTimingProfile(prog)
		} else {
			instrCount, microSteps = runEmulationProfile(prog)
		}
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Runs: %d\n", *repeat)
	fmt.Printf("Instructions executed (last run): %d\n", instrCount)
	fmt.Printf("Micro-steps (last run): %d\n", microSteps)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	total := instrCount * uint64(*repeat)
	if total > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(total)/elapsed.Seconds())
	}
}

func loadProgram(path string) (*loader.Program, error) {
	if *hexInput {
		return loader.LoadHex(path)
	}
	return loader.Load(path)
}

func newMachine(prog *loader.Program) (*emu.Machine, error) {
	machine := emu.NewMachine()
	if err := machine.LoadProgram(prog.Words, prog.Origin); err != nil {
		return nil, err
	}
	return machine, nil
}

// runEmulationProfile runs the program on the functional engine alone.
func runEmulationProfile(prog *loader.Program) (uint64, uint64) {
	machine, err := newMachine(prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	var instrCount uint64
	for !machine.Halted() {
		if *instruction > 0 && instrCount >= *instruction {
			break
		}
		if _, err := machine.StepInstruction(); err != nil {
			fmt.Fprintf(os.Stderr, "profile: %v\n", err)
			break
		}
		instrCount++
	}

	return instrCount, machine.MicroSteps()
}

// runTimingProfile runs the program with the pipeline model alongside.
func runTimingProfile(prog *loader.Program) (uint64, uint64) {
	machine, err := newMachine(prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	c, err := core.NewCore(machine, pipeline.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", err)
		os.Exit(1)
	}

	report, runErr := c.Run(*instruction)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", runErr)
	}

	return report.Instructions, report.MicroSteps
}
