// Package main provides the entry point for lc3sim.
// lc3sim is a cycle-level LC-3 machine emulator with an optional
// pipeline timing model.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/lc3sim/emu"
	"github.com/sarchlab/lc3sim/insts"
	"github.com/sarchlab/lc3sim/loader"
	"github.com/sarchlab/lc3sim/timing/core"
	"github.com/sarchlab/lc3sim/timing/pipeline"
)

var (
	timing     = flag.Bool("timing", false, "Enable pipeline timing simulation")
	configPath = flag.String("config", "", "Path to pipeline configuration JSON file")
	depth      = flag.Int("depth", 0, "Override pipeline depth (1-8)")
	forwarding = flag.Bool("forwarding", true, "Enable data forwarding")
	branchPred = flag.Bool("branch-prediction", false, "Enable branch prediction")
	outOfOrder = flag.Bool("out-of-order", false, "Model out-of-order execution")
	hexInput   = flag.Bool("hex", false, "Treat the program as a hex text listing")
	maxInsts   = flag.Uint64("max-instructions", 1000000, "Instruction limit, 0 for unbounded")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: lc3sim [options] <program.obj>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)
	prog, err := loadProgram(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Origin: x%04X\n", prog.Origin)
		fmt.Printf("Words: %d\n", len(prog.Words))
		for i, w := range prog.Words {
			fmt.Printf("  x%04X  %04X  %s\n",
				prog.Origin+uint16(i), w, insts.Decode(w))
		}
	}

	machine := emu.NewMachine()
	if err := machine.LoadProgram(prog.Words, prog.Origin); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *timing {
		os.Exit(runTiming(machine))
	}
	os.Exit(runFunctional(machine))
}

func loadProgram(path string) (*loader.Program, error) {
	if *hexInput {
		return loader.LoadHex(path)
	}
	return loader.Load(path)
}

// runFunctional runs the program on the functional engine alone.
func runFunctional(machine *emu.Machine) int {
	var executed uint64
	for !machine.Halted() {
		if *maxInsts > 0 && executed >= *maxInsts {
			break
		}
		if *verbose {
			pc := machine.PC()
			fmt.Printf("x%04X  %s\n", pc, insts.Decode(machine.ReadMemory(pc)))
		}
		if _, err := machine.StepInstruction(); err != nil {
			fmt.Fprintf(os.Stderr, "lc3sim: %v\n", err)
			printMachineState(machine)
			return 1
		}
		executed++
	}

	if *verbose {
		fmt.Printf("Instructions executed: %d\n", executed)
	}
	printMachineState(machine)
	return 0
}

// runTiming runs the program with the pipeline model alongside and
// prints the configuration and the performance report.
func runTiming(machine *emu.Machine) int {
	cfg, err := buildPipelineConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading pipeline config: %v\n", err)
		return 1
	}

	c, err := core.NewCore(machine, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lc3sim: %v\n", err)
		return 1
	}

	printPipelineConfig(c.Pipeline().Config())

	report, runErr := c.Run(*maxInsts)
	printMachineState(machine)
	printMetrics(report.Metrics)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "lc3sim: %v\n", runErr)
		return 1
	}
	return 0
}

// buildPipelineConfig layers explicit command-line overrides on top of
// the config file (or the defaults).
func buildPipelineConfig() (*pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = pipeline.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "depth":
			cfg.Depth = *depth
			cfg.Stages = stagesForDepth(*depth)
		case "forwarding":
			cfg.ForwardingEnabled = *forwarding
		case "branch-prediction":
			cfg.BranchPredictionEnabled = *branchPred
		case "out-of-order":
			cfg.OutOfOrderExecution = *outOfOrder
		}
	})

	return cfg, nil
}

// stagesForDepth builds a canonical stage list for a depth override.
// Shallow pipes drop the tail stages; deep pipes pad with extra stages
// before writeback.
func stagesForDepth(depth int) []pipeline.StageKind {
	switch depth {
	case 1:
		return []pipeline.StageKind{pipeline.StageExecute}
	case 2:
		return []pipeline.StageKind{pipeline.StageFetch, pipeline.StageExecute}
	case 3:
		return []pipeline.StageKind{
			pipeline.StageFetch, pipeline.StageDecode, pipeline.StageExecute,
		}
	case 4:
		return []pipeline.StageKind{
			pipeline.StageFetch, pipeline.StageDecode, pipeline.StageExecute,
			pipeline.StageWriteback,
		}
	default:
		stages := []pipeline.StageKind{
			pipeline.StageFetch, pipeline.StageDecode, pipeline.StageExecute,
			pipeline.StageMemory,
		}
		for len(stages) < depth-1 {
			stages = append(stages, pipeline.StageCustom)
		}
		return append(stages, pipeline.StageWriteback)
	}
}

func printMachineState(m *emu.Machine) {
	fmt.Printf("\n=== Machine State ===\n")
	fmt.Printf("PC: x%04X  State: %s  Micro-steps: %d\n",
		m.PC(), m.State(), m.MicroSteps())
	for i := 0; i < 8; i++ {
		v, _ := m.Register(i)
		fmt.Printf("R%d: x%04X", i, v)
		if i%4 == 3 {
			fmt.Println()
		} else {
			fmt.Print("  ")
		}
	}
	fmt.Printf("CC: %s\n", m.ConditionCodes())
}

func printPipelineConfig(cfg *pipeline.Config) {
	fmt.Printf("=== Pipeline Configuration ===\n")
	fmt.Printf("Name: %s\n", cfg.Name)
	fmt.Printf("Depth: %d stages\n", cfg.Depth)
	fmt.Printf("Stages: %s\n", stageList(cfg.Stages))
	fmt.Printf("Forwarding: %s\n", onOff(cfg.ForwardingEnabled))
	fmt.Printf("Branch Prediction: %s\n", onOff(cfg.BranchPredictionEnabled))
	fmt.Printf("Out-of-Order: %s\n", onOff(cfg.OutOfOrderExecution))
	fmt.Printf("Clock: %d MHz\n", cfg.ClockFrequency)
	fmt.Printf("Branch Penalty: %d cycles\n", cfg.BranchPenalty)
	fmt.Printf("I-Cache: %s\n", cacheLine(cfg.ICache))
	fmt.Printf("D-Cache: %s\n", cacheLine(cfg.DCache))
}

func printMetrics(m pipeline.Metrics) {
	fmt.Printf("\n=== Pipeline Performance Metrics ===\n")
	fmt.Printf("Total Cycles: %d\n", m.TotalCycles)
	fmt.Printf("Total Instructions: %d\n", m.TotalInstructions)
	fmt.Printf("CPI: %.3f\n", m.CPI())
	fmt.Printf("IPC: %.3f\n", m.IPC())
	fmt.Printf("Pipeline Efficiency: %.1f%%\n", m.Efficiency()*100)
	fmt.Printf("Stall Cycles: %d\n", m.StallCycles)
	fmt.Printf("Data Hazards: %d\n", m.DataHazards)
	fmt.Printf("Control Hazards: %d\n", m.ControlHazards)
	fmt.Printf("Structural Hazards: %d\n", m.StructuralHazards)
	fmt.Printf("I-Cache: %d hits, %d misses (%s hit rate)\n",
		m.ICacheHits, m.ICacheMisses, hitRate(m.ICacheHits, m.ICacheMisses))
	fmt.Printf("D-Cache: %d hits, %d misses (%s hit rate)\n",
		m.DCacheHits, m.DCacheMisses, hitRate(m.DCacheHits, m.DCacheMisses))
	fmt.Printf("Branches: %d total, %d predicted correct, %d mispredicted\n",
		m.BranchesTotal, m.BranchesPredictedCorrect, m.BranchesPredictedWrong)
	fmt.Printf("Memory: %d reads, %d writes, %d stall cycles\n",
		m.MemoryReads, m.MemoryWrites, m.MemoryStallCycles)
}

func stageList(stages []pipeline.StageKind) string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return strings.Join(names, " ")
}

func hitRate(hits, misses uint64) string {
	total := hits + misses
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(hits)/float64(total)*100)
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func cacheLine(cc pipeline.CacheConfig) string {
	if !cc.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("%d B, %d B lines, %d-way, hit %d, miss penalty %d",
		cc.Size, cc.LineSize, cc.Associativity, cc.HitLatency, cc.MissPenalty)
}
