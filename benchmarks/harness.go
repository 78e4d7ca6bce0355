// Package benchmarks provides ready-made LC-3 programs and a harness for
// exercising the pipeline timing model against them.
package benchmarks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sarchlab/lc3sim/emu"
	"github.com/sarchlab/lc3sim/isa"
	"github.com/sarchlab/lc3sim/timing/core"
	"github.com/sarchlab/lc3sim/timing/pipeline"
)

// defaultInstructionBound caps a benchmark run when the harness config
// does not set its own limit.
const defaultInstructionBound = 1_000_000

// reportVersion tags JSON reports so result files from different harness
// revisions can be told apart.
const reportVersion = "1.0.0"

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing model
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// MicroSteps is the functional machine's micro-cycle count
	MicroSteps uint64 `json:"micro_steps"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// IPC is instructions per cycle
	IPC float64 `json:"ipc"`

	// Efficiency is achieved IPC relative to the pipeline's ideal width
	Efficiency float64 `json:"efficiency_percent"`

	// StallCycles is the number of stall cycles
	StallCycles uint64 `json:"stall_cycles"`

	// Hazard counts by class
	DataHazards       uint64 `json:"data_hazards"`
	ControlHazards    uint64 `json:"control_hazards"`
	StructuralHazards uint64 `json:"structural_hazards"`

	// ICacheHits/Misses (if the detailed caches are enabled)
	ICacheHits   uint64 `json:"icache_hits,omitempty"`
	ICacheMisses uint64 `json:"icache_misses,omitempty"`

	// DCacheHits/Misses (if the detailed caches are enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// Branch outcome counts
	BranchesTotal   uint64 `json:"branches_total,omitempty"`
	BranchesCorrect uint64 `json:"branches_correct,omitempty"`
	BranchesWrong   uint64 `json:"branches_wrong,omitempty"`

	// Memory traffic
	MemoryReads       uint64 `json:"memory_reads"`
	MemoryWrites      uint64 `json:"memory_writes"`
	MemoryStallCycles uint64 `json:"memory_stall_cycles"`

	// Registers is the architectural register file after the run
	Registers [isa.NumRegisters]uint16 `json:"registers"`

	// Memory holds the words the benchmark's expectations name,
	// captured after the run
	Memory map[uint16]uint16 `json:"-"`

	// Output is everything the program wrote through the display
	Output string `json:"output,omitempty"`

	// Halted reports whether the machine reached a terminal state
	Halted bool `json:"halted"`

	// Fault carries the error text when the run ended in a fault
	Fault string `json:"fault,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Origin is the load address. Zero selects the start of user space.
	Origin uint16

	// Program is the LC-3 machine code to execute
	Program []uint16

	// Input feeds the keyboard device
	Input string

	// Setup adjusts machine state after the program loads
	Setup func(m *emu.Machine)

	// ExpectedRegisters lists register values the run must produce
	ExpectedRegisters map[int]uint16

	// ExpectedMemory lists memory words the run must produce
	ExpectedMemory map[uint16]uint16

	// ExpectedOutput is the exact display output the run must produce
	ExpectedOutput string
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Pipeline selects the timing configuration. Nil runs the defaults.
	Pipeline *pipeline.Config

	// MaxInstructions bounds each run, zero meaning the package default
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables a progress line per benchmark
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		MaxInstructions: defaultInstructionBound,
		Output:          os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Pipeline == nil {
		config.Pipeline = pipeline.DefaultConfig()
	}
	if config.MaxInstructions == 0 {
		config.MaxInstructions = defaultInstructionBound
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh machine.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{Name: bench.Name, Description: bench.Description}

	var out bytes.Buffer
	machine := emu.NewMachine(
		emu.WithInput(strings.NewReader(bench.Input)),
		emu.WithOutput(&out),
	)

	origin := bench.Origin
	if origin == 0 {
		origin = isa.UserSpaceBase
	}
	if err := machine.LoadProgram(bench.Program, origin); err != nil {
		result.Fault = err.Error()
		return result
	}
	if bench.Setup != nil {
		bench.Setup(machine)
	}

	c, err := core.NewCore(machine, h.config.Pipeline)
	if err != nil {
		result.Fault = err.Error()
		return result
	}

	start := time.Now()
	report, runErr := c.Run(h.config.MaxInstructions)
	result.WallTime = time.Since(start)
	if runErr != nil {
		result.Fault = runErr.Error()
	}

	m := report.Metrics
	result.SimulatedCycles = m.TotalCycles
	result.InstructionsRetired = m.TotalInstructions
	result.MicroSteps = report.MicroSteps
	result.CPI = m.CPI()
	result.IPC = m.IPC()
	result.Efficiency = m.Efficiency() * 100
	result.StallCycles = m.StallCycles
	result.DataHazards = m.DataHazards
	result.ControlHazards = m.ControlHazards
	result.StructuralHazards = m.StructuralHazards
	result.ICacheHits = m.ICacheHits
	result.ICacheMisses = m.ICacheMisses
	result.DCacheHits = m.DCacheHits
	result.DCacheMisses = m.DCacheMisses
	result.BranchesTotal = m.BranchesTotal
	result.BranchesCorrect = m.BranchesPredictedCorrect
	result.BranchesWrong = m.BranchesPredictedWrong
	result.MemoryReads = m.MemoryReads
	result.MemoryWrites = m.MemoryWrites
	result.MemoryStallCycles = m.MemoryStallCycles
	result.Halted = report.Halted
	result.Output = out.String()

	for i := 0; i < isa.NumRegisters; i++ {
		v, _ := machine.Register(i)
		result.Registers[i] = v
	}
	if len(bench.ExpectedMemory) > 0 {
		result.Memory = make(map[uint16]uint16, len(bench.ExpectedMemory))
		for addr := range bench.ExpectedMemory {
			result.Memory[addr] = machine.ReadMemory(addr)
		}
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "ran %s: %d instructions, %d cycles\n",
			bench.Name, result.InstructionsRetired, result.SimulatedCycles)
	}

	return result
}

// Validate checks a result against the benchmark's expectations.
func Validate(bench Benchmark, result BenchmarkResult) error {
	if result.Fault != "" {
		return fmt.Errorf("%s faulted: %s", bench.Name, result.Fault)
	}
	if !result.Halted {
		return fmt.Errorf("%s did not halt", bench.Name)
	}
	for reg, want := range bench.ExpectedRegisters {
		if got := result.Registers[reg]; got != want {
			return fmt.Errorf("%s: R%d = x%04X, want x%04X",
				bench.Name, reg, got, want)
		}
	}
	for addr, want := range bench.ExpectedMemory {
		if got := result.Memory[addr]; got != want {
			return fmt.Errorf("%s: M[x%04X] = x%04X, want x%04X",
				bench.Name, addr, got, want)
		}
	}
	if bench.ExpectedOutput != "" && result.Output != bench.ExpectedOutput {
		return fmt.Errorf("%s: output %q, want %q",
			bench.Name, result.Output, bench.ExpectedOutput)
	}
	return nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== LC-3 Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Fault != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Fault: %s\n", r.Fault)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  Micro Steps:          %d\n", r.MicroSteps)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Data Hazards:         %d\n", r.DataHazards)
		_, _ = fmt.Fprintf(h.config.Output, "  Control Hazards:      %d\n", r.ControlHazards)
		_, _ = fmt.Fprintf(h.config.Output, "  Structural Hazards:   %d\n", r.StructuralHazards)

		if r.ICacheHits > 0 || r.ICacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- I-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.ICacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.ICacheMisses)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DCacheMisses)
		}

		if r.BranchesTotal > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Branches ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Total:           %d\n", r.BranchesTotal)
			_, _ = fmt.Fprintf(h.config.Output, "  Predicted Right: %d\n", r.BranchesCorrect)
			_, _ = fmt.Fprintf(h.config.Output, "  Predicted Wrong: %d\n", r.BranchesWrong)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Memory: %d reads, %d writes, %d stall cycles\n",
			r.MemoryReads, r.MemoryWrites, r.MemoryStallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,data_hazards,control_hazards,structural_hazards,icache_hits,icache_misses,dcache_hits,dcache_misses,branches,mispredictions")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.DataHazards,
			r.ControlHazards,
			r.StructuralHazards,
			r.ICacheHits,
			r.ICacheMisses,
			r.DCacheHits,
			r.DCacheMisses,
			r.BranchesTotal,
			r.BranchesWrong,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the harness report format
	Version string `json:"version"`

	// Config describes the pipeline configuration used
	Config RunConfig `json:"config"`
}

// RunConfig describes the pipeline configuration a report was made with.
type RunConfig struct {
	PipelineName     string `json:"pipeline_name"`
	Depth            int    `json:"depth"`
	Forwarding       bool   `json:"forwarding"`
	BranchPrediction bool   `json:"branch_prediction"`
	DetailedCaches   bool   `json:"detailed_caches"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	cfg := h.config.Pipeline
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   reportVersion,
			Config: RunConfig{
				PipelineName:     cfg.Name,
				Depth:            cfg.Depth,
				Forwarding:       cfg.ForwardingEnabled,
				BranchPrediction: cfg.BranchPredictionEnabled,
				DetailedCaches:   cfg.UseDetailedCaches,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
