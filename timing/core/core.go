// Package core couples the functional machine with the pipeline timing
// model. The machine remains the source of architectural truth; every
// instruction it executes is mirrored into the pipeline as a packet, so
// the pipeline observes nothing but instruction words, addresses, and
// resolved branch outcomes.
package core

import (
	"github.com/sarchlab/lc3sim/emu"
	"github.com/sarchlab/lc3sim/isa"
	"github.com/sarchlab/lc3sim/timing/pipeline"
)

// drainCycleBound caps the post-run drain. In-flight packets clear in a
// handful of cycles per pipeline slot, so the bound only guards against
// a broken configuration.
const drainCycleBound = 1024

// Report is the combined outcome of a timed run.
type Report struct {
	// Instructions is the number of instructions the machine executed.
	Instructions uint64
	// MicroSteps is the number of micro-cycles the machine took.
	MicroSteps uint64
	// Metrics is the pipeline's counter snapshot after draining.
	Metrics pipeline.Metrics
	// Halted reports whether the machine reached a terminal state.
	Halted bool
}

// Core drives one Machine and one Pipeline in lockstep, one instruction
// at a time.
type Core struct {
	machine *emu.Machine
	pipe    *pipeline.Pipeline

	instructions uint64
}

// NewCore builds a core around the machine with a pipeline for the given
// configuration. A nil config selects the pipeline defaults. The
// machine's memory backs the detailed cache models when the
// configuration selects them.
func NewCore(machine *emu.Machine, config *pipeline.Config) (*Core, error) {
	pipe, err := pipeline.New(config)
	if err != nil {
		return nil, err
	}
	pipe.SetBackingStore(machine)
	return &Core{machine: machine, pipe: pipe}, nil
}

// Machine returns the functional engine.
func (c *Core) Machine() *emu.Machine {
	return c.machine
}

// Pipeline returns the timing model.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.pipe
}

// StepInstruction executes one instruction on the machine and accounts
// for it in the pipeline. Branch outcomes are derived by comparing the
// machine's PC afterward against the fall-through address. A structural
// drop at issue is retried after another pipeline cycle; each retried
// cycle is already counted by the pipeline as a structural stall.
func (c *Core) StepInstruction() error {
	pc := c.machine.PC()
	word := c.machine.ReadMemory(pc)
	op := isa.OpcodeOf(word)

	if _, err := c.machine.StepInstruction(); err != nil {
		return err
	}
	c.instructions++

	var opts []pipeline.IssueOption
	switch op {
	case isa.OpBR, isa.OpJMP, isa.OpJSR:
		after := c.machine.PC()
		opts = append(opts, pipeline.WithBranchOutcome(after != pc+1, after))
	}

	for !c.pipe.Issue(word, pc, opts...) {
		c.pipe.Cycle()
	}
	c.pipe.Cycle()
	return nil
}

// Run executes instructions until the machine halts or maxInstructions
// is reached (0 means unbounded), drains the pipeline, and returns the
// combined report. The report is valid even when an engine error cuts
// the run short.
func (c *Core) Run(maxInstructions uint64) (Report, error) {
	for !c.machine.Halted() {
		if maxInstructions > 0 && c.instructions >= maxInstructions {
			break
		}
		if err := c.StepInstruction(); err != nil {
			c.pipe.Drain(drainCycleBound)
			return c.report(), err
		}
	}
	c.pipe.Drain(drainCycleBound)
	return c.report(), nil
}

func (c *Core) report() Report {
	return Report{
		Instructions: c.instructions,
		MicroSteps:   c.machine.MicroSteps(),
		Metrics:      c.pipe.Metrics(),
		Halted:       c.machine.Halted(),
	}
}
