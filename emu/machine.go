package emu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/lc3sim/isa"
)

// Execution faults. The machine records the first fault and parks in the
// error state; Err surfaces it.
var (
	ErrUnknownOpcode   = errors.New("unknown or reserved opcode")
	ErrUnknownTrap     = errors.New("unknown trap vector")
	ErrRegisterIndex   = errors.New("register index out of range")
	ErrAccessViolation = errors.New("memory access violation")
)

// Machine is a complete LC-3 processor: memory, register file, control
// signals, and the micro-sequencer position. All mutable state lives here;
// two machines never share anything except the control store, which is
// read-only.
type Machine struct {
	memory  *Memory
	regs    RegFile
	signals Signals
	state   State
	store   *ControlStore
	trap    TrapHandler
	input   *bufio.Reader
	output  io.Writer

	halted     bool
	err        error
	trapPriv   bool
	microSteps uint64
}

// Option configures a Machine at construction time.
type Option func(*Machine)

// WithInput directs keyboard input to read from r instead of stdin.
func WithInput(r io.Reader) Option {
	return func(m *Machine) { m.input = bufio.NewReader(r) }
}

// WithOutput directs display output to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(m *Machine) { m.output = w }
}

// WithTrapHandler replaces the builtin trap services.
func WithTrapHandler(h TrapHandler) Option {
	return func(m *Machine) { m.trap = h }
}

// WithControlStore runs the machine on a custom microcode table.
func WithControlStore(cs *ControlStore) Option {
	return func(m *Machine) { m.store = cs }
}

// NewMachine builds a machine in the reset state.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		memory: NewMemory(),
		store:  DefaultControlStore(),
		input:  bufio.NewReader(os.Stdin),
		output: os.Stdout,
		trap:   DefaultTrapHandler{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Reset()
	return m
}

// Reset restores power-on state: memory cleared, device status registers
// seeded, PC at the start of user space, condition codes showing zero,
// supervisor privilege.
func (m *Machine) Reset() {
	m.memory.Clear()
	m.memory.Write(isa.AddrDSR, isa.StatusReadyBit)
	m.memory.Write(isa.AddrMCR, isa.MCRRunBit)

	m.regs.Reset(isa.UserSpaceBase)
	m.memory.Write(isa.AddrPSR, m.psrWord())

	m.signals.Reset()
	m.state = StateFetch1
	m.halted = false
	m.err = nil
	m.trapPriv = true
	m.microSteps = 0
}

// LoadProgram copies words into memory starting at origin and points PC at
// the first word.
func (m *Machine) LoadProgram(words []uint16, origin uint16) error {
	if uint32(origin)+uint32(len(words)) > MemorySize {
		return fmt.Errorf("program of %d words at x%04X overflows memory",
			len(words), origin)
	}
	m.memory.LoadWords(origin, words)
	m.regs.PC = origin
	return nil
}

// StepResult describes one micro-step: the state whose body ran and the
// state the sequencer selected after it.
type StepResult struct {
	Executed State
	Next     State
	Halted   bool
}

// Step advances the machine one micro-state. On a terminal machine it is a
// no-op. The returned error is non-nil only for the step that faults; the
// fault stays readable through Err afterwards.
func (m *Machine) Step() (StepResult, error) {
	if m.halted || m.err != nil {
		return StepResult{Executed: m.state, Next: m.state, Halted: true}, nil
	}

	s := m.state
	m.signals.R = false
	m.executeState(s)
	m.microSteps++

	if m.err != nil {
		m.state = StateError
		m.halted = true
		return StepResult{Executed: s, Next: m.state, Halted: true}, m.err
	}

	next := m.nextState(m.store[s])
	if next >= NumStates {
		m.fail(fmt.Errorf("micro-sequencer selected state %d of %d", next, NumStates))
		m.state = StateError
		m.halted = true
		return StepResult{Executed: s, Next: m.state, Halted: true}, m.err
	}
	m.state = next

	if m.memory.Read(isa.AddrMCR)&isa.MCRRunBit == 0 {
		m.halted = true
		m.state = StateHalt
	}

	return StepResult{Executed: s, Next: m.state, Halted: m.halted}, nil
}

// StepInstruction micro-steps until the machine is back at fetch or
// terminal, completing exactly one instruction. It returns the number of
// micro-steps taken.
func (m *Machine) StepInstruction() (int, error) {
	if m.halted || m.err != nil {
		return 0, m.err
	}
	steps := 0
	for {
		res, err := m.Step()
		steps++
		if err != nil || res.Halted {
			return steps, err
		}
		if res.Next == StateFetch1 {
			return steps, nil
		}
	}
}

// Run micro-steps until the machine reaches a terminal state or maxSteps
// steps have run. The bound guards against programs that never halt.
func (m *Machine) Run(maxSteps uint64) (uint64, error) {
	var steps uint64
	for steps < maxSteps {
		if m.halted || m.err != nil {
			return steps, m.err
		}
		if _, err := m.Step(); err != nil {
			return steps + 1, err
		}
		steps++
	}
	return steps, nil
}

// Register reads general register reg.
func (m *Machine) Register(reg int) (uint16, error) {
	if reg < 0 || reg >= isa.NumRegisters {
		return 0, fmt.Errorf("R%d: %w", reg, ErrRegisterIndex)
	}
	return m.regs.ReadReg(uint8(reg)), nil
}

// SetRegister writes general register reg and refreshes the condition
// codes from the written value.
func (m *Machine) SetRegister(reg int, value uint16) error {
	if reg < 0 || reg >= isa.NumRegisters {
		return fmt.Errorf("R%d: %w", reg, ErrRegisterIndex)
	}
	m.regs.SetCC(uint8(reg), value)
	return nil
}

// PC returns the program counter.
func (m *Machine) PC() uint16 { return m.regs.PC }

// SetPC points the program counter at addr.
func (m *Machine) SetPC(addr uint16) { m.regs.PC = addr }

// ReadMemory reads one word without device side effects, so it is safe for
// debuggers and tests. The PSR address reads through the register file.
func (m *Machine) ReadMemory(addr uint16) uint16 {
	if addr == isa.AddrPSR {
		return m.psrWord()
	}
	return m.memory.Read(addr)
}

// WriteMemory writes one word. The PSR address writes through to privilege
// and condition codes.
func (m *Machine) WriteMemory(addr, value uint16) {
	if addr == isa.AddrPSR {
		m.setPSR(value)
		return
	}
	m.memory.Write(addr, value)
}

// ConditionCodes returns the current N/Z/P flags.
func (m *Machine) ConditionCodes() CondCodes { return m.regs.CC }

// Halted reports whether the machine reached a terminal state, either a
// clean halt or a fault.
func (m *Machine) Halted() bool { return m.halted || m.err != nil }

// Err returns the fault that parked the machine in the error state, or nil.
func (m *Machine) Err() error { return m.err }

// State returns the current control state.
func (m *Machine) State() State { return m.state }

// MicroSteps returns the number of micro-states executed since reset.
func (m *Machine) MicroSteps() uint64 { return m.microSteps }

// RaiseInterrupt marks an external interrupt pending. The machine takes it
// at the next fetch from user mode.
func (m *Machine) RaiseInterrupt() { m.signals.INT = true }

func (m *Machine) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// setMAR latches a memory address and recomputes the access-violation
// signal for it.
func (m *Machine) setMAR(addr uint16) {
	m.regs.MAR = addr
	m.signals.UpdateACV(addr, m.regs.Supervisor)
}

// memRead performs the MDR <- M[MAR] transfer of a memory-access state,
// faulting on an access violation. It reports whether the read happened.
func (m *Machine) memRead() bool {
	if m.signals.ACV {
		m.fail(fmt.Errorf("read x%04X: %w", m.regs.MAR, ErrAccessViolation))
		return false
	}
	m.regs.MDR = m.busRead(m.regs.MAR)
	m.signals.R = true
	return true
}

// memWrite performs the M[MAR] <- MDR transfer, faulting on an access
// violation.
func (m *Machine) memWrite() bool {
	if m.signals.ACV {
		m.fail(fmt.Errorf("write x%04X: %w", m.regs.MAR, ErrAccessViolation))
		return false
	}
	m.busWrite(m.regs.MAR, m.regs.MDR)
	m.signals.R = true
	return true
}

// busRead reads a word the way the processor does, with device register
// side effects: KBSR polls the keyboard, KBDR consumes the latched byte,
// PSR reads through the register file.
func (m *Machine) busRead(addr uint16) uint16 {
	switch addr {
	case isa.AddrKBSR:
		m.pollKeyboard()
	case isa.AddrKBDR:
		kbsr := m.memory.Read(isa.AddrKBSR)
		m.memory.Write(isa.AddrKBSR, kbsr&^isa.StatusReadyBit)
	case isa.AddrPSR:
		return m.psrWord()
	}
	return m.memory.Read(addr)
}

// busWrite writes a word the way the processor does: DDR forwards to the
// display, PSR writes through to privilege and condition codes.
func (m *Machine) busWrite(addr, value uint16) {
	switch addr {
	case isa.AddrDDR:
		m.writeDisplay(byte(value))
	case isa.AddrPSR:
		m.setPSR(value)
	default:
		m.memory.Write(addr, value)
	}
}

// pollKeyboard latches the next input byte into KBDR when none is pending.
// A latched byte sets the KBSR ready bit and, when the interrupt enable
// bit is set, raises the keyboard interrupt.
func (m *Machine) pollKeyboard() {
	kbsr := m.memory.Read(isa.AddrKBSR)
	if kbsr&isa.StatusReadyBit != 0 || m.input == nil {
		return
	}
	if _, err := m.input.Peek(1); err != nil {
		return
	}
	b, err := m.input.ReadByte()
	if err != nil {
		return
	}
	m.memory.Write(isa.AddrKBDR, uint16(b))
	m.memory.Write(isa.AddrKBSR, kbsr|isa.StatusReadyBit)
	if kbsr&isa.StatusInterruptBit != 0 {
		m.signals.INT = true
	}
}

// writeDisplay emits one character and refreshes the display registers.
func (m *Machine) writeDisplay(b byte) {
	if m.output != nil {
		m.output.Write([]byte{b})
	}
	m.memory.Write(isa.AddrDDR, uint16(b))
	m.memory.Write(isa.AddrDSR, isa.StatusReadyBit)
}

// psrWord composes the processor status word from privilege and the
// condition codes.
func (m *Machine) psrWord() uint16 {
	var psr uint16
	if m.regs.Supervisor {
		psr |= isa.PSRSupervisorBit
	}
	switch {
	case m.regs.CC.N:
		psr |= isa.PSRNegativeBit
	case m.regs.CC.Z:
		psr |= isa.PSRZeroBit
	case m.regs.CC.P:
		psr |= isa.PSRPositiveBit
	}
	return psr
}

// setPSR decomposes a processor status word into privilege and condition
// codes, keeping exactly one condition code set.
func (m *Machine) setPSR(v uint16) {
	m.regs.Supervisor = v&isa.PSRSupervisorBit != 0
	switch {
	case v&isa.PSRNegativeBit != 0:
		m.regs.CC = CondCodes{N: true}
	case v&isa.PSRZeroBit != 0:
		m.regs.CC = CondCodes{Z: true}
	case v&isa.PSRPositiveBit != 0:
		m.regs.CC = CondCodes{P: true}
	default:
		m.regs.CC = CondCodes{Z: true}
	}
}
