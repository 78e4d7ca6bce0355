package emu

import (
	"fmt"

	"github.com/sarchlab/lc3sim/isa"
)

// TrapHandler services trap vectors whose table entry is empty. Handlers
// run at the point where a hardware LC-3 would enter the service routine:
// R7 already holds the return address and privilege is raised.
type TrapHandler interface {
	// Service executes the builtin behavior for vector. A non-nil error
	// faults the machine.
	Service(m *Machine, vector uint8) error
}

// DefaultTrapHandler implements the six standard trap services against the
// machine's keyboard and display devices.
type DefaultTrapHandler struct{}

// Service dispatches on the trap vector.
func (h DefaultTrapHandler) Service(m *Machine, vector uint8) error {
	switch vector {
	case isa.TrapGETC, isa.TrapIN:
		return h.serviceGetc(m)
	case isa.TrapOUT:
		return h.serviceOut(m)
	case isa.TrapPUTS:
		return h.servicePuts(m)
	case isa.TrapPUTSP:
		return h.servicePutsp(m)
	case isa.TrapHALT:
		return h.serviceHalt(m)
	default:
		return fmt.Errorf("trap x%02X: %w", vector, ErrUnknownTrap)
	}
}

// serviceGetc reads one character into R0 and refreshes the condition
// codes. A byte already latched in KBDR is consumed before new input, and
// end of input reads as NUL.
func (h DefaultTrapHandler) serviceGetc(m *Machine) error {
	kbsr := m.memory.Read(isa.AddrKBSR)

	var b byte
	if kbsr&isa.StatusReadyBit != 0 {
		b = byte(m.memory.Read(isa.AddrKBDR))
	} else if m.input != nil {
		if rb, err := m.input.ReadByte(); err == nil {
			b = rb
		}
	}

	m.regs.SetCC(0, uint16(b))
	m.memory.Write(isa.AddrKBDR, uint16(b))
	m.memory.Write(isa.AddrKBSR, kbsr&^isa.StatusReadyBit)
	return nil
}

// serviceOut writes the character in R0's low byte to the display.
func (h DefaultTrapHandler) serviceOut(m *Machine) error {
	m.writeDisplay(byte(m.regs.ReadReg(0)))
	return nil
}

// servicePuts writes the word string starting at R0, one character per
// word, stopping at a zero word. A string with no terminator stops after
// one pass over memory.
func (h DefaultTrapHandler) servicePuts(m *Machine) error {
	addr := m.regs.ReadReg(0)
	for n := 0; n < MemorySize; n++ {
		w := m.memory.Read(addr)
		if w == 0 {
			break
		}
		m.writeDisplay(byte(w))
		addr++
	}
	return nil
}

// servicePutsp writes the packed byte string starting at R0, low byte then
// high byte per word, stopping at a zero word. A zero high byte pads an
// odd-length string and is not written.
func (h DefaultTrapHandler) servicePutsp(m *Machine) error {
	addr := m.regs.ReadReg(0)
	for n := 0; n < MemorySize; n++ {
		w := m.memory.Read(addr)
		if w == 0 {
			break
		}
		m.writeDisplay(byte(w))
		if hi := byte(w >> 8); hi != 0 {
			m.writeDisplay(hi)
		}
		addr++
	}
	return nil
}

// serviceHalt clears the machine control register's run bit. The machine
// parks in the halt state on the same micro-step.
func (h DefaultTrapHandler) serviceHalt(m *Machine) error {
	mcr := m.memory.Read(isa.AddrMCR)
	m.memory.Write(isa.AddrMCR, mcr&^isa.MCRRunBit)
	return nil
}

// serviceTrap finishes a trap at the end of the trap micro-sequence. MDR
// holds the vector table entry fetched in the previous state: a nonzero
// entry transfers control to a loaded routine, an empty entry runs the
// builtin service and returns to R7 with the caller's privilege restored.
func (m *Machine) serviceTrap() {
	if m.regs.MDR != 0 {
		m.regs.PC = m.regs.MDR
		return
	}

	if err := m.trap.Service(m, isa.Vector(m.regs.IR)); err != nil {
		m.fail(err)
		return
	}

	m.regs.PC = m.regs.ReadReg(7)
	m.regs.Supervisor = m.trapPriv
}
