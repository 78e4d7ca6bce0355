package emu

import "github.com/sarchlab/lc3sim/isa"

// executeState runs the data-path work of one control state. Sequencing is
// not done here: the caller advances the state through the control store
// after the body runs.
func (m *Machine) executeState(s State) {
	ir := m.regs.IR

	switch s {
	case StateFetch1:
		m.setMAR(m.regs.PC)
		m.regs.PC++

	case StateFetch2, StateLD2, StateLDR2, StateLDI3, StateSTI2, StateTRAP3:
		m.memRead()

	case StateFetch3:
		m.regs.IR = m.regs.MDR

	case StateDecode:
		m.signals.UpdateBEN(ir, m.regs.CC)

	case StateADD:
		a := m.regs.ReadReg(isa.SR1(ir))
		m.regs.SetCC(isa.DR(ir), a+m.operand2(ir))

	case StateAND:
		a := m.regs.ReadReg(isa.SR1(ir))
		m.regs.SetCC(isa.DR(ir), a&m.operand2(ir))

	case StateNOT:
		m.regs.SetCC(isa.DR(ir), ^m.regs.ReadReg(isa.SR1(ir)))

	case StateLEA:
		m.regs.SetCC(isa.DR(ir), m.regs.PC+isa.Offset9(ir))

	case StateBR:
		// BEN was latched at decode; the sequencer routes on it.

	case StateBRTaken:
		m.regs.PC += isa.Offset9(ir)

	case StateJMP:
		m.regs.PC = m.regs.ReadReg(isa.BaseR(ir))

	case StateJSRSel:
		// IR[11] routing only.

	case StateJSR:
		ret := m.regs.PC
		m.regs.PC += isa.Offset11(ir)
		m.regs.WriteReg(7, ret)

	case StateJSRR:
		ret := m.regs.PC
		m.regs.PC = m.regs.ReadReg(isa.BaseR(ir))
		m.regs.WriteReg(7, ret)

	case StateLD1, StateST1, StateLDI1, StateSTI1:
		m.setMAR(m.regs.PC + isa.Offset9(ir))

	case StateLDR1, StateSTR1:
		m.setMAR(m.regs.ReadReg(isa.BaseR(ir)) + isa.Offset6(ir))

	case StateLD3, StateLDR3, StateLDI4:
		m.regs.SetCC(isa.DR(ir), m.regs.MDR)

	case StateLDI2:
		if m.memRead() {
			m.setMAR(m.regs.MDR)
		}

	case StateSTPrep:
		// The store source register occupies the DR field.
		m.regs.MDR = m.regs.ReadReg(isa.DR(ir))

	case StateSTR2:
		m.regs.MDR = m.regs.ReadReg(isa.DR(ir))
		m.memWrite()

	case StateSTI3:
		m.setMAR(m.regs.MDR)

	case StateMemW:
		m.memWrite()

	case StateTRAP1:
		// Vector table fetch and the service routine run at supervisor
		// privilege. The builtin-service return path restores the
		// caller's privilege in StateTRAP4.
		m.regs.WriteReg(7, m.regs.PC)
		m.trapPriv = m.regs.Supervisor
		m.regs.Supervisor = true

	case StateTRAP2:
		m.setMAR(uint16(isa.Vector(ir)))

	case StateTRAP4:
		m.serviceTrap()

	case StateRTI:
		m.returnFromInterrupt()

	case StateIntr:
		m.enterInterrupt()

	case StateRES:
		m.fail(ErrUnknownOpcode)

	case StateHalt, StateError:
		// Terminal states hold.
	}
}

// operand2 resolves the second ALU operand: SR2 in register mode, the
// sign-extended imm5 field otherwise.
func (m *Machine) operand2(ir uint16) uint16 {
	if isa.ImmBit(ir) {
		return isa.Imm5(ir)
	}
	return m.regs.ReadReg(isa.SR2(ir))
}

// returnFromInterrupt pops PC then PSR from the stack pointed to by R6 and
// restores privilege from the popped word. In user mode RTI does nothing
// and control falls back to fetch.
func (m *Machine) returnFromInterrupt() {
	if !m.regs.Supervisor {
		return
	}
	sp := m.regs.ReadReg(6)
	m.regs.PC = m.busRead(sp)
	sp++
	m.setPSR(m.busRead(sp))
	sp++
	m.regs.WriteReg(6, sp)
}

// enterInterrupt pushes PSR then the address of the interrupted instruction
// onto the stack pointed to by R6, raises privilege, and vectors through
// the interrupt vector table. PC was already incremented past the
// interrupted instruction during fetch, so the pushed value backs up one
// word and RTI resumes exactly where the interrupt hit.
func (m *Machine) enterInterrupt() {
	sp := m.regs.ReadReg(6)
	sp--
	m.busWrite(sp, m.psrWord())
	sp--
	m.busWrite(sp, m.regs.PC-1)
	m.regs.WriteReg(6, sp)

	m.regs.Supervisor = true
	m.regs.PC = m.busRead(isa.InterruptVectorBase)
	m.signals.INT = false
}
