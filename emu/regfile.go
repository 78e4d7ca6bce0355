// Package emu provides functional LC-3 emulation.
package emu

// RegFile represents the LC-3 register file.
// It contains 8 general-purpose registers (R0-R7), the program counter,
// the instruction register, the memory address/data registers of the
// datapath, and the condition codes.
type RegFile struct {
	// R holds general-purpose registers R0-R7. R6 doubles as the
	// supervisor stack pointer and R7 as the subroutine link register.
	R [8]uint16

	// PC is the program counter.
	PC uint16

	// IR is the instruction register, loaded during fetch.
	IR uint16

	// MAR and MDR are the memory address and memory data registers the
	// micro-states route every memory access through.
	MAR uint16
	MDR uint16

	// CC holds the condition codes.
	CC CondCodes

	// Supervisor is the privilege bit (set means supervisor mode).
	Supervisor bool
}

// CondCodes represents the N/Z/P condition codes. Exactly one flag is set
// at any time; SetFromValue maintains the invariant.
type CondCodes struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// P is the positive flag.
	P bool
}

// String returns the single set flag as "N", "Z", or "P".
func (cc CondCodes) String() string {
	switch {
	case cc.N:
		return "N"
	case cc.Z:
		return "Z"
	case cc.P:
		return "P"
	}
	return "-"
}

// SetFromValue updates the codes from a freshly written register value:
// Z for zero, N when the sign bit is set, P otherwise.
func (cc *CondCodes) SetFromValue(v uint16) {
	cc.N = false
	cc.Z = false
	cc.P = false
	switch {
	case v == 0:
		cc.Z = true
	case v&0x8000 != 0:
		cc.N = true
	default:
		cc.P = true
	}
}

// ReadReg reads a general register. The reg field is a 3-bit instruction
// field, so it is masked rather than bounds-checked.
func (r *RegFile) ReadReg(reg uint8) uint16 {
	return r.R[reg&0x7]
}

// WriteReg writes a general register without touching the condition codes.
// Instruction semantics that set codes do so explicitly via SetCC.
func (r *RegFile) WriteReg(reg uint8, value uint16) {
	r.R[reg&0x7] = value
}

// SetCC writes a general register and refreshes the condition codes from
// the written value, the way every register-writing instruction does.
func (r *RegFile) SetCC(reg uint8, value uint16) {
	r.R[reg&0x7] = value
	r.CC.SetFromValue(value)
}

// Reset returns the register file to its power-on state: all registers
// zero, PC at the start of user space, Z set, supervisor privilege.
func (r *RegFile) Reset(pc uint16) {
	*r = RegFile{PC: pc, Supervisor: true}
	r.CC.Z = true
}
