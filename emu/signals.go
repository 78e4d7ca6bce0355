// Package emu provides functional LC-3 emulation.
package emu

import "github.com/sarchlab/lc3sim/isa"

// Signals holds the per-cycle control signals the micro-sequencer tests.
// They are derived values: each is recomputed by the micro-state that
// needs it and never carried across instructions.
type Signals struct {
	// BEN is the branch-enable latch, combining the condition codes with
	// the branch condition bits of the instruction register.
	BEN bool

	// ACV is the access-control-violation flag, set when a user-mode
	// access leaves user space.
	ACV bool

	// R is the memory-ready flag. Memory completes in one micro-cycle
	// here, so R is raised by every access; the control store still
	// conditions the read chains on it.
	R bool

	// INT is the external interrupt-pending flag.
	INT bool
}

// UpdateBEN recomputes BEN = (N&n)|(Z&z)|(P&p) from the instruction's
// bits 11:9 and the current condition codes.
func (s *Signals) UpdateBEN(ir uint16, cc CondCodes) {
	n, z, p := isa.CondBits(ir)
	s.BEN = (cc.N && n) || (cc.Z && z) || (cc.P && p)
}

// UpdateACV recomputes ACV for an access at addr: user-mode accesses are
// confined to user space, supervisor accesses are unrestricted.
func (s *Signals) UpdateACV(addr uint16, supervisor bool) {
	s.ACV = (addr < isa.UserSpaceBase || addr > isa.UserSpaceLimit) && !supervisor
}

// Reset clears every signal.
func (s *Signals) Reset() {
	*s = Signals{}
}
