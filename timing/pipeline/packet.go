package pipeline

import "github.com/sarchlab/lc3sim/isa"

// MaxPacketHazards bounds the hazards recorded on one packet. Later
// conflicts still count in the metrics but are not listed.
const MaxPacketHazards = 4

// Packet is the pipeline's per-instruction record. It carries only what
// can be decoded from the instruction word and issue PC, plus bookkeeping
// the model accumulates while the packet is in flight.
type Packet struct {
	// Valid marks the slot occupied. A zero Packet is an empty slot.
	Valid bool

	// Seq orders packets by issue.
	Seq uint64

	// Instruction is the raw word; PC is the address it was fetched from.
	Instruction uint16
	PC          uint16

	Opcode isa.Opcode

	// Register dependences. HasDest and UsesSrc1/UsesSrc2 state
	// explicitly whether the matching register field participates, so a
	// genuine use of R0 is never confused with "none".
	HasDest  bool
	Dest     uint8
	UsesSrc1 bool
	Src1     uint8
	UsesSrc2 bool
	Src2     uint8

	// Immediate is the sign-extended immediate or offset field, when the
	// instruction form has one.
	Immediate uint16

	IssueCycle      uint64
	CompletionCycle uint64

	// StageDone marks slot positions whose work completed.
	StageDone [MaxDepth]bool

	// Hazards lists the kinds recorded against earlier packets, one entry
	// per conflicting packet. recordedSeqs remembers which packets have
	// been counted so a stalled packet does not recount the same conflict
	// every cycle.
	Hazards      []HazardKind
	recordedSeqs []uint64

	Stalled     bool
	StallCycles uint64

	// Memory classification. MemoryAddress is filled for PC-relative
	// forms, where it is derivable from the word and PC alone;
	// base-register forms keep zero.
	NeedsMemory   bool
	IsLoad        bool
	IsStore       bool
	MemoryAddress uint16

	// Branch classification. Outcomes arrive from the driver at issue;
	// without one the branch trains and scores as not taken.
	IsBranch     bool
	BranchTaken  bool
	BranchTarget uint16
	OutcomeKnown bool
}

// decodePacket classifies one instruction word for the model. The
// incremented PC is the base for PC-relative addresses, matching the
// functional engine's effective-address rule.
func decodePacket(word, pc uint16) Packet {
	p := Packet{
		Valid:       true,
		Instruction: word,
		PC:          pc,
		Opcode:      isa.OpcodeOf(word),
	}
	next := pc + 1

	switch p.Opcode {
	case isa.OpADD, isa.OpAND:
		p.HasDest = true
		p.Dest = isa.DR(word)
		p.UsesSrc1 = true
		p.Src1 = isa.SR1(word)
		if isa.ImmBit(word) {
			p.Immediate = isa.Imm5(word)
		} else {
			p.UsesSrc2 = true
			p.Src2 = isa.SR2(word)
		}

	case isa.OpNOT:
		p.HasDest = true
		p.Dest = isa.DR(word)
		p.UsesSrc1 = true
		p.Src1 = isa.SR1(word)

	case isa.OpLD, isa.OpLDI:
		p.HasDest = true
		p.Dest = isa.DR(word)
		p.Immediate = isa.Offset9(word)
		p.NeedsMemory = true
		p.IsLoad = true
		p.MemoryAddress = next + isa.Offset9(word)

	case isa.OpLEA:
		p.HasDest = true
		p.Dest = isa.DR(word)
		p.Immediate = isa.Offset9(word)

	case isa.OpST, isa.OpSTI:
		// The stored register occupies the DR field.
		p.UsesSrc1 = true
		p.Src1 = isa.DR(word)
		p.Immediate = isa.Offset9(word)
		p.NeedsMemory = true
		p.IsStore = true
		p.MemoryAddress = next + isa.Offset9(word)

	case isa.OpLDR:
		p.HasDest = true
		p.Dest = isa.DR(word)
		p.UsesSrc1 = true
		p.Src1 = isa.BaseR(word)
		p.Immediate = isa.Offset6(word)
		p.NeedsMemory = true
		p.IsLoad = true

	case isa.OpSTR:
		p.UsesSrc1 = true
		p.Src1 = isa.BaseR(word)
		p.UsesSrc2 = true
		p.Src2 = isa.DR(word)
		p.Immediate = isa.Offset6(word)
		p.NeedsMemory = true
		p.IsStore = true

	case isa.OpBR:
		p.IsBranch = true
		p.Immediate = isa.Offset9(word)
		p.BranchTarget = next + isa.Offset9(word)

	case isa.OpJMP:
		p.IsBranch = true
		p.UsesSrc1 = true
		p.Src1 = isa.BaseR(word)

	case isa.OpJSR:
		p.IsBranch = true
		if isa.JSRBit(word) {
			p.Immediate = isa.Offset11(word)
			p.BranchTarget = next + isa.Offset11(word)
		} else {
			p.UsesSrc1 = true
			p.Src1 = isa.BaseR(word)
		}

	case isa.OpTRAP, isa.OpRTI, isa.OpRES:
		// No modeled operands.
	}

	return p
}

// recordedAgainst reports whether a hazard against the packet with the
// given sequence number was already recorded.
func (p *Packet) recordedAgainst(seq uint64) bool {
	for _, s := range p.recordedSeqs {
		if s == seq {
			return true
		}
	}
	return false
}

// recordHazard notes one conflict with an earlier packet. The listed
// kinds are bounded; the dedup memory is not.
func (p *Packet) recordHazard(kind HazardKind, seq uint64) {
	p.recordedSeqs = append(p.recordedSeqs, seq)
	if len(p.Hazards) < MaxPacketHazards {
		p.Hazards = append(p.Hazards, kind)
	}
}
