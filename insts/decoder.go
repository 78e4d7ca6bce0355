package insts

import (
	"fmt"

	"github.com/sarchlab/lc3sim/isa"
)

// Format classifies how an instruction word lays out its operand fields.
type Format uint8

const (
	// FormatOperate covers the register and immediate ALU instructions.
	FormatOperate Format = iota
	// FormatPCRel covers memory instructions addressed relative to the PC.
	FormatPCRel
	// FormatBase covers instructions addressed through a base register.
	FormatBase
	// FormatBranch is the conditional branch.
	FormatBranch
	// FormatJSR is the PC-relative subroutine call.
	FormatJSR
	// FormatTrap is the service routine call.
	FormatTrap
	// FormatImplied covers instructions with no operand fields.
	FormatImplied
	// FormatReserved marks the unused opcode slot.
	FormatReserved
)

// Inst is one decoded instruction word.
type Inst struct {
	Word uint16
	Op   isa.Opcode
	Fmt  Format

	// DR is the destination register field. Stores keep their source
	// register here because the encoding reuses the same bits.
	DR uint8
	// SR1 doubles as the base register for FormatBase instructions.
	SR1 uint8
	SR2 uint8

	// Imm holds the sign-extended immediate or PC-relative offset.
	Imm int16
	// UsesImm reports whether an ALU instruction selected its
	// immediate form.
	UsesImm bool

	// Vector is the trap service vector.
	Vector uint8

	// N, Z, and P are the branch condition bits.
	N, Z, P bool
}

// Decode classifies a single instruction word. Every word decodes to
// something; words under the reserved opcode come back as FormatReserved.
func Decode(word uint16) Inst {
	inst := Inst{Word: word, Op: isa.OpcodeOf(word)}

	switch inst.Op {
	case isa.OpADD, isa.OpAND:
		inst.Fmt = FormatOperate
		inst.DR = isa.DR(word)
		inst.SR1 = isa.SR1(word)
		if isa.ImmBit(word) {
			inst.UsesImm = true
			inst.Imm = int16(isa.Imm5(word))
		} else {
			inst.SR2 = isa.SR2(word)
		}
	case isa.OpNOT:
		inst.Fmt = FormatOperate
		inst.DR = isa.DR(word)
		inst.SR1 = isa.SR1(word)
	case isa.OpLD, isa.OpLDI, isa.OpLEA, isa.OpST, isa.OpSTI:
		inst.Fmt = FormatPCRel
		inst.DR = isa.DR(word)
		inst.Imm = int16(isa.Offset9(word))
	case isa.OpLDR, isa.OpSTR:
		inst.Fmt = FormatBase
		inst.DR = isa.DR(word)
		inst.SR1 = isa.BaseR(word)
		inst.Imm = int16(isa.Offset6(word))
	case isa.OpBR:
		inst.Fmt = FormatBranch
		inst.N, inst.Z, inst.P = isa.CondBits(word)
		inst.Imm = int16(isa.Offset9(word))
	case isa.OpJMP:
		inst.Fmt = FormatBase
		inst.SR1 = isa.BaseR(word)
	case isa.OpJSR:
		if isa.JSRBit(word) {
			inst.Fmt = FormatJSR
			inst.Imm = int16(isa.Offset11(word))
		} else {
			inst.Fmt = FormatBase
			inst.SR1 = isa.BaseR(word)
		}
	case isa.OpTRAP:
		inst.Fmt = FormatTrap
		inst.Vector = isa.Vector(word)
	case isa.OpRTI:
		inst.Fmt = FormatImplied
	default:
		inst.Fmt = FormatReserved
	}

	return inst
}

// trapNames covers the service vectors the architecture names.
var trapNames = map[uint8]string{
	isa.TrapGETC:  "GETC",
	isa.TrapOUT:   "OUT",
	isa.TrapPUTS:  "PUTS",
	isa.TrapIN:    "IN",
	isa.TrapPUTSP: "PUTSP",
	isa.TrapHALT:  "HALT",
}

// String renders the instruction in assembler syntax. A branch with no
// condition bits renders as NOP, JMP through R7 as RET, and named trap
// vectors by their alias. Reserved words render as raw data.
func (i Inst) String() string {
	switch i.Op {
	case isa.OpADD, isa.OpAND:
		if i.UsesImm {
			return fmt.Sprintf("%s R%d, R%d, #%d", i.Op, i.DR, i.SR1, i.Imm)
		}
		return fmt.Sprintf("%s R%d, R%d, R%d", i.Op, i.DR, i.SR1, i.SR2)
	case isa.OpNOT:
		return fmt.Sprintf("NOT R%d, R%d", i.DR, i.SR1)
	case isa.OpLD, isa.OpLDI, isa.OpLEA, isa.OpST, isa.OpSTI:
		return fmt.Sprintf("%s R%d, #%d", i.Op, i.DR, i.Imm)
	case isa.OpLDR, isa.OpSTR:
		return fmt.Sprintf("%s R%d, R%d, #%d", i.Op, i.DR, i.SR1, i.Imm)
	case isa.OpBR:
		if !i.N && !i.Z && !i.P {
			return "NOP"
		}
		return fmt.Sprintf("BR%s #%d", condSuffix(i.N, i.Z, i.P), i.Imm)
	case isa.OpJMP:
		if i.SR1 == 7 {
			return "RET"
		}
		return fmt.Sprintf("JMP R%d", i.SR1)
	case isa.OpJSR:
		if i.Fmt == FormatJSR {
			return fmt.Sprintf("JSR #%d", i.Imm)
		}
		return fmt.Sprintf("JSRR R%d", i.SR1)
	case isa.OpTRAP:
		if name, ok := trapNames[i.Vector]; ok {
			return name
		}
		return fmt.Sprintf("TRAP x%02X", i.Vector)
	case isa.OpRTI:
		return "RTI"
	default:
		return fmt.Sprintf(".FILL x%04X", i.Word)
	}
}

func condSuffix(n, z, p bool) string {
	s := ""
	if n {
		s += "n"
	}
	if z {
		s += "z"
	}
	if p {
		s += "p"
	}
	return s
}
