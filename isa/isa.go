// Package isa defines the anatomy of LC-3 instruction words.
//
// The LC-3 is a 16-bit, word-addressed teaching architecture: bits 15:12
// carry the opcode and the remaining bits carry register numbers, immediates,
// and PC-relative offsets depending on the instruction format. This package
// provides the opcode enumeration, field extractors, sign extension, and the
// fixed architectural addresses (trap vectors, device registers, memory
// regions) shared by the functional engine and the timing model.
//
// Usage:
//
//	op := isa.OpcodeOf(0x1025) // ADD R0, R0, #5
//	dr := isa.DR(0x1025)      // 0
//	imm := isa.Imm5(0x1025)   // 5
package isa

// Opcode identifies an LC-3 instruction class (bits 15:12 of the word).
type Opcode uint8

// LC-3 opcodes. The numeric values are architectural: the microcoded decode
// state dispatches on them directly.
const (
	OpBR   Opcode = 0x0 // conditional branch
	OpADD  Opcode = 0x1 // add (register or imm5)
	OpLD   Opcode = 0x2 // PC-relative load
	OpST   Opcode = 0x3 // PC-relative store
	OpJSR  Opcode = 0x4 // jump to subroutine (JSR/JSRR by bit 11)
	OpAND  Opcode = 0x5 // and (register or imm5)
	OpLDR  Opcode = 0x6 // base+offset6 load
	OpSTR  Opcode = 0x7 // base+offset6 store
	OpRTI  Opcode = 0x8 // return from interrupt
	OpNOT  Opcode = 0x9 // bitwise complement
	OpLDI  Opcode = 0xA // indirect load
	OpSTI  Opcode = 0xB // indirect store
	OpJMP  Opcode = 0xC // jump through base register (RET when base is R7)
	OpRES  Opcode = 0xD // reserved, illegal
	OpLEA  Opcode = 0xE // load effective address
	OpTRAP Opcode = 0xF // system call through the trap vector table
)

var opcodeNames = [16]string{
	"BR", "ADD", "LD", "ST", "JSR", "AND", "LDR", "STR",
	"RTI", "NOT", "LDI", "STI", "JMP", "RES", "LEA", "TRAP",
}

// String returns the assembler mnemonic for the opcode.
func (op Opcode) String() string {
	if op > 0xF {
		return "???"
	}
	return opcodeNames[op]
}

// OpcodeOf extracts the opcode from an instruction word.
func OpcodeOf(word uint16) Opcode {
	return Opcode(word >> 12)
}

// NumRegisters is the number of general-purpose registers.
const NumRegisters = 8

// Register field extractors. Field positions follow the LC-3 encoding:
// bits 11:9 name the destination (or the source for stores and the
// condition mask for BR), bits 8:6 the first source or base register,
// bits 2:0 the second source.

// DR returns bits 11:9, the destination register field.
func DR(word uint16) uint8 {
	return uint8((word >> 9) & 0x7)
}

// SR1 returns bits 8:6, the first source register field.
func SR1(word uint16) uint8 {
	return uint8((word >> 6) & 0x7)
}

// SR2 returns bits 2:0, the second source register field.
func SR2(word uint16) uint8 {
	return uint8(word & 0x7)
}

// BaseR returns bits 8:6 read as a base register (JMP, JSRR, LDR, STR).
func BaseR(word uint16) uint8 {
	return SR1(word)
}

// ImmBit reports whether bit 5 selects immediate mode for ADD and AND.
func ImmBit(word uint16) bool {
	return word&0x0020 != 0
}

// JSRBit reports whether bit 11 selects the PC-relative JSR form
// (clear means JSRR through a base register).
func JSRBit(word uint16) bool {
	return word&0x0800 != 0
}

// CondBits returns the n, z, p condition mask of a BR instruction
// (bits 11, 10, and 9).
func CondBits(word uint16) (n, z, p bool) {
	return word&0x0800 != 0, word&0x0400 != 0, word&0x0200 != 0
}

// SignExtend interprets the low bits of v as a bits-wide two's-complement
// value and widens it to 16 bits.
func SignExtend(v uint16, bits uint) uint16 {
	mask := uint16(1)<<bits - 1
	v &= mask
	if v&(1<<(bits-1)) != 0 {
		v |= ^mask
	}
	return v
}

// Imm5 returns the sign-extended 5-bit immediate of ADD/AND.
func Imm5(word uint16) uint16 {
	return SignExtend(word, 5)
}

// Offset6 returns the sign-extended 6-bit offset of LDR/STR.
func Offset6(word uint16) uint16 {
	return SignExtend(word, 6)
}

// Offset9 returns the sign-extended 9-bit PC-relative offset.
func Offset9(word uint16) uint16 {
	return SignExtend(word, 9)
}

// Offset11 returns the sign-extended 11-bit offset of JSR.
func Offset11(word uint16) uint16 {
	return SignExtend(word, 11)
}

// Vector returns the zero-extended 8-bit trap vector of a TRAP word.
func Vector(word uint16) uint8 {
	return uint8(word & 0xFF)
}

// Trap vectors recognized by the built-in service routines.
const (
	TrapGETC  uint8 = 0x20 // read one character into R0
	TrapOUT   uint8 = 0x21 // write the character in R0
	TrapPUTS  uint8 = 0x22 // write the zero-terminated word string at R0
	TrapIN    uint8 = 0x23 // read one character into R0
	TrapPUTSP uint8 = 0x24 // write the packed byte string at R0
	TrapHALT  uint8 = 0x25 // stop the clock
)

// Memory region boundaries. Regions are ascending and non-overlapping
// except that the trap and interrupt vector tables sit inside system space.
const (
	TrapVectorBase       uint16 = 0x0000
	TrapVectorLimit      uint16 = 0x00FF
	InterruptVectorBase  uint16 = 0x0100
	InterruptVectorLimit uint16 = 0x01FF
	SystemSpaceBase      uint16 = 0x0000
	SystemSpaceLimit     uint16 = 0x2FFF
	UserSpaceBase        uint16 = 0x3000
	UserSpaceLimit       uint16 = 0xFDFF
	DeviceBase           uint16 = 0xFE00
	DeviceLimit          uint16 = 0xFFFF
)

// Memory-mapped device register addresses.
const (
	AddrKBSR uint16 = 0xFE00 // keyboard status
	AddrKBDR uint16 = 0xFE02 // keyboard data
	AddrDSR  uint16 = 0xFE04 // display status
	AddrDDR  uint16 = 0xFE06 // display data
	AddrPSR  uint16 = 0xFFFC // processor status word
	AddrMCR  uint16 = 0xFFFE // machine control register
)

// Bits within the PSR and MCR words.
const (
	PSRSupervisorBit   uint16 = 0x8000
	PSRNegativeBit     uint16 = 0x0004
	PSRZeroBit         uint16 = 0x0002
	PSRPositiveBit     uint16 = 0x0001
	MCRRunBit          uint16 = 0x8000
	StatusReadyBit     uint16 = 0x8000 // KBSR/DSR ready flag
	StatusInterruptBit uint16 = 0x4000 // KBSR interrupt enable
)
