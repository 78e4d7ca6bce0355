package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lc3sim/insts"
	"github.com/sarchlab/lc3sim/isa"
)

var _ = Describe("Decode", func() {
	Describe("operate instructions", func() {
		// ADD R0, R0, #5     -> 0x1025
		// Encoding: 0001, DR=000, SR1=000, 1, imm5=00101
		It("should decode ADD with an immediate", func() {
			inst := insts.Decode(0x1025)

			Expect(inst.Op).To(Equal(isa.OpADD))
			Expect(inst.Fmt).To(Equal(insts.FormatOperate))
			Expect(inst.DR).To(Equal(uint8(0)))
			Expect(inst.SR1).To(Equal(uint8(0)))
			Expect(inst.UsesImm).To(BeTrue())
			Expect(inst.Imm).To(Equal(int16(5)))
		})

		// ADD R2, R2, #-1    -> 0x14BF
		// Encoding: 0001, DR=010, SR1=010, 1, imm5=11111
		It("should sign-extend a negative immediate", func() {
			inst := insts.Decode(0x14BF)

			Expect(inst.Op).To(Equal(isa.OpADD))
			Expect(inst.Imm).To(Equal(int16(-1)))
		})

		// ADD R3, R1, R2     -> 0x1642
		// Encoding: 0001, DR=011, SR1=001, 0, 00, SR2=010
		It("should decode ADD with two source registers", func() {
			inst := insts.Decode(0x1642)

			Expect(inst.Op).To(Equal(isa.OpADD))
			Expect(inst.DR).To(Equal(uint8(3)))
			Expect(inst.SR1).To(Equal(uint8(1)))
			Expect(inst.SR2).To(Equal(uint8(2)))
			Expect(inst.UsesImm).To(BeFalse())
		})

		// AND R2, R1, R0     -> 0x5440
		// Encoding: 0101, DR=010, SR1=001, 0, 00, SR2=000
		It("should decode AND with two source registers", func() {
			inst := insts.Decode(0x5440)

			Expect(inst.Op).To(Equal(isa.OpAND))
			Expect(inst.Fmt).To(Equal(insts.FormatOperate))
			Expect(inst.DR).To(Equal(uint8(2)))
			Expect(inst.SR1).To(Equal(uint8(1)))
			Expect(inst.SR2).To(Equal(uint8(0)))
		})

		// NOT R3, R0         -> 0x963F
		// Encoding: 1001, DR=011, SR=000, 111111
		It("should decode NOT", func() {
			inst := insts.Decode(0x963F)

			Expect(inst.Op).To(Equal(isa.OpNOT))
			Expect(inst.Fmt).To(Equal(insts.FormatOperate))
			Expect(inst.DR).To(Equal(uint8(3)))
			Expect(inst.SR1).To(Equal(uint8(0)))
		})
	})

	Describe("PC-relative instructions", func() {
		// LD R0, #-4         -> 0x21FC
		// Encoding: 0010, DR=000, offset9=111111100
		It("should decode LD with a backward offset", func() {
			inst := insts.Decode(0x21FC)

			Expect(inst.Op).To(Equal(isa.OpLD))
			Expect(inst.Fmt).To(Equal(insts.FormatPCRel))
			Expect(inst.DR).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int16(-4)))
		})

		// LDI R1, #3         -> 0xA203
		// Encoding: 1010, DR=001, offset9=000000011
		It("should decode LDI", func() {
			inst := insts.Decode(0xA203)

			Expect(inst.Op).To(Equal(isa.OpLDI))
			Expect(inst.DR).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int16(3)))
		})

		// LEA R1, #2         -> 0xE202
		// Encoding: 1110, DR=001, offset9=000000010
		It("should decode LEA", func() {
			inst := insts.Decode(0xE202)

			Expect(inst.Op).To(Equal(isa.OpLEA))
			Expect(inst.Fmt).To(Equal(insts.FormatPCRel))
			Expect(inst.DR).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int16(2)))
		})

		// ST R0, #1          -> 0x3001
		// Encoding: 0011, SR=000, offset9=000000001
		It("should keep a store's source register in the DR field", func() {
			inst := insts.Decode(0x3001)

			Expect(inst.Op).To(Equal(isa.OpST))
			Expect(inst.DR).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int16(1)))
		})

		// STI R3, #3         -> 0xB603
		// Encoding: 1011, SR=011, offset9=000000011
		It("should decode STI", func() {
			inst := insts.Decode(0xB603)

			Expect(inst.Op).To(Equal(isa.OpSTI))
			Expect(inst.DR).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int16(3)))
		})
	})

	Describe("base register instructions", func() {
		// LDR R0, R1, #0     -> 0x6040
		// Encoding: 0110, DR=000, BaseR=001, offset6=000000
		It("should decode LDR", func() {
			inst := insts.Decode(0x6040)

			Expect(inst.Op).To(Equal(isa.OpLDR))
			Expect(inst.Fmt).To(Equal(insts.FormatBase))
			Expect(inst.DR).To(Equal(uint8(0)))
			Expect(inst.SR1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int16(0)))
		})

		// LDR R4, R2, #-3    -> 0x68BD
		// Encoding: 0110, DR=100, BaseR=010, offset6=111101
		It("should sign-extend a negative base offset", func() {
			inst := insts.Decode(0x68BD)

			Expect(inst.Op).To(Equal(isa.OpLDR))
			Expect(inst.DR).To(Equal(uint8(4)))
			Expect(inst.SR1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int16(-3)))
		})

		// STR R0, R1, #1     -> 0x7041
		// Encoding: 0111, SR=000, BaseR=001, offset6=000001
		It("should decode STR", func() {
			inst := insts.Decode(0x7041)

			Expect(inst.Op).To(Equal(isa.OpSTR))
			Expect(inst.Fmt).To(Equal(insts.FormatBase))
			Expect(inst.DR).To(Equal(uint8(0)))
			Expect(inst.SR1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int16(1)))
		})

		// JMP R1             -> 0xC040
		// Encoding: 1100, 000, BaseR=001, 000000
		It("should decode JMP", func() {
			inst := insts.Decode(0xC040)

			Expect(inst.Op).To(Equal(isa.OpJMP))
			Expect(inst.Fmt).To(Equal(insts.FormatBase))
			Expect(inst.SR1).To(Equal(uint8(1)))
		})
	})

	Describe("control transfers", func() {
		// BRp #1             -> 0x0201
		// Encoding: 0000, n=0, z=0, p=1, offset9=000000001
		It("should decode a conditional branch", func() {
			inst := insts.Decode(0x0201)

			Expect(inst.Op).To(Equal(isa.OpBR))
			Expect(inst.Fmt).To(Equal(insts.FormatBranch))
			Expect(inst.N).To(BeFalse())
			Expect(inst.Z).To(BeFalse())
			Expect(inst.P).To(BeTrue())
			Expect(inst.Imm).To(Equal(int16(1)))
		})

		// BRnzp #0           -> 0x0E00
		// Encoding: 0000, n=1, z=1, p=1, offset9=000000000
		It("should decode an unconditional branch", func() {
			inst := insts.Decode(0x0E00)

			Expect(inst.N).To(BeTrue())
			Expect(inst.Z).To(BeTrue())
			Expect(inst.P).To(BeTrue())
		})

		// JSR #2             -> 0x4802
		// Encoding: 0100, 1, offset11=00000000010
		It("should decode JSR as PC-relative when bit 11 is set", func() {
			inst := insts.Decode(0x4802)

			Expect(inst.Op).To(Equal(isa.OpJSR))
			Expect(inst.Fmt).To(Equal(insts.FormatJSR))
			Expect(inst.Imm).To(Equal(int16(2)))
		})

		// JSR #-4            -> 0x4FFC
		// Encoding: 0100, 1, offset11=11111111100
		It("should sign-extend a backward subroutine offset", func() {
			inst := insts.Decode(0x4FFC)

			Expect(inst.Fmt).To(Equal(insts.FormatJSR))
			Expect(inst.Imm).To(Equal(int16(-4)))
		})

		// JSRR R1            -> 0x4040
		// Encoding: 0100, 0, 00, BaseR=001, 000000
		It("should decode JSRR through a base register", func() {
			inst := insts.Decode(0x4040)

			Expect(inst.Op).To(Equal(isa.OpJSR))
			Expect(inst.Fmt).To(Equal(insts.FormatBase))
			Expect(inst.SR1).To(Equal(uint8(1)))
		})

		// TRAP x25           -> 0xF025
		// Encoding: 1111, 0000, trapvect8=00100101
		It("should decode TRAP", func() {
			inst := insts.Decode(0xF025)

			Expect(inst.Op).To(Equal(isa.OpTRAP))
			Expect(inst.Fmt).To(Equal(insts.FormatTrap))
			Expect(inst.Vector).To(Equal(isa.TrapHALT))
		})

		// RTI                -> 0x8000
		It("should decode RTI with no operands", func() {
			inst := insts.Decode(0x8000)

			Expect(inst.Op).To(Equal(isa.OpRTI))
			Expect(inst.Fmt).To(Equal(insts.FormatImplied))
		})

		// Reserved opcode    -> 0xD123
		It("should mark the reserved opcode", func() {
			inst := insts.Decode(0xD123)

			Expect(inst.Op).To(Equal(isa.OpRES))
			Expect(inst.Fmt).To(Equal(insts.FormatReserved))
		})
	})
})

var _ = Describe("String", func() {
	render := func(word uint16) string {
		return insts.Decode(word).String()
	}

	It("should render operate instructions", func() {
		Expect(render(0x1025)).To(Equal("ADD R0, R0, #5"))
		Expect(render(0x14BF)).To(Equal("ADD R2, R2, #-1"))
		Expect(render(0x1642)).To(Equal("ADD R3, R1, R2"))
		Expect(render(0x5020)).To(Equal("AND R0, R0, #0"))
		Expect(render(0x5440)).To(Equal("AND R2, R1, R0"))
		Expect(render(0x963F)).To(Equal("NOT R3, R0"))
	})

	It("should render memory instructions", func() {
		Expect(render(0x21FC)).To(Equal("LD R0, #-4"))
		Expect(render(0xA203)).To(Equal("LDI R1, #3"))
		Expect(render(0xE202)).To(Equal("LEA R1, #2"))
		Expect(render(0x3001)).To(Equal("ST R0, #1"))
		Expect(render(0xB603)).To(Equal("STI R3, #3"))
		Expect(render(0x6040)).To(Equal("LDR R0, R1, #0"))
		Expect(render(0x7041)).To(Equal("STR R0, R1, #1"))
	})

	It("should render branches with their condition suffix", func() {
		Expect(render(0x0201)).To(Equal("BRp #1"))
		Expect(render(0x09FB)).To(Equal("BRn #-5"))
		Expect(render(0x07FE)).To(Equal("BRzp #-2"))
		Expect(render(0x0E00)).To(Equal("BRnzp #0"))
	})

	It("should render a branch with no condition bits as NOP", func() {
		Expect(render(0x0000)).To(Equal("NOP"))
	})

	It("should render jumps and calls", func() {
		Expect(render(0x4802)).To(Equal("JSR #2"))
		Expect(render(0x4040)).To(Equal("JSRR R1"))
		Expect(render(0xC040)).To(Equal("JMP R1"))
		Expect(render(0x8000)).To(Equal("RTI"))
	})

	It("should render JMP through R7 as RET", func() {
		Expect(render(0xC1C0)).To(Equal("RET"))
	})

	It("should render named trap vectors by their alias", func() {
		Expect(render(0xF020)).To(Equal("GETC"))
		Expect(render(0xF021)).To(Equal("OUT"))
		Expect(render(0xF022)).To(Equal("PUTS"))
		Expect(render(0xF023)).To(Equal("IN"))
		Expect(render(0xF024)).To(Equal("PUTSP"))
		Expect(render(0xF025)).To(Equal("HALT"))
	})

	It("should render other trap vectors numerically", func() {
		Expect(render(0xF0FF)).To(Equal("TRAP xFF"))
	})

	It("should render reserved words as raw data", func() {
		Expect(render(0xD123)).To(Equal(".FILL xD123"))
	})
})
