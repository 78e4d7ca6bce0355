package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lc3sim/emu"
)

var _ = Describe("Memory", func() {
	var mem *emu.Memory

	BeforeEach(func() {
		mem = emu.NewMemory()
	})

	It("should start zeroed", func() {
		Expect(mem.Read(0x0000)).To(BeZero())
		Expect(mem.Read(0x3000)).To(BeZero())
		Expect(mem.Read(0xFFFF)).To(BeZero())
	})

	It("should read back written words", func() {
		mem.Write(0x3000, 0x1234)
		mem.Write(0xFFFF, 0xABCD)
		Expect(mem.Read(0x3000)).To(Equal(uint16(0x1234)))
		Expect(mem.Read(0xFFFF)).To(Equal(uint16(0xABCD)))
	})

	It("should load words at an origin", func() {
		mem.LoadWords(0x3000, []uint16{1, 2, 3})
		Expect(mem.Read(0x3000)).To(Equal(uint16(1)))
		Expect(mem.Read(0x3001)).To(Equal(uint16(2)))
		Expect(mem.Read(0x3002)).To(Equal(uint16(3)))
	})

	It("should stop loading at the top of the address space", func() {
		mem.LoadWords(0xFFFE, []uint16{1, 2, 3})
		Expect(mem.Read(0xFFFE)).To(Equal(uint16(1)))
		Expect(mem.Read(0xFFFF)).To(Equal(uint16(2)))
		Expect(mem.Read(0x0000)).To(BeZero(), "a load must not wrap")
	})

	It("should zero everything on clear", func() {
		mem.Write(0x3000, 0x1234)
		mem.Clear()
		Expect(mem.Read(0x3000)).To(BeZero())
	})

	Describe("region classification", func() {
		It("should bound user space", func() {
			Expect(emu.InUserSpace(0x3000)).To(BeTrue())
			Expect(emu.InUserSpace(0xFDFF)).To(BeTrue())
			Expect(emu.InUserSpace(0x2FFF)).To(BeFalse())
			Expect(emu.InUserSpace(0xFE00)).To(BeFalse())
		})

		It("should bound system space", func() {
			Expect(emu.InSystemSpace(0x0000)).To(BeTrue())
			Expect(emu.InSystemSpace(0x2FFF)).To(BeTrue())
			Expect(emu.InSystemSpace(0x3000)).To(BeFalse())
		})

		It("should bound device space", func() {
			Expect(emu.InDeviceSpace(0xFE00)).To(BeTrue())
			Expect(emu.InDeviceSpace(0xFFFF)).To(BeTrue())
			Expect(emu.InDeviceSpace(0xFDFF)).To(BeFalse())
		})
	})
})

var _ = Describe("Signals", func() {
	var sig emu.Signals

	BeforeEach(func() {
		sig = emu.Signals{}
	})

	Describe("branch enable", func() {
		It("should match a single condition bit against the codes", func() {
			sig.UpdateBEN(0x0800, emu.CondCodes{N: true}) // BRn
			Expect(sig.BEN).To(BeTrue())

			sig.UpdateBEN(0x0800, emu.CondCodes{P: true})
			Expect(sig.BEN).To(BeFalse())
		})

		It("should always enable an unconditional branch", func() {
			for _, cc := range []emu.CondCodes{{N: true}, {Z: true}, {P: true}} {
				sig.UpdateBEN(0x0E00, cc) // BRnzp
				Expect(sig.BEN).To(BeTrue())
			}
		})

		It("should never enable with zero condition bits", func() {
			sig.UpdateBEN(0x0000, emu.CondCodes{Z: true})
			Expect(sig.BEN).To(BeFalse())
		})
	})

	Describe("access violation", func() {
		It("should flag user-mode accesses outside user space", func() {
			sig.UpdateACV(0x2FFF, false)
			Expect(sig.ACV).To(BeTrue())
			sig.UpdateACV(0xFE00, false)
			Expect(sig.ACV).To(BeTrue())
		})

		It("should clear for user-mode accesses inside user space", func() {
			sig.UpdateACV(0x3000, false)
			Expect(sig.ACV).To(BeFalse())
			sig.UpdateACV(0xFDFF, false)
			Expect(sig.ACV).To(BeFalse())
		})

		It("should never flag supervisor accesses", func() {
			sig.UpdateACV(0x0000, true)
			Expect(sig.ACV).To(BeFalse())
			sig.UpdateACV(0xFFFE, true)
			Expect(sig.ACV).To(BeFalse())
		})
	})

	It("should clear every signal on reset", func() {
		sig = emu.Signals{BEN: true, ACV: true, R: true, INT: true}
		sig.Reset()
		Expect(sig).To(Equal(emu.Signals{}))
	})
})

var _ = Describe("RegFile", func() {
	var regs emu.RegFile

	BeforeEach(func() {
		regs = emu.RegFile{}
	})

	It("should write registers without touching the codes", func() {
		regs.CC.Z = true
		regs.WriteReg(3, 0xFFFF)
		Expect(regs.ReadReg(3)).To(Equal(uint16(0xFFFF)))
		Expect(regs.CC.Z).To(BeTrue())
	})

	It("should refresh the codes on SetCC", func() {
		regs.SetCC(2, 0x8000)
		Expect(regs.CC.String()).To(Equal("N"))
		regs.SetCC(2, 0)
		Expect(regs.CC.String()).To(Equal("Z"))
		regs.SetCC(2, 1)
		Expect(regs.CC.String()).To(Equal("P"))
	})

	It("should mask the register field to three bits", func() {
		regs.WriteReg(8, 42) // aliases R0
		Expect(regs.ReadReg(0)).To(Equal(uint16(42)))
	})

	It("should reset to the power-on state", func() {
		regs.SetCC(1, 0xBEEF)
		regs.Reset(0x3000)
		Expect(regs.R).To(Equal([8]uint16{}))
		Expect(regs.PC).To(Equal(uint16(0x3000)))
		Expect(regs.CC.Z).To(BeTrue())
		Expect(regs.Supervisor).To(BeTrue())
	})

	Describe("condition codes", func() {
		It("should keep exactly one flag set", func() {
			var cc emu.CondCodes
			cc.SetFromValue(0)
			Expect(cc).To(Equal(emu.CondCodes{Z: true}))
			cc.SetFromValue(0xFFFF)
			Expect(cc).To(Equal(emu.CondCodes{N: true}))
			cc.SetFromValue(0x7FFF)
			Expect(cc).To(Equal(emu.CondCodes{P: true}))
		})
	})
})
