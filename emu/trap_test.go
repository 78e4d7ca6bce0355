package emu_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lc3sim/emu"
	"github.com/sarchlab/lc3sim/isa"
)

// recordingHandler captures serviced vectors and stops the machine so a
// single trap ends the run.
type recordingHandler struct {
	vectors []uint8
}

func (h *recordingHandler) Service(m *emu.Machine, vector uint8) error {
	h.vectors = append(h.vectors, vector)
	m.WriteMemory(isa.AddrMCR, 0)
	return nil
}

var _ = Describe("Trap services", func() {
	var (
		m   *emu.Machine
		out *strings.Builder
	)

	BeforeEach(func() {
		out = &strings.Builder{}
		m = emu.NewMachine(
			emu.WithInput(strings.NewReader("")),
			emu.WithOutput(out),
		)
	})

	withInput := func(s string) {
		m = emu.NewMachine(
			emu.WithInput(strings.NewReader(s)),
			emu.WithOutput(out),
		)
	}

	run := func(words ...uint16) {
		ExpectWithOffset(1, m.LoadProgram(words, 0x3000)).To(Succeed())
		_, err := m.Run(maxRunSteps)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		ExpectWithOffset(1, m.Halted()).To(BeTrue())
	}

	reg := func(i int) uint16 {
		v, err := m.Register(i)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return v
	}

	It("should write R0's low byte on OUT and continue after the trap", func() {
		run(0x2002, 0xF021, 0xF025, 0x0041) // LD R0,#2 <- 'A'; OUT; HALT
		Expect(out.String()).To(Equal("A"))
		Expect(m.State()).To(Equal(emu.StateHalt))
	})

	It("should write the word string at R0 on PUTS", func() {
		run(0xE002, 0xF022, 0xF025, 0x0048, 0x0069, 0x0000)
		Expect(out.String()).To(Equal("Hi"))
	})

	It("should write packed bytes low then high on PUTSP", func() {
		run(0xE002, 0xF024, 0xF025, 0x6948, 0x0021, 0x0000)
		Expect(out.String()).To(Equal("Hi!"))
	})

	It("should read one character into R0 on GETC without echo", func() {
		withInput("x")
		run(0xF020, 0xF025)
		Expect(reg(0)).To(Equal(uint16('x')))
		Expect(out.String()).To(BeEmpty())
		Expect(m.ConditionCodes().P).To(BeTrue())
	})

	It("should treat IN as GETC", func() {
		withInput("y")
		run(0xF023, 0xF025)
		Expect(reg(0)).To(Equal(uint16('y')))
	})

	It("should read NUL at end of input", func() {
		run(0xF020, 0xF025)
		Expect(reg(0)).To(BeZero())
		Expect(m.ConditionCodes().Z).To(BeTrue())
	})

	It("should consume a byte already latched in KBDR", func() {
		withInput("ab")
		// LDI R1,#2 <- KBSR latches 'a'; GETC must take the latched byte
		run(0xA202, 0xF020, 0xF025, 0xFE00)
		Expect(reg(0)).To(Equal(uint16('a')))
	})

	It("should clear the run bit on HALT", func() {
		run(0xF025)
		Expect(m.State()).To(Equal(emu.StateHalt))
		Expect(m.ReadMemory(isa.AddrMCR) & isa.MCRRunBit).To(BeZero())
	})

	It("should transfer control to a loaded trap routine", func() {
		Expect(m.LoadProgram([]uint16{0xF021, 0xF025}, 0x3000)).To(Succeed())
		m.WriteMemory(uint16(isa.TrapOUT), 0x0200)
		m.WriteMemory(0x0200, 0x1265) // ADD R1,R1,#5
		m.WriteMemory(0x0201, 0xC1C0) // RET

		_, err := m.Run(maxRunSteps)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.State()).To(Equal(emu.StateHalt))
		Expect(reg(1)).To(Equal(uint16(5)))
		Expect(out.String()).To(BeEmpty(), "builtin service must not run")
	})

	It("should fault on an unknown vector", func() {
		Expect(m.LoadProgram([]uint16{0xF0FF}, 0x3000)).To(Succeed())
		_, err := m.Run(maxRunSteps)
		Expect(err).To(MatchError(emu.ErrUnknownTrap))
		Expect(m.State()).To(Equal(emu.StateError))
	})

	It("should dispatch through a custom handler", func() {
		h := &recordingHandler{}
		m = emu.NewMachine(
			emu.WithTrapHandler(h),
			emu.WithOutput(out),
		)
		Expect(m.LoadProgram([]uint16{0xF021}, 0x3000)).To(Succeed())

		_, err := m.Run(maxRunSteps)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Halted()).To(BeTrue())
		Expect(h.vectors).To(Equal([]uint8{0x21}))
	})
})
