package emu_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lc3sim/emu"
)

// traceStates micro-steps one instruction and returns the states whose
// bodies ran, in order.
func traceStates(m *emu.Machine) []emu.State {
	var states []emu.State
	for {
		res, err := m.Step()
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		states = append(states, res.Executed)
		if res.Next == emu.StateFetch1 || res.Halted {
			return states
		}
	}
}

var _ = Describe("Control store", func() {
	cs := emu.DefaultControlStore()

	It("should dispatch from decode on the opcode field", func() {
		Expect(cs[emu.StateDecode].IRD).To(BeTrue())
	})

	It("should route fetch through the interrupt condition", func() {
		Expect(cs[emu.StateFetch1]).To(Equal(emu.MicroInstruction{
			Next: emu.StateFetch2,
			Cond: emu.CondInterrupt,
		}))
	})

	It("should condition every memory access state on ready", func() {
		for _, s := range []emu.State{
			emu.StateFetch2, emu.StateLD2, emu.StateLDR2, emu.StateLDI2,
			emu.StateLDI3, emu.StateSTI2, emu.StateMemW, emu.StateSTR2,
			emu.StateTRAP3,
		} {
			Expect(cs[s].Cond).To(Equal(emu.CondMemReady), s.String())
		}
	})

	It("should route the reserved opcode to the error state", func() {
		Expect(cs[emu.StateRES].Next).To(Equal(emu.StateError))
	})

	It("should hold the terminal states", func() {
		Expect(cs[emu.StateHalt].Next).To(Equal(emu.StateHalt))
		Expect(cs[emu.StateError].Next).To(Equal(emu.StateError))
	})

	It("should name states by role", func() {
		Expect(emu.StateFetch1.String()).To(Equal("FETCH1"))
		Expect(emu.StateDecode.String()).To(Equal("DECODE"))
		Expect(emu.State(17).String()).To(Equal("UNUSED"))
	})
})

var _ = Describe("Micro-sequencer", func() {
	var m *emu.Machine

	BeforeEach(func() {
		m = emu.NewMachine(
			emu.WithInput(strings.NewReader("")),
			emu.WithOutput(&strings.Builder{}),
		)
	})

	It("should trace ADD through the canonical five states", func() {
		Expect(m.LoadProgram([]uint16{0x1025}, 0x3000)).To(Succeed())
		Expect(traceStates(m)).To(Equal([]emu.State{
			emu.StateFetch1, emu.StateFetch2, emu.StateFetch3,
			emu.StateDecode, emu.StateADD,
		}))
	})

	It("should trace a trap through the vector chain", func() {
		Expect(m.LoadProgram([]uint16{0xF021}, 0x3000)).To(Succeed())
		Expect(traceStates(m)).To(Equal([]emu.State{
			emu.StateFetch1, emu.StateFetch2, emu.StateFetch3,
			emu.StateDecode, emu.StateTRAP1, emu.StateTRAP2,
			emu.StateTRAP3, emu.StateTRAP4,
		}))
	})

	It("should take the branch path through BR_TAKEN when BEN is set", func() {
		Expect(m.LoadProgram([]uint16{0x1025, 0x0201, 0xF025}, 0x3000)).To(Succeed())
		_, err := m.StepInstruction()
		Expect(err).NotTo(HaveOccurred())
		Expect(traceStates(m)).To(Equal([]emu.State{
			emu.StateFetch1, emu.StateFetch2, emu.StateFetch3,
			emu.StateDecode, emu.StateBR, emu.StateBRTaken,
		}))
	})

	It("should skip BR_TAKEN when BEN is clear", func() {
		Expect(m.LoadProgram([]uint16{0x5020, 0x0201, 0xF025}, 0x3000)).To(Succeed())
		_, err := m.StepInstruction()
		Expect(err).NotTo(HaveOccurred())
		trace := traceStates(m)
		Expect(trace).To(HaveLen(5))
		Expect(trace).NotTo(ContainElement(emu.StateBRTaken))
	})

	It("should select JSR for the immediate form", func() {
		Expect(m.LoadProgram([]uint16{0x4802}, 0x3000)).To(Succeed())
		trace := traceStates(m)
		Expect(trace).To(ContainElement(emu.StateJSR))
		Expect(trace).NotTo(ContainElement(emu.StateJSRR))
	})

	It("should select JSRR for the register form", func() {
		Expect(m.LoadProgram([]uint16{0x4040}, 0x3000)).To(Succeed())
		trace := traceStates(m)
		Expect(trace).To(ContainElement(emu.StateJSRR))
		Expect(trace).NotTo(ContainElement(emu.StateJSR))
	})

	It("should fault when the store selects a state out of range", func() {
		cs := *emu.DefaultControlStore()
		cs[emu.StateADD] = emu.MicroInstruction{Next: emu.State(99)}
		m = emu.NewMachine(
			emu.WithControlStore(&cs),
			emu.WithOutput(&strings.Builder{}),
		)
		Expect(m.LoadProgram([]uint16{0x1025}, 0x3000)).To(Succeed())

		_, err := m.Run(maxRunSteps)
		Expect(err).To(MatchError(ContainSubstring("micro-sequencer")))
		Expect(m.State()).To(Equal(emu.StateError))
	})
})
