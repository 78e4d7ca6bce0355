// Package emu provides functional LC-3 emulation.
package emu

// State identifies one of the 64 control-store addresses. The numbering is
// architectural: states 0-15 are the decode dispatch targets and carry the
// opcode value of the instruction class they begin.
type State uint8

// NumStates is the size of the control store.
const NumStates = 64

// Control-store addresses, named by role.
const (
	StateBR      State = 0 // branch-enable test
	StateADD     State = 1
	StateLD1     State = 2 // MAR <- PC + off9
	StateST1     State = 3 // MAR <- PC + off9
	StateJSRSel  State = 4 // IR[11] selects JSR or JSRR
	StateAND     State = 5
	StateLDR1    State = 6 // MAR <- Base + off6
	StateSTR1    State = 7 // MAR <- Base + off6
	StateRTI     State = 8
	StateNOT     State = 9
	StateLDI1    State = 10 // MAR <- PC + off9
	StateSTI1    State = 11 // MAR <- PC + off9
	StateJMP     State = 12
	StateRES     State = 13 // reserved opcode, routes to the error state
	StateLEA     State = 14
	StateTRAP1   State = 15 // R7 <- PC
	StateMemW    State = 16 // M[MAR] <- MDR
	StateFetch1  State = 18 // MAR <- PC, PC++
	StateJSRR    State = 20 // R7 <- PC, PC <- Base
	StateJSR     State = 21 // R7 <- PC, PC <- PC + off11
	StateBRTaken State = 22 // PC <- PC + off9
	StateSTPrep  State = 23 // MDR <- SR
	StateSTI2    State = 29 // MDR <- M[MAR] (pointer read)
	StateSTI3    State = 31 // MAR <- MDR
	StateDecode  State = 32 // BEN latch, opcode dispatch
	StateFetch2  State = 33 // MDR <- M[MAR]
	StateLD2     State = 34 // MDR <- M[MAR]
	StateFetch3  State = 35 // IR <- MDR
	StateLD3     State = 36 // DR <- MDR
	StateLDR2    State = 37 // MDR <- M[MAR]
	StateLDR3    State = 38 // DR <- MDR
	StateSTR2    State = 39 // MDR <- SR, M[MAR] <- MDR
	StateLDI2    State = 40 // MAR <- M[MAR]
	StateLDI3    State = 41 // MDR <- M[MAR]
	StateLDI4    State = 42 // DR <- MDR
	StateTRAP2   State = 43 // MAR <- ZEXT(IR[7:0])
	StateTRAP3   State = 44 // MDR <- M[MAR]
	StateTRAP4   State = 45 // PC <- MDR, service dispatch
	StateIntr    State = 49 // push PSR/PC, vector through 0x0100
	StateHalt    State = 62 // terminal: clean halt
	StateError   State = 63 // terminal: unknown instruction or trap
)

var stateNames = map[State]string{
	StateBR: "BR", StateADD: "ADD", StateLD1: "LD1", StateST1: "ST1",
	StateJSRSel: "JSR_SEL", StateAND: "AND", StateLDR1: "LDR1",
	StateSTR1: "STR1", StateRTI: "RTI", StateNOT: "NOT", StateLDI1: "LDI1",
	StateSTI1: "STI1", StateJMP: "JMP", StateRES: "RESERVED",
	StateLEA: "LEA", StateTRAP1: "TRAP1", StateMemW: "MEM_WRITE",
	StateFetch1: "FETCH1", StateJSRR: "JSRR", StateJSR: "JSR",
	StateBRTaken: "BR_TAKEN", StateSTPrep: "ST_PREP", StateSTI2: "STI2",
	StateSTI3: "STI3", StateDecode: "DECODE", StateFetch2: "FETCH2",
	StateLD2: "LD2", StateFetch3: "FETCH3", StateLD3: "LD3",
	StateLDR2: "LDR2", StateLDR3: "LDR3", StateSTR2: "STR2",
	StateLDI2: "LDI2", StateLDI3: "LDI3", StateLDI4: "LDI4",
	StateTRAP2: "TRAP2", StateTRAP3: "TRAP3", StateTRAP4: "TRAP4",
	StateIntr: "INTERRUPT", StateHalt: "HALT", StateError: "UNKNOWN",
}

// String returns the role name of the state, or UNUSED for the
// control-store slots no chain reaches.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNUSED"
}

// CondSelect names the condition the micro-sequencer tests when choosing
// the next state.
type CondSelect uint8

// Condition selects. Signal-true conditions modify the J field: Branch ORs
// bit 2 (18->22), AddrMode ORs bit 0 (20->21), Interrupt ORs bit 4 (33->49),
// and MemReady holds the current state until the access completes.
const (
	CondNone CondSelect = iota
	CondMemReady
	CondBranch
	CondAddrMode
	CondInterrupt
)

// MicroInstruction is one control-store word: the next-state address J,
// the condition select, and the instruction-register-dispatch flag.
type MicroInstruction struct {
	Next State
	Cond CondSelect
	IRD  bool
}

// ControlStore is the 64-entry microcode table. It is static: built once
// and never mutated while a machine runs.
type ControlStore [NumStates]MicroInstruction

var defaultStore = buildControlStore()

// DefaultControlStore returns the shared architectural control store.
func DefaultControlStore() *ControlStore {
	return &defaultStore
}

func buildControlStore() ControlStore {
	var cs ControlStore

	// Unreachable slots fall back to fetch, like the original's default
	// transition.
	for i := range cs {
		cs[i] = MicroInstruction{Next: StateFetch1}
	}

	// Fetch and decode.
	cs[StateFetch1] = MicroInstruction{Next: StateFetch2, Cond: CondInterrupt}
	cs[StateFetch2] = MicroInstruction{Next: StateFetch3, Cond: CondMemReady}
	cs[StateFetch3] = MicroInstruction{Next: StateDecode}
	cs[StateDecode] = MicroInstruction{IRD: true}

	// Operate instructions complete in one state.
	cs[StateADD] = MicroInstruction{Next: StateFetch1}
	cs[StateAND] = MicroInstruction{Next: StateFetch1}
	cs[StateNOT] = MicroInstruction{Next: StateFetch1}
	cs[StateLEA] = MicroInstruction{Next: StateFetch1}

	// Control flow.
	cs[StateBR] = MicroInstruction{Next: StateFetch1, Cond: CondBranch}
	cs[StateBRTaken] = MicroInstruction{Next: StateFetch1}
	cs[StateJMP] = MicroInstruction{Next: StateFetch1}
	cs[StateJSRSel] = MicroInstruction{Next: StateJSRR, Cond: CondAddrMode}
	cs[StateJSR] = MicroInstruction{Next: StateFetch1}
	cs[StateJSRR] = MicroInstruction{Next: StateFetch1}

	// Loads.
	cs[StateLD1] = MicroInstruction{Next: StateLD2}
	cs[StateLD2] = MicroInstruction{Next: StateLD3, Cond: CondMemReady}
	cs[StateLD3] = MicroInstruction{Next: StateFetch1}
	cs[StateLDR1] = MicroInstruction{Next: StateLDR2}
	cs[StateLDR2] = MicroInstruction{Next: StateLDR3, Cond: CondMemReady}
	cs[StateLDR3] = MicroInstruction{Next: StateFetch1}
	cs[StateLDI1] = MicroInstruction{Next: StateLDI2}
	cs[StateLDI2] = MicroInstruction{Next: StateLDI3, Cond: CondMemReady}
	cs[StateLDI3] = MicroInstruction{Next: StateLDI4, Cond: CondMemReady}
	cs[StateLDI4] = MicroInstruction{Next: StateFetch1}

	// Stores. ST and STI share the MDR-load and memory-write tail.
	cs[StateST1] = MicroInstruction{Next: StateSTPrep}
	cs[StateSTI1] = MicroInstruction{Next: StateSTI2}
	cs[StateSTI2] = MicroInstruction{Next: StateSTI3, Cond: CondMemReady}
	cs[StateSTI3] = MicroInstruction{Next: StateSTPrep}
	cs[StateSTPrep] = MicroInstruction{Next: StateMemW}
	cs[StateMemW] = MicroInstruction{Next: StateFetch1, Cond: CondMemReady}
	cs[StateSTR1] = MicroInstruction{Next: StateSTR2}
	cs[StateSTR2] = MicroInstruction{Next: StateFetch1, Cond: CondMemReady}

	// Traps.
	cs[StateTRAP1] = MicroInstruction{Next: StateTRAP2}
	cs[StateTRAP2] = MicroInstruction{Next: StateTRAP3}
	cs[StateTRAP3] = MicroInstruction{Next: StateTRAP4, Cond: CondMemReady}
	cs[StateTRAP4] = MicroInstruction{Next: StateFetch1}

	// Privilege and error handling.
	cs[StateRTI] = MicroInstruction{Next: StateFetch1}
	cs[StateIntr] = MicroInstruction{Next: StateFetch1}
	cs[StateRES] = MicroInstruction{Next: StateError}
	cs[StateHalt] = MicroInstruction{Next: StateHalt}
	cs[StateError] = MicroInstruction{Next: StateError}

	return cs
}

// nextState applies the micro-sequencer transition rule: IRD dispatches on
// the opcode field of IR; otherwise the J field is taken, modified by the
// selected condition.
func (m *Machine) nextState(mi MicroInstruction) State {
	if mi.IRD {
		return State(m.regs.IR >> 12)
	}

	switch mi.Cond {
	case CondMemReady:
		if !m.signals.R {
			return m.state
		}
		return mi.Next
	case CondBranch:
		if m.signals.BEN {
			return mi.Next | 0x04
		}
		return mi.Next
	case CondAddrMode:
		if m.regs.IR&0x0800 != 0 {
			return mi.Next | 0x01
		}
		return mi.Next
	case CondInterrupt:
		if m.signals.INT && !m.regs.Supervisor {
			return mi.Next | 0x10
		}
		return mi.Next
	default:
		return mi.Next
	}
}
