package benchmarks

import "github.com/sarchlab/lc3sim/isa"

// GetMicrobenchmarks returns the standard microbenchmark set. Each program
// targets one pipeline characteristic: ALU throughput, RAW dependence
// chains, loop branches, memory traffic, call/return overhead, mixed
// branch outcomes, double-indirect addressing, and trap-based output.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		loopCountdown(),
		memorySequential(),
		subroutineCalls(),
		branchMix(),
		indirectPointers(),
		stringOutput(),
	}
}

// GetCoreBenchmarks returns the minimal set for quick validation: a real
// loop, memory traffic, and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopCountdown(),
		memorySequential(),
		branchMix(),
	}
}

// Instruction encoders. Register operands are masked to their 3-bit
// fields and offsets to their two's-complement widths, so callers can
// pass signed values directly.

func encADDImm(dr, sr1 uint16, imm int16) uint16 {
	return uint16(isa.OpADD)<<12 | dr<<9 | sr1<<6 | 0x20 | uint16(imm)&0x1F
}

func encADDReg(dr, sr1, sr2 uint16) uint16 {
	return uint16(isa.OpADD)<<12 | dr<<9 | sr1<<6 | sr2&0x7
}

func encANDImm(dr, sr1 uint16, imm int16) uint16 {
	return uint16(isa.OpAND)<<12 | dr<<9 | sr1<<6 | 0x20 | uint16(imm)&0x1F
}

func encNOT(dr, sr uint16) uint16 {
	return uint16(isa.OpNOT)<<12 | dr<<9 | sr<<6 | 0x3F
}

func encLEA(dr uint16, off int16) uint16 {
	return uint16(isa.OpLEA)<<12 | dr<<9 | uint16(off)&0x1FF
}

func encST(sr uint16, off int16) uint16 {
	return uint16(isa.OpST)<<12 | sr<<9 | uint16(off)&0x1FF
}

func encSTI(sr uint16, off int16) uint16 {
	return uint16(isa.OpSTI)<<12 | sr<<9 | uint16(off)&0x1FF
}

func encLDI(dr uint16, off int16) uint16 {
	return uint16(isa.OpLDI)<<12 | dr<<9 | uint16(off)&0x1FF
}

func encLDR(dr, base uint16, off int16) uint16 {
	return uint16(isa.OpLDR)<<12 | dr<<9 | base<<6 | uint16(off)&0x3F
}

func encSTR(sr, base uint16, off int16) uint16 {
	return uint16(isa.OpSTR)<<12 | sr<<9 | base<<6 | uint16(off)&0x3F
}

func encBR(n, z, p bool, off int16) uint16 {
	w := uint16(isa.OpBR) << 12
	if n {
		w |= 0x0800
	}
	if z {
		w |= 0x0400
	}
	if p {
		w |= 0x0200
	}
	return w | uint16(off)&0x1FF
}

func encJSR(off int16) uint16 {
	return uint16(isa.OpJSR)<<12 | 0x0800 | uint16(off)&0x7FF
}

func encRET() uint16 {
	return uint16(isa.OpJMP)<<12 | 7<<6
}

func encTRAP(vector uint8) uint16 {
	return uint16(isa.OpTRAP)<<12 | uint16(vector)
}

func encHALT() uint16 {
	return encTRAP(isa.TrapHALT)
}

// arithmeticSequential issues independent ADDs across five registers, so
// adjacent instructions share no operands and a forwarding pipeline can
// stream them back to back.
func arithmeticSequential() Benchmark {
	prog := make([]uint16, 0, 26)
	for r := uint16(0); r < 5; r++ {
		prog = append(prog, encANDImm(r, r, 0))
	}
	for round := 0; round < 4; round++ {
		for r := uint16(0); r < 5; r++ {
			prog = append(prog, encADDImm(r, r, 1))
		}
	}
	prog = append(prog, encHALT())

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADDs across R0-R4 - ALU throughput",
		Program:     prog,
		ExpectedRegisters: map[int]uint16{
			0: 4, 1: 4, 2: 4, 3: 4, 4: 4,
		},
	}
}

// dependencyChain issues 20 ADDs that each read the previous result, the
// worst case for a pipeline without forwarding.
func dependencyChain() Benchmark {
	prog := make([]uint16, 0, 22)
	prog = append(prog, encANDImm(0, 0, 0))
	for i := 0; i < 20; i++ {
		prog = append(prog, encADDImm(0, 0, 1))
	}
	prog = append(prog, encHALT())

	return Benchmark{
		Name:              "dependency_chain",
		Description:       "20 dependent ADDs (R0 = R0 + 1) - RAW hazard pressure",
		Program:           prog,
		ExpectedRegisters: map[int]uint16{0: 20},
	}
}

// loopCountdown runs a genuine counted loop: ten taken branches and one
// fall-through.
func loopCountdown() Benchmark {
	return Benchmark{
		Name:        "loop_countdown",
		Description: "count R0 from 10 to 0 - taken-branch behavior",
		Program: []uint16{
			encANDImm(0, 0, 0),
			encADDImm(0, 0, 10),
			encADDImm(0, 0, -1),           // loop:
			encBR(false, false, true, -2), // BRp loop
			encHALT(),
		},
		ExpectedRegisters: map[int]uint16{0: 0},
	}
}

// memorySequential writes and reads back ten consecutive words. The
// scratch area sits just past the HALT so the data cache sees a small
// sequential footprint.
func memorySequential() Benchmark {
	// Layout: LEA, AND, 3 ADDs building 42, 10 STR/LDR pairs, HALT fill
	// 26 words; the scratch area starts at word 26.
	prog := make([]uint16, 0, 26)
	prog = append(prog, encLEA(1, 25)) // R1 <- scratch base
	prog = append(prog, encANDImm(0, 0, 0))
	prog = append(prog, encADDImm(0, 0, 15))
	prog = append(prog, encADDImm(0, 0, 15))
	prog = append(prog, encADDImm(0, 0, 12)) // R0 = 42
	for k := int16(0); k < 10; k++ {
		prog = append(prog, encSTR(0, 1, k), encLDR(0, 1, k))
	}
	prog = append(prog, encHALT())

	base := isa.UserSpaceBase + 26
	expectMem := make(map[uint16]uint16, 10)
	for k := uint16(0); k < 10; k++ {
		expectMem[base+k] = 42
	}

	return Benchmark{
		Name:              "memory_sequential",
		Description:       "10 store/load pairs at consecutive addresses - memory traffic",
		Program:           prog,
		ExpectedRegisters: map[int]uint16{0: 42, 1: base},
		ExpectedMemory:    expectMem,
	}
}

// subroutineCalls makes five JSR calls to a routine that adds 3 and
// returns, exercising the link register and control transfers.
func subroutineCalls() Benchmark {
	// Word 0 clears R0, words 1-5 call the routine at word 7, word 6
	// halts. The offset shrinks as the call site approaches the routine.
	prog := []uint16{
		encANDImm(0, 0, 0),
		encJSR(5),
		encJSR(4),
		encJSR(3),
		encJSR(2),
		encJSR(1),
		encHALT(),
		encADDImm(0, 0, 3), // sub:
		encRET(),
	}

	return Benchmark{
		Name:        "subroutine_calls",
		Description: "5 JSR/RET round trips - call and return overhead",
		Program:     prog,
		ExpectedRegisters: map[int]uint16{
			0: 15,
			7: isa.UserSpaceBase + 7, // the HALT trap links R7 last
		},
	}
}

// branchMix interleaves taken and not-taken branches with the ALU work
// that decides them.
func branchMix() Benchmark {
	return Benchmark{
		Name:        "branch_mix",
		Description: "alternating taken and not-taken branches - control hazards",
		Program: []uint16{
			encANDImm(0, 0, 0),             // Z
			encBR(false, true, false, 1),   // BRz, taken
			encADDImm(0, 0, 8),             // skipped
			encADDImm(0, 0, 1),             // R0 = 1, P
			encBR(true, false, false, 1),   // BRn, not taken
			encADDImm(1, 0, 1),             // R1 = 2
			encBR(false, false, true, 1),   // BRp, taken
			encADDImm(1, 1, 8),             // skipped
			encADDImm(2, 1, 1),             // R2 = 3
			encBR(true, true, true, 1),     // BRnzp, taken
			encADDImm(2, 2, 8),             // skipped
			encADDImm(3, 2, 1),             // R3 = 4
			encHALT(),
		},
		ExpectedRegisters: map[int]uint16{0: 1, 1: 2, 2: 3, 3: 4},
	}
}

// indirectPointers builds a pointer cell with ST, then stores and loads
// through it with STI/LDI, the double-indirect micro-state chains.
func indirectPointers() Benchmark {
	// Word 7 is the pointer cell, word 8 the value cell it points at.
	prog := []uint16{
		encLEA(1, 7),       // R1 <- &value
		encST(1, 5),        // ptr <- R1
		encANDImm(0, 0, 0),
		encADDImm(0, 0, 9),
		encSTI(0, 2),       // value <- R0, through ptr
		encLDI(2, 1),       // R2 <- value, through ptr
		encHALT(),
		0x0000, // ptr:
		0x0000, // value:
	}

	ptr := isa.UserSpaceBase + 7
	value := isa.UserSpaceBase + 8

	return Benchmark{
		Name:              "indirect_pointers",
		Description:       "STI/LDI through a built pointer - double-indirect chains",
		Program:           prog,
		ExpectedRegisters: map[int]uint16{0: 9, 2: 9},
		ExpectedMemory:    map[uint16]uint16{ptr: value, value: 9},
	}
}

// stringOutput prints a short string through the PUTS trap service.
func stringOutput() Benchmark {
	return Benchmark{
		Name:        "string_output",
		Description: "PUTS of a 4-character string - trap service and display traffic",
		Program: []uint16{
			encLEA(0, 2), // R0 <- &msg
			encTRAP(isa.TrapPUTS),
			encHALT(),
			'L', 'C', '-', '3', 0x0000, // msg:
		},
		ExpectedOutput: "LC-3",
	}
}
