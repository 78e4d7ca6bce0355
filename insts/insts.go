// Package insts decodes LC-3 instruction words into structured, printable
// instructions.
//
// The emulator's micro-states work on raw words; this package serves the
// tooling around it: trace output, program listings, and debugging. Decode
// classifies one word and String renders it in assembler syntax:
//
//	inst := insts.Decode(0x1025)
//	fmt.Println(inst) // ADD R0, R0, #5
package insts
