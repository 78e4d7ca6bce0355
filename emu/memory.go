// Package emu provides functional LC-3 emulation.
package emu

import "github.com/sarchlab/lc3sim/isa"

// MemorySize is the number of addressable words. The address space is
// exactly 2^16 words; every uint16 is a valid address.
const MemorySize = 1 << 16

// Memory is the flat 65536-word memory image. Addresses are word
// addresses; indexing by uint16 makes out-of-range access unrepresentable.
type Memory struct {
	words [MemorySize]uint16
}

// NewMemory creates a zeroed memory image.
func NewMemory() *Memory {
	return &Memory{}
}

// Read returns the word at addr.
func (m *Memory) Read(addr uint16) uint16 {
	return m.words[addr]
}

// Write stores v at addr.
func (m *Memory) Write(addr uint16, v uint16) {
	m.words[addr] = v
}

// LoadWords copies words into memory starting at origin. Loading stops
// silently at the top of the address space, matching the object-file rule
// that a load never wraps past 0xFFFF.
func (m *Memory) LoadWords(origin uint16, words []uint16) {
	addr := uint32(origin)
	for _, w := range words {
		if addr > uint32(isa.DeviceLimit) {
			break
		}
		m.words[addr] = w
		addr++
	}
}

// Clear zeroes the entire image.
func (m *Memory) Clear() {
	m.words = [MemorySize]uint16{}
}

// Region classification helpers used by access checking and by tests.

// InUserSpace reports whether addr falls inside the user program region.
func InUserSpace(addr uint16) bool {
	return addr >= isa.UserSpaceBase && addr <= isa.UserSpaceLimit
}

// InSystemSpace reports whether addr falls inside the operating system
// region, which includes both vector tables.
func InSystemSpace(addr uint16) bool {
	return addr <= isa.SystemSpaceLimit
}

// InDeviceSpace reports whether addr falls inside the memory-mapped device
// register region.
func InDeviceSpace(addr uint16) bool {
	return addr >= isa.DeviceBase
}
