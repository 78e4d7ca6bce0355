package cache

import (
	"github.com/sarchlab/lc3sim/emu"
)

// MemoryBacking wraps a bare emu.Memory as a BackingStore for caches built
// without a full machine.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// ReadMemory reads the word at a word address.
func (m *MemoryBacking) ReadMemory(addr uint16) uint16 {
	return m.memory.Read(addr)
}

// WriteMemory writes the word at a word address.
func (m *MemoryBacking) WriteMemory(addr, value uint16) {
	m.memory.Write(addr, value)
}
