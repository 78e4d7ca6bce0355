// Package cache models LC-3 instruction and data caches using Akita cache
// components.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// WordBytes is the size of one LC-3 memory word. Cache geometry is given
// in bytes; addresses are word addresses.
const WordBytes = 2

// Config holds cache geometry and timing parameters.
type Config struct {
	// Size in bytes.
	Size int
	// LineSize in bytes (cache line size).
	LineSize int
	// Associativity (number of ways).
	Associativity int
	// HitLatency in cycles.
	HitLatency uint64
	// MissPenalty in cycles (includes the backing access time).
	MissPenalty uint64
}

// DefaultConfig returns the default 4KB direct-mapped geometry.
func DefaultConfig() Config {
	return Config{
		Size:          4096,
		LineSize:      32,
		Associativity: 1,
		HitLatency:    1,
		MissPenalty:   10,
	}
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Word is the word read (for read accesses with a backing store).
	Word uint16
	// Evicted is true if a valid block was evicted.
	Evicted bool
	// EvictedAddr is the word address of the evicted block.
	EvictedAddr uint16
}

// Statistics holds cache performance counters.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// BackingStore is the next level in the memory hierarchy. *emu.Machine
// satisfies it directly.
type BackingStore interface {
	// ReadMemory reads the word at a word address.
	ReadMemory(addr uint16) uint16
	// WriteMemory writes the word at a word address.
	WriteMemory(addr, value uint16)
}

// Cache is a single-level cache built on an Akita directory for tag and
// replacement state, holding LC-3 words.
type Cache struct {
	config Config

	directory *akitacache.DirectoryImpl

	// Word storage, indexed by (setID * associativity + wayID).
	lines [][]uint16

	stats   Statistics
	backing BackingStore
}

// New creates a cache with the given geometry. backing may be nil for
// timing-only use; misses then fill with zero words.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.LineSize)
	totalLines := numSets * config.Associativity
	wordsPerLine := config.LineSize / WordBytes

	lines := make([][]uint16, totalLines)
	for i := range lines {
		lines[i] = make([]uint16, wordsPerLine)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.LineSize,
			akitacache.NewLRUVictimFinder(),
		),
		lines:   lines,
		backing: backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns the cache counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears the counters without touching cache contents.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// lineIndex computes the index into the word storage for a block.
func (c *Cache) lineIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// byteAddr widens a word address into the byte address space the directory
// indexes with.
func byteAddr(addr uint16) uint64 {
	return uint64(addr) * WordBytes
}

// lineAddr returns the line-aligned byte address containing addr.
func (c *Cache) lineAddr(addr uint16) uint64 {
	return byteAddr(addr) / uint64(c.config.LineSize) * uint64(c.config.LineSize)
}

// wordOffset returns the word index of addr within its line.
func (c *Cache) wordOffset(addr uint16) int {
	return int(byteAddr(addr)%uint64(c.config.LineSize)) / WordBytes
}

// Access performs a read or write access. It is the entry point for timing
// models that carry no data values.
func (c *Cache) Access(addr uint16, write bool) AccessResult {
	if write {
		return c.Write(addr, 0)
	}
	return c.Read(addr)
}

// Read performs a cache read at a word address.
func (c *Cache) Read(addr uint16) AccessResult {
	c.stats.Reads++

	block := c.directory.Lookup(0, c.lineAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
			Word:    c.lines[c.lineIndex(block)][c.wordOffset(addr)],
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, false, 0)
}

// Write performs a cache write at a word address. Misses allocate: the
// line is fetched first, then written.
func (c *Cache) Write(addr, word uint16) AccessResult {
	c.stats.Writes++

	block := c.directory.Lookup(0, c.lineAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		c.lines[c.lineIndex(block)][c.wordOffset(addr)] = word
		block.IsDirty = true
		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, true, word)
}

// handleMiss fills a line from the backing store, evicting as needed.
func (c *Cache) handleMiss(addr uint16, isWrite bool, writeWord uint16) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissPenalty,
	}

	lineAddr := c.lineAddr(addr)
	victim := c.directory.FindVictim(lineAddr)
	if victim == nil {
		return result
	}

	victimWords := c.lines[c.lineIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint16(victim.Tag / WordBytes)

		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			base := uint16(victim.Tag / WordBytes)
			for i, w := range victimWords {
				c.backing.WriteMemory(base+uint16(i), w)
			}
		}
	}

	if c.backing != nil {
		base := uint16(lineAddr / WordBytes)
		for i := range victimWords {
			victimWords[i] = c.backing.ReadMemory(base + uint16(i))
		}
	} else {
		for i := range victimWords {
			victimWords[i] = 0
		}
	}

	victim.Tag = lineAddr
	victim.IsValid = true
	victim.IsDirty = false

	if isWrite {
		victimWords[c.wordOffset(addr)] = writeWord
		victim.IsDirty = true
	} else {
		result.Word = victimWords[c.wordOffset(addr)]
	}

	c.directory.Visit(victim)
	return result
}

// Invalidate drops the line containing addr without writeback.
func (c *Cache) Invalidate(addr uint16) {
	block := c.directory.Lookup(0, c.lineAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty lines and invalidates everything.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				c.stats.Writebacks++
				base := uint16(block.Tag / WordBytes)
				for i, w := range c.lines[c.lineIndex(block)] {
					c.backing.WriteMemory(base+uint16(i), w)
				}
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all lines without writeback and clears the counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
