package pipeline

import (
	"fmt"

	"github.com/sarchlab/lc3sim/timing/cache"
)

// Pipeline models instruction flow through a configurable chain of stage
// slots. Slot 0 is the issue end; each cycle, packets that finished their
// slot's work advance one slot toward retirement.
type Pipeline struct {
	config *Config

	// slots[0:config.Depth] are the live stage slots.
	slots [MaxDepth]Packet

	cycle   uint64
	nextSeq uint64

	metrics Metrics

	predictor *BranchPredictor

	// Detailed cache models, built only when the configuration selects
	// them. When nil, the modulo classifier stands in.
	icache  *cache.Cache
	dcache  *cache.Cache
	backing cache.BackingStore
}

// New builds a pipeline for the given configuration. A nil config selects
// the defaults.
func New(config *Config) (*Pipeline, error) {
	p := &Pipeline{}
	if err := p.Configure(config); err != nil {
		return nil, err
	}
	return p, nil
}

// Configure replaces the configuration and fully clears the pipeline.
// A nil config selects the defaults.
func (p *Pipeline) Configure(config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	p.config = config.Clone()

	p.predictor = nil
	if p.config.BranchPredictionEnabled {
		p.predictor = NewBranchPredictor(DefaultBranchPredictorConfig())
	}

	p.icache = nil
	p.dcache = nil
	if p.config.UseDetailedCaches {
		p.buildDetailedCaches()
	}

	p.Reset()
	return nil
}

// SetBackingStore supplies memory behind the detailed cache models so
// that fills and writebacks move real words. The caches are rebuilt, so
// call this before issuing. Without a backing store misses fill with
// zeros, which is sufficient for latency accounting.
func (p *Pipeline) SetBackingStore(b cache.BackingStore) {
	p.backing = b
	if p.config.UseDetailedCaches {
		p.buildDetailedCaches()
	}
}

func (p *Pipeline) buildDetailedCaches() {
	if cc := p.config.ICache; cc.Enabled {
		p.icache = cache.New(cacheConfig(cc), p.backing)
	}
	if cc := p.config.DCache; cc.Enabled {
		p.dcache = cache.New(cacheConfig(cc), p.backing)
	}
}

func cacheConfig(cc CacheConfig) cache.Config {
	return cache.Config{
		Size:          cc.Size,
		LineSize:      cc.LineSize,
		Associativity: cc.Associativity,
		HitLatency:    cc.HitLatency,
		MissPenalty:   cc.MissPenalty,
	}
}

// Reset clears all slots, counters, and model state. The configuration
// is kept.
func (p *Pipeline) Reset() {
	p.slots = [MaxDepth]Packet{}
	p.cycle = 0
	p.nextSeq = 0
	p.metrics = Metrics{}
	if p.predictor != nil {
		p.predictor.Reset()
	}
	if p.icache != nil {
		p.icache.Reset()
	}
	if p.dcache != nil {
		p.dcache.Reset()
	}
}

// IssueOption annotates a packet at issue time.
type IssueOption func(*Packet)

// WithBranchOutcome supplies the resolved direction and target of a
// branch instruction. Branches issued without an outcome are treated as
// not taken.
func WithBranchOutcome(taken bool, target uint16) IssueOption {
	return func(pkt *Packet) {
		pkt.OutcomeKnown = true
		pkt.BranchTaken = taken
		if taken {
			pkt.BranchTarget = target
		}
	}
}

// Issue places one instruction into the issue slot. It reports false,
// counting a structural hazard and a stall cycle, when the slot is still
// occupied; the caller may retry after the next Cycle.
func (p *Pipeline) Issue(word, pc uint16, opts ...IssueOption) bool {
	if p.slots[0].Valid {
		p.metrics.StallCycles++
		p.metrics.StructuralHazards++
		return false
	}

	pkt := decodePacket(word, pc)
	pkt.Seq = p.nextSeq
	p.nextSeq++
	pkt.IssueCycle = p.cycle
	for _, opt := range opts {
		opt(&pkt)
	}

	p.slots[0] = pkt
	return true
}

// Cycle advances the pipeline by one clock. Slots are scanned from the
// retirement end back to issue so a packet moves at most one slot per
// cycle and a draining conflict frees its dependents the same cycle.
func (p *Pipeline) Cycle() {
	p.cycle++
	p.metrics.TotalCycles++

	depth := p.config.Depth
	for i := depth - 1; i >= 0; i-- {
		pkt := &p.slots[i]
		if !pkt.Valid {
			continue
		}

		switch p.config.Stages[i] {
		case StageFetch:
			p.doFetch(pkt, i)
		case StageDecode:
			p.doDecode(pkt, i)
		case StageExecute:
			p.doExecute(pkt, i)
		case StageMemory:
			p.doMemory(pkt, i)
		case StageWriteback:
			p.retire(i)
			continue
		default:
			pkt.StageDone[i] = true
		}

		// The last slot completes regardless of its stage kind, so
		// configurations without a writeback tail still retire.
		if i == depth-1 {
			p.retire(i)
			continue
		}

		if !pkt.Stalled && !p.slots[i+1].Valid {
			p.slots[i+1] = *pkt
			p.slots[i] = Packet{}
		}
	}
}

// doFetch charges the instruction cache. A packet held in fetch by a
// stalled successor charges again each cycle it occupies the slot.
func (p *Pipeline) doFetch(pkt *Packet, slot int) {
	p.chargeICache(pkt.PC)
	pkt.StageDone[slot] = true
}

// doDecode checks register dependences against every packet ahead in the
// pipe and records each conflicting pair on the packet once. With
// forwarding the conflicts resolve in place; without it the packet stalls
// until the conflicting packets drain, and every stalled cycle counts.
func (p *Pipeline) doDecode(pkt *Packet, slot int) {
	if pkt.StageDone[slot] {
		return
	}

	stalled := false
	for j := slot + 1; j < p.config.Depth; j++ {
		earlier := &p.slots[j]
		if !earlier.Valid {
			continue
		}
		kind := checkDataHazard(pkt, earlier)
		if kind == HazardNone {
			continue
		}
		if !pkt.recordedAgainst(earlier.Seq) {
			pkt.recordHazard(kind, earlier.Seq)
			if !p.config.ForwardingEnabled {
				p.metrics.DataHazards++
			}
		}
		if !p.config.ForwardingEnabled {
			stalled = true
		}
	}

	if stalled {
		pkt.Stalled = true
		pkt.StallCycles++
		p.metrics.StallCycles++
		return
	}

	pkt.Stalled = false
	pkt.StageDone[slot] = true
}

// doExecute resolves branches. With prediction enabled the predictor is
// consulted and trained and only mispredictions pay the branch penalty;
// without it every branch pays.
func (p *Pipeline) doExecute(pkt *Packet, slot int) {
	if pkt.StageDone[slot] {
		return
	}
	pkt.StageDone[slot] = true

	if !pkt.IsBranch {
		return
	}
	p.metrics.BranchesTotal++
	p.metrics.ControlHazards++

	if p.predictor == nil {
		p.metrics.StallCycles += p.config.BranchPenalty
		return
	}

	pred := p.predictor.Predict(pkt.PC)
	taken := pkt.BranchTaken
	p.predictor.Update(pkt.PC, taken, pkt.BranchTarget)

	correct := pred.Taken == taken
	if correct && taken {
		correct = pred.TargetKnown && pred.Target == pkt.BranchTarget
	}
	if correct {
		p.metrics.BranchesPredictedCorrect++
	} else {
		p.metrics.BranchesPredictedWrong++
		p.metrics.StallCycles += p.config.BranchPenalty
	}
}

// doMemory charges the data cache for loads and stores.
func (p *Pipeline) doMemory(pkt *Packet, slot int) {
	if pkt.StageDone[slot] {
		return
	}
	pkt.StageDone[slot] = true

	if !pkt.NeedsMemory {
		return
	}
	if pkt.IsStore {
		p.metrics.MemoryWrites++
	} else {
		p.metrics.MemoryReads++
	}
	p.chargeDCache(pkt.MemoryAddress, pkt.IsStore)
}

func (p *Pipeline) retire(slot int) {
	p.slots[slot].CompletionCycle = p.cycle
	p.metrics.TotalInstructions++
	p.slots[slot] = Packet{}
}

// chargeICache accounts one instruction fetch: through the detailed model
// when built, otherwise through the modulo classifier, otherwise as a
// flat memory access.
func (p *Pipeline) chargeICache(addr uint16) {
	if p.icache != nil {
		res := p.icache.Access(addr, false)
		p.metrics.MemoryStallCycles += res.Latency
		if res.Hit {
			p.metrics.ICacheHits++
		} else {
			p.metrics.ICacheMisses++
		}
		return
	}

	cc := p.config.ICache
	if !cc.Enabled {
		p.metrics.MemoryStallCycles += p.config.MemoryLatency
		return
	}
	if p.classifyHit(addr) {
		p.metrics.ICacheHits++
		p.metrics.MemoryStallCycles += cc.HitLatency
	} else {
		p.metrics.ICacheMisses++
		p.metrics.MemoryStallCycles += cc.MissPenalty
	}
}

// chargeDCache accounts one data access, keyed to the data-cache
// counters whether it is a read or a write.
func (p *Pipeline) chargeDCache(addr uint16, write bool) {
	if p.dcache != nil {
		res := p.dcache.Access(addr, write)
		p.metrics.MemoryStallCycles += res.Latency
		if res.Hit {
			p.metrics.DCacheHits++
		} else {
			p.metrics.DCacheMisses++
		}
		return
	}

	cc := p.config.DCache
	if !cc.Enabled {
		p.metrics.MemoryStallCycles += p.config.MemoryLatency
		return
	}
	if p.classifyHit(addr) {
		p.metrics.DCacheHits++
		p.metrics.MemoryStallCycles += cc.HitLatency
	} else {
		p.metrics.DCacheMisses++
		p.metrics.MemoryStallCycles += cc.MissPenalty
	}
}

// classifyHit is the stand-in hit function for runs without the detailed
// cache model: an access hits unless address plus cycle falls on a
// multiple-of-ten boundary region, approximating a 90% hit rate.
func (p *Pipeline) classifyHit(addr uint16) bool {
	return (uint64(addr)+p.cycle)%10 < 9
}

// InFlight returns the number of occupied slots.
func (p *Pipeline) InFlight() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Valid {
			n++
		}
	}
	return n
}

// Drain runs cycles until the pipeline empties, bounded by maxCycles,
// and returns the number of cycles run.
func (p *Pipeline) Drain(maxCycles uint64) uint64 {
	var n uint64
	for n < maxCycles && p.InFlight() > 0 {
		p.Cycle()
		n++
	}
	return n
}

// Metrics returns a snapshot of the counters. The snapshot carries the
// configuration's theoretical peak IPC so the derived figures stand on
// their own.
func (p *Pipeline) Metrics() Metrics {
	m := p.metrics
	if p.config.OutOfOrderExecution {
		m.TheoreticalMaxIPC = float64(p.config.Depth)
	} else {
		m.TheoreticalMaxIPC = 1
	}
	return m
}

// Config returns a copy of the active configuration.
func (p *Pipeline) Config() *Config {
	return p.config.Clone()
}

// CurrentCycle returns the cycle count since the last reset.
func (p *Pipeline) CurrentCycle() uint64 {
	return p.cycle
}
