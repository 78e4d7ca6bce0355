package pipeline

// Metrics is a snapshot of the pipeline's counters. The derived figures
// (CPI, IPC, efficiency) are computed on read so a zero-instruction run
// never divides by zero.
type Metrics struct {
	TotalCycles       uint64
	TotalInstructions uint64

	StallCycles       uint64
	DataHazards       uint64
	ControlHazards    uint64
	StructuralHazards uint64

	ICacheHits   uint64
	ICacheMisses uint64
	DCacheHits   uint64
	DCacheMisses uint64

	BranchesTotal            uint64
	BranchesPredictedCorrect uint64
	BranchesPredictedWrong   uint64

	MemoryReads       uint64
	MemoryWrites      uint64
	MemoryStallCycles uint64

	// TheoreticalMaxIPC is the best the configured pipeline could do:
	// one instruction per cycle in order, the full width out of order.
	TheoreticalMaxIPC float64
}

// CPI returns cycles per instruction, or zero before anything retires.
func (m Metrics) CPI() float64 {
	if m.TotalInstructions == 0 {
		return 0
	}
	return float64(m.TotalCycles) / float64(m.TotalInstructions)
}

// IPC returns instructions per cycle, or zero before the first cycle.
func (m Metrics) IPC() float64 {
	if m.TotalCycles == 0 {
		return 0
	}
	return float64(m.TotalInstructions) / float64(m.TotalCycles)
}

// Efficiency returns achieved IPC as a fraction of the theoretical
// maximum for the configuration, 0 through 1. Report formatters scale
// to a percentage.
func (m Metrics) Efficiency() float64 {
	if m.TheoreticalMaxIPC == 0 {
		return 0
	}
	return m.IPC() / m.TheoreticalMaxIPC
}
