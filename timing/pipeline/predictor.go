package pipeline

// BranchPredictorConfig sizes the predictor tables.
type BranchPredictorConfig struct {
	// BHTSize is the number of branch history table entries.
	// Must be a power of 2.
	BHTSize uint32
	// BTBSize is the number of branch target buffer entries.
	// Must be a power of 2.
	BTBSize uint32
}

// DefaultBranchPredictorConfig returns the default table sizes.
func DefaultBranchPredictorConfig() BranchPredictorConfig {
	return BranchPredictorConfig{
		BHTSize: 1024,
		BTBSize: 256,
	}
}

// BranchPredictorStats counts predictor outcomes.
type BranchPredictorStats struct {
	Predictions    uint64
	Correct        uint64
	Mispredictions uint64
	BTBHits        uint64
	BTBMisses      uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s BranchPredictorStats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// BTBHitRate returns the target buffer hit rate as a percentage.
func (s BranchPredictorStats) BTBHitRate() float64 {
	total := s.BTBHits + s.BTBMisses
	if total == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(total) * 100
}

// Prediction is one predictor answer.
type Prediction struct {
	// Taken is the direction guess.
	Taken bool
	// Target is the predicted target when the BTB recognizes the PC.
	Target uint16
	// TargetKnown reports whether Target is valid.
	TargetKnown bool
}

// BranchPredictor is a bimodal predictor: a table of 2-bit saturating
// counters for direction plus a branch target buffer for targets.
// Counter states run 0 (strongly not taken) through 3 (strongly taken).
type BranchPredictor struct {
	bht []uint8

	btb      []btbEntry
	btbValid []bool

	bhtSize uint32
	btbSize uint32

	stats BranchPredictorStats
}

type btbEntry struct {
	pc     uint16
	target uint16
}

// NewBranchPredictor builds a predictor with the given table sizes,
// falling back to the defaults for zero fields.
func NewBranchPredictor(config BranchPredictorConfig) *BranchPredictor {
	bhtSize := config.BHTSize
	btbSize := config.BTBSize
	if bhtSize == 0 {
		bhtSize = 1024
	}
	if btbSize == 0 {
		btbSize = 256
	}

	bp := &BranchPredictor{
		bht:      make([]uint8, bhtSize),
		btb:      make([]btbEntry, btbSize),
		btbValid: make([]bool, btbSize),
		bhtSize:  bhtSize,
		btbSize:  btbSize,
	}

	// Counters start weakly taken.
	for i := range bp.bht {
		bp.bht[i] = 2
	}

	return bp
}

// Instructions are one word each, so the PC indexes the tables directly.

func (bp *BranchPredictor) bhtIndex(pc uint16) uint32 {
	return uint32(pc) & (bp.bhtSize - 1)
}

func (bp *BranchPredictor) btbIndex(pc uint16) uint32 {
	return uint32(pc) & (bp.btbSize - 1)
}

// Predict answers for the branch at pc and counts the lookup.
func (bp *BranchPredictor) Predict(pc uint16) Prediction {
	pred := Prediction{}

	counter := bp.bht[bp.bhtIndex(pc)]
	pred.Taken = counter >= 2

	btbIdx := bp.btbIndex(pc)
	if bp.btbValid[btbIdx] && bp.btb[btbIdx].pc == pc {
		pred.Target = bp.btb[btbIdx].target
		pred.TargetKnown = true
		bp.stats.BTBHits++
	} else {
		bp.stats.BTBMisses++
	}

	bp.stats.Predictions++
	return pred
}

// Update trains the predictor with the resolved outcome and scores the
// direction guess it would have made.
func (bp *BranchPredictor) Update(pc uint16, taken bool, target uint16) {
	bhtIdx := bp.bhtIndex(pc)
	counter := bp.bht[bhtIdx]

	if (counter >= 2) == taken {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}

	if taken {
		if counter < 3 {
			bp.bht[bhtIdx] = counter + 1
		}
	} else if counter > 0 {
		bp.bht[bhtIdx] = counter - 1
	}

	// Only taken branches deposit a target.
	if taken {
		btbIdx := bp.btbIndex(pc)
		bp.btb[btbIdx] = btbEntry{pc: pc, target: target}
		bp.btbValid[btbIdx] = true
	}
}

// Stats returns a copy of the predictor counters.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset restores the weakly-taken initial state and clears the BTB and
// statistics.
func (bp *BranchPredictor) Reset() {
	for i := range bp.bht {
		bp.bht[i] = 2
	}
	for i := range bp.btbValid {
		bp.btbValid[i] = false
	}
	bp.stats = BranchPredictorStats{}
}
