package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lc3sim/timing/pipeline"
)

var _ = Describe("BranchPredictor", func() {
	var bp *pipeline.BranchPredictor

	BeforeEach(func() {
		bp = pipeline.NewBranchPredictor(pipeline.DefaultBranchPredictorConfig())
	})

	It("should start weakly taken with an empty target buffer", func() {
		pred := bp.Predict(0x3000)
		Expect(pred.Taken).To(BeTrue())
		Expect(pred.TargetKnown).To(BeFalse())
	})

	It("should train toward not taken", func() {
		bp.Update(0x3000, false, 0)
		Expect(bp.Predict(0x3000).Taken).To(BeFalse(),
			"weakly taken drops below the threshold after one not-taken")

		bp.Update(0x3000, false, 0)
		bp.Update(0x3000, true, 0x3100)
		Expect(bp.Predict(0x3000).Taken).To(BeFalse(),
			"strongly not taken absorbs a single taken outcome")
	})

	It("should saturate rather than wrap", func() {
		for i := 0; i < 5; i++ {
			bp.Update(0x3000, true, 0x3100)
		}
		bp.Update(0x3000, false, 0)
		Expect(bp.Predict(0x3000).Taken).To(BeTrue(),
			"one not-taken cannot flip a saturated counter")
	})

	It("should keep branches with distinct table slots independent", func() {
		bp.Update(0x3000, false, 0)
		bp.Update(0x3000, false, 0)
		Expect(bp.Predict(0x3000).Taken).To(BeFalse())
		Expect(bp.Predict(0x3001).Taken).To(BeTrue())
	})

	Describe("target buffer", func() {
		It("should serve the target of a taken branch", func() {
			bp.Update(0x3000, true, 0x3456)
			pred := bp.Predict(0x3000)
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(uint16(0x3456)))
		})

		It("should not deposit targets for not-taken branches", func() {
			bp.Update(0x3000, false, 0x3456)
			Expect(bp.Predict(0x3000).TargetKnown).To(BeFalse())
		})

		It("should reject an aliasing entry by tag", func() {
			bp.Update(0x3000, true, 0x3456)
			// 0x3100 shares the 256-entry index with 0x3000.
			pred := bp.Predict(0x3100)
			Expect(pred.TargetKnown).To(BeFalse())
		})

		It("should overwrite an aliased entry", func() {
			bp.Update(0x3000, true, 0x3456)
			bp.Update(0x3100, true, 0x4000)

			Expect(bp.Predict(0x3000).TargetKnown).To(BeFalse())
			pred := bp.Predict(0x3100)
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(uint16(0x4000)))
		})
	})

	Describe("statistics", func() {
		It("should score the guess the tables would have made", func() {
			bp.Update(0x3000, true, 0x3100) // weakly taken, correct
			bp.Update(0x3000, false, 0)     // strongly taken, wrong
			bp.Predict(0x3000)              // one BTB hit
			bp.Predict(0x4000)              // one BTB miss

			stats := bp.Stats()
			Expect(stats.Correct).To(Equal(uint64(1)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
			Expect(stats.Predictions).To(Equal(uint64(2)))
			Expect(stats.BTBHits).To(Equal(uint64(1)))
			Expect(stats.BTBMisses).To(Equal(uint64(1)))
			Expect(stats.BTBHitRate()).To(Equal(50.0))
		})

		It("should guard the rates against empty counts", func() {
			stats := bp.Stats()
			Expect(stats.Accuracy()).To(BeZero())
			Expect(stats.MispredictionRate()).To(BeZero())
			Expect(stats.BTBHitRate()).To(BeZero())
		})
	})

	It("should restore the initial state on reset", func() {
		bp.Update(0x3000, false, 0)
		bp.Update(0x3000, true, 0x3456)
		bp.Predict(0x3000)

		bp.Reset()

		pred := bp.Predict(0x3000)
		Expect(pred.Taken).To(BeTrue())
		Expect(pred.TargetKnown).To(BeFalse())
		Expect(bp.Stats().Predictions).To(Equal(uint64(1)),
			"only the post-reset lookup is counted")
	})

	It("should fall back to default table sizes for zero fields", func() {
		bp = pipeline.NewBranchPredictor(pipeline.BranchPredictorConfig{})
		Expect(bp.Predict(0x3000).Taken).To(BeTrue())
	})
})
