package pipeline_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lc3sim/timing/pipeline"
)

var _ = Describe("Config", func() {
	It("should provide a valid default", func() {
		config := pipeline.DefaultConfig()
		Expect(config.Validate()).To(Succeed())
		Expect(config.Depth).To(Equal(5))
		Expect(config.Stages).To(HaveLen(5))
		Expect(config.ForwardingEnabled).To(BeTrue())
		Expect(config.BranchPredictionEnabled).To(BeFalse())
		Expect(config.ICache.Enabled).To(BeTrue())
		Expect(config.DCache.Enabled).To(BeTrue())
	})

	Describe("validation", func() {
		var config *pipeline.Config

		BeforeEach(func() {
			config = pipeline.DefaultConfig()
		})

		It("should bound the depth", func() {
			config.Depth = 0
			Expect(config.Validate()).To(MatchError(ContainSubstring("depth")))

			config.Depth = 9
			Expect(config.Validate()).To(MatchError(ContainSubstring("depth")))
		})

		It("should require one stage entry per depth", func() {
			config.Depth = 4
			Expect(config.Validate()).To(
				MatchError(ContainSubstring("stage list")))
		})

		It("should reject unknown stage kinds", func() {
			config.Stages[2] = pipeline.StageKind("dispatch")
			Expect(config.Validate()).To(
				MatchError(ContainSubstring(`unknown kind "dispatch"`)))
		})

		It("should require a clock frequency", func() {
			config.ClockFrequency = 0
			Expect(config.Validate()).To(
				MatchError(ContainSubstring("clock_frequency")))
		})

		It("should check enabled cache geometry", func() {
			config.ICache.LineSize = 0
			Expect(config.Validate()).To(
				MatchError(ContainSubstring("icache")))

			config.ICache.LineSize = 32
			config.DCache.Size = 16
			Expect(config.Validate()).To(
				MatchError(ContainSubstring("too small")))
		})

		It("should skip geometry checks for disabled caches", func() {
			config.ICache = pipeline.CacheConfig{Enabled: false}
			config.DCache = pipeline.CacheConfig{Enabled: false}
			Expect(config.Validate()).To(Succeed())
		})
	})

	It("should clone without sharing the stage list", func() {
		config := pipeline.DefaultConfig()
		clone := config.Clone()
		clone.Stages[0] = pipeline.StageCustom
		clone.Depth = 1

		Expect(config.Stages[0]).To(Equal(pipeline.StageFetch))
		Expect(config.Depth).To(Equal(5))
	})

	Describe("persistence", func() {
		It("should round-trip through a JSON file", func() {
			config := pipeline.DefaultConfig()
			config.Name = "Deep Pipe"
			config.Depth = 7
			config.Stages = []pipeline.StageKind{
				pipeline.StageFetch, pipeline.StageDecode, pipeline.StageDecode,
				pipeline.StageExecute, pipeline.StageMemory, pipeline.StageMemory,
				pipeline.StageWriteback,
			}
			config.BranchPenalty = 5
			config.DCache.MissPenalty = 25

			path := filepath.Join(GinkgoT().TempDir(), "pipe.json")
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := pipeline.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should overlay partial files onto the defaults", func() {
			path := filepath.Join(GinkgoT().TempDir(), "partial.json")
			Expect(os.WriteFile(path,
				[]byte(`{"branch_penalty": 7, "forwarding_enabled": false}`),
				0644)).To(Succeed())

			loaded, err := pipeline.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.BranchPenalty).To(Equal(uint64(7)))
			Expect(loaded.ForwardingEnabled).To(BeFalse())
			Expect(loaded.Depth).To(Equal(5), "untouched fields keep defaults")
		})

		It("should report unreadable and unparsable files", func() {
			_, err := pipeline.LoadConfig(
				filepath.Join(GinkgoT().TempDir(), "missing.json"))
			Expect(err).To(MatchError(ContainSubstring("failed to read")))

			path := filepath.Join(GinkgoT().TempDir(), "broken.json")
			Expect(os.WriteFile(path, []byte("{"), 0644)).To(Succeed())
			_, err = pipeline.LoadConfig(path)
			Expect(err).To(MatchError(ContainSubstring("failed to parse")))
		})
	})
})
