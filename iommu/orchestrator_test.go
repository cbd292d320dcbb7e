package iommu

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Orchestrator", func() {
	var (
		mem *SimpleMemory
		o   *Orchestrator
		root PhysicalAddress
	)

	BeforeEach(func() {
		mem = NewSimpleMemory(0)
		root = buildFourLevelTablesForSpec(mem, 0x101000)
		o = NewBuilder().WithMemory(mem).Build()

		o.ConfigureStream(0, StreamConfig{Valid: true, S1Enabled: true})
		o.ConfigureContext(0, 1, ContextConfig{
			Valid: true, TableBase: root, GranuleBits: 12, IPSBits: 48,
		})
		o.Enable()
	})

	Describe("S1: basic 4 KiB translation", func() {
		It("succeeds with the leaf's attributes", func() {
			result := o.Translate(0x1000, 0, 1, 0)

			Expect(result.Success).To(BeTrue())
			Expect(result.PhysicalAddr).To(Equal(PhysicalAddress(0x101000)))
			Expect(result.MemoryType).To(Equal(NormalWriteBack))
			Expect(result.Permission).To(Equal(PermReadWrite))
			Expect(result.Cacheable).To(BeTrue())
		})
	})

	Describe("S2: cache hit after first walk", func() {
		It("does not walk again and counts a hit", func() {
			o.Translate(0x1000, 0, 1, 0)
			before := o.Statistics().Walks

			result := o.Translate(0x1000, 0, 1, 0)

			Expect(result.Success).To(BeTrue())
			Expect(o.Statistics().CacheHits).To(Equal(uint64(1)))
			Expect(o.Statistics().Walks).To(Equal(before))
		})
	})

	Describe("S3: invalidation by ASID forces a re-walk", func() {
		It("misses and walks again after InvalidateByASID", func() {
			o.Translate(0x1000, 0, 1, 0)
			o.Translate(0x1000, 0, 1, 0)
			walksAfterWarm := o.Statistics().Walks
			missesAfterWarm := o.Statistics().CacheMisses

			o.Submit(Command{Kind: CmdInvalidateByASID, ASID: 1})
			o.Drain()

			result := o.Translate(0x1000, 0, 1, 0)

			Expect(result.Success).To(BeTrue())
			Expect(o.Statistics().CacheMisses).To(Equal(missesAfterWarm + 1))
			Expect(o.Statistics().Walks).To(Equal(walksAfterWarm + 1))
		})
	})

	Describe("S4: invalid stream", func() {
		It("fails with the documented reason and emits one event", func() {
			result := o.Translate(0x1000, 99, 1, 0)

			Expect(result.Success).To(BeFalse())
			Expect(result.FaultReason).To(Equal("Invalid stream table entry"))
			Expect(o.HasEvents()).To(BeTrue())

			fault, ok := o.PopEvent()
			Expect(ok).To(BeTrue())
			Expect(fault.Kind).To(Equal(FaultTranslation))
			Expect(o.HasEvents()).To(BeFalse())
		})
	})

	Describe("S5: unmapped address", func() {
		It("fails and increments translation_faults", func() {
			before := o.Statistics().TranslationFaults

			result := o.Translate(0x100000, 0, 1, 0)

			Expect(result.Success).To(BeFalse())
			Expect(o.Statistics().TranslationFaults).To(Equal(before + 1))
			Expect(o.HasEvents()).To(BeTrue())
		})
	})

	Describe("S6: granule rejection", func() {
		It("fails with Invalid granule size", func() {
			o.ConfigureContext(0, 2, ContextConfig{
				Valid: true, TableBase: root, GranuleBits: 13, IPSBits: 48,
			})

			result := o.Translate(0x1000, 0, 2, 0)

			Expect(result.Success).To(BeFalse())
			Expect(result.FaultReason).To(Equal("Invalid granule size"))
		})
	})

	Describe("disabled unit", func() {
		It("fails every request without emitting events", func() {
			o.Disable()

			result := o.Translate(0x1000, 0, 1, 0)

			Expect(result.Success).To(BeFalse())
			Expect(result.FaultReason).To(Equal("SMMU is disabled"))
			Expect(o.HasEvents()).To(BeFalse())
			Expect(o.Statistics().TotalTranslations).To(Equal(uint64(1)))
		})
	})

	Describe("both stages disabled", func() {
		It("fails with No translation stages enabled", func() {
			o.ConfigureStream(7, StreamConfig{Valid: true})

			result := o.Translate(0x1000, 7, 0, 0)

			Expect(result.Success).To(BeFalse())
			Expect(result.FaultReason).To(Equal("No translation stages enabled"))
		})
	})

	Describe("failure-path symmetry", func() {
		It("tracks translation_faults and events_generated 1:1", func() {
			o.Translate(0x1000, 123, 1, 0) // invalid stream
			o.Translate(0x100000, 0, 1, 0) // unmapped

			stats := o.Statistics()
			Expect(stats.TranslationFaults).To(Equal(stats.EventsGenerated))
		})
	})

	Describe("command channel", func() {
		It("increments commands_processed by N on drain", func() {
			for i := 0; i < 5; i++ {
				o.Submit(Command{Kind: CmdSync})
			}
			o.Drain()

			Expect(o.Statistics().CommandsProcessed).To(Equal(uint64(5)))
		})

		It("drops commands silently past the queue's capacity", func() {
			small := NewBuilder().WithMemory(mem).WithCommandQueueDepth(2).Build()
			small.Submit(Command{Kind: CmdSync})
			small.Submit(Command{Kind: CmdSync})
			small.Submit(Command{Kind: CmdSync}) // dropped

			small.Drain()

			Expect(small.Statistics().CommandsProcessed).To(Equal(uint64(2)))
		})
	})

	Describe("round trip property", func() {
		It("returns pa + (va mod page_size) for a mapped address", func() {
			result := o.Translate(0x1000, 0, 1, 0)
			Expect(result.PhysicalAddr).To(Equal(PhysicalAddress(0x101000)))
		})
	})
})

// buildFourLevelTablesForSpec mirrors buildFourLevelTables (walker_test.go)
// but lives here to make the orchestrator specs self-contained about what
// page-table shape they rely on.
func buildFourLevelTablesForSpec(mem *SimpleMemory, outAddr PhysicalAddress) PhysicalAddress {
	root := mem.AllocatePage(4096)
	tableBase := root

	for level := 0; level < 3; level++ {
		next := mem.AllocatePage(4096)
		mem.WriteDescriptor(tableBase, uint64(next)|0x3)
		tableBase = next
	}

	leafWord := uint64(outAddr) | 0x1 | (1 << 1) | (1 << 10) | (4 << 2)
	mem.WriteDescriptor(PhysicalAddress(uint64(tableBase)+8), leafWord)

	return root
}
