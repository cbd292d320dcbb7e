package iommu

// Default OrchestratorConfig values, per spec.md §6.3.
const (
	DefaultTLBCapacity         = 128
	DefaultStreamTableCapacity = 256
	DefaultCommandQueueDepth   = 64
	DefaultEventQueueDepth     = 64
)

// Builder constructs an Orchestrator, mirroring the teacher's fluent
// With*-method builder pattern (mem/vm/tlb/builder.go,
// mem/vm/mmu/builder.go), adapted: there is no sim.Engine or component
// name since this core has no ticking component.
type Builder struct {
	tlbCapacity            int
	streamTableCapacity    int
	commandQueueDepth      int
	eventQueueDepth        int
	stage1EnabledByDefault bool
	stage2EnabledByDefault bool
	memory                 MemoryOracle
}

// NewBuilder returns a Builder preset with spec.md §6.3 defaults.
func NewBuilder() Builder {
	return Builder{
		tlbCapacity:         DefaultTLBCapacity,
		streamTableCapacity: DefaultStreamTableCapacity,
		commandQueueDepth:   DefaultCommandQueueDepth,
		eventQueueDepth:     DefaultEventQueueDepth,
	}
}

// WithTLBCapacity sets the cache's maximum entry count.
func (b Builder) WithTLBCapacity(n int) Builder {
	b.tlbCapacity = n
	return b
}

// WithStreamTableCapacity sets the advisory stream-table capacity hint.
// Nothing in the core enforces it; it exists for callers that want to
// pre-size the backing register façade (spec.md §6.3).
func (b Builder) WithStreamTableCapacity(n int) Builder {
	b.streamTableCapacity = n
	return b
}

// WithCommandQueueDepth sets the command channel's bound.
func (b Builder) WithCommandQueueDepth(n int) Builder {
	b.commandQueueDepth = n
	return b
}

// WithEventQueueDepth sets the event channel's bound.
func (b Builder) WithEventQueueDepth(n int) Builder {
	b.eventQueueDepth = n
	return b
}

// WithStage1EnabledDefault sets whether Enable() leaves the unit ready
// to accept stream configs that enable stage 1 (informational only;
// StreamConfig.S1Enabled is what actually gates a walk).
func (b Builder) WithStage1EnabledDefault(v bool) Builder {
	b.stage1EnabledByDefault = v
	return b
}

// WithStage2EnabledDefault is the stage-2 analog of
// WithStage1EnabledDefault.
func (b Builder) WithStage2EnabledDefault(v bool) Builder {
	b.stage2EnabledByDefault = v
	return b
}

// WithMemory sets the MemoryOracle the walker reads descriptors from.
// Required: Build panics if it was never set.
func (b Builder) WithMemory(m MemoryOracle) Builder {
	b.memory = m
	return b
}

// Build constructs the Orchestrator. The unit starts disabled, per
// spec.md §4.5 step 2 — callers must call Enable() explicitly.
func (b Builder) Build() *Orchestrator {
	if b.memory == nil {
		panic("iommu: Builder.WithMemory must be set before Build")
	}

	return &Orchestrator{
		memory:   b.memory,
		cache:    NewTLB(b.tlbCapacity),
		config:   newConfigStore(),
		commands: newCommandQueue(b.commandQueueDepth),
		events:   newEventQueue(b.eventQueueDepth),
	}
}
