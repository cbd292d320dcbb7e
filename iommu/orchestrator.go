package iommu

import "log"

// stage2IPSBits is the hard-coded stage-2 address size used when a
// stage-1 walk feeds a stage-2 walk. spec.md §9 flags this as an Open
// Question to preserve rather than fix: stage-2 does not pull its IPS
// from a stage-2 configuration record.
const stage2IPSBits = 48

// Orchestrator is the translation engine's entry point. It exclusively
// owns the cache, configuration stores, command/event queues, and
// statistics; the MemoryOracle is shared by reference with the walker.
type Orchestrator struct {
	memory MemoryOracle

	cache    *TLB
	config   *configStore
	commands *commandQueue
	events   *eventQueue
	stats    Statistics

	enabled bool
	clock   uint64
}

func (o *Orchestrator) tick() uint64 {
	o.clock++
	return o.clock
}

// Enable turns the unit on.
func (o *Orchestrator) Enable() { o.enabled = true }

// Disable turns the unit off; Translate then fails every request
// without emitting events or walking, per spec.md §4.5 step 2.
func (o *Orchestrator) Disable() { o.enabled = false }

// IsEnabled reports whether the unit is on.
func (o *Orchestrator) IsEnabled() bool { return o.enabled }

// ConfigureStream replaces the StreamConfig for id wholesale.
func (o *Orchestrator) ConfigureStream(id StreamID, cfg StreamConfig) {
	o.config.configureStream(id, cfg)
}

// ConfigureContext replaces the ContextConfig for (stream, asid) wholesale.
func (o *Orchestrator) ConfigureContext(stream StreamID, asid ASID, cfg ContextConfig) {
	o.config.configureContext(stream, asid, cfg)
}

// GetStream returns the stored StreamConfig, or a default-invalid
// record if none was configured.
func (o *Orchestrator) GetStream(id StreamID) StreamConfig {
	return o.config.getStream(id)
}

// GetContext returns the stored ContextConfig, or a default-invalid
// record if none was configured.
func (o *Orchestrator) GetContext(stream StreamID, asid ASID) ContextConfig {
	return o.config.getContext(stream, asid)
}

// Statistics returns a snapshot of the counters.
func (o *Orchestrator) Statistics() Statistics { return o.stats }

// ResetStatistics zeroes every counter.
func (o *Orchestrator) ResetStatistics() { o.stats = Statistics{} }

// Submit appends cmd to the command queue; overflow drops it silently.
func (o *Orchestrator) Submit(cmd Command) { o.commands.submit(cmd) }

// Drain processes every queued command in submission order.
func (o *Orchestrator) Drain() {
	for _, cmd := range o.commands.drainAll() {
		o.applyCommand(cmd)
		o.stats.CommandsProcessed++
	}
}

func (o *Orchestrator) applyCommand(cmd Command) {
	switch cmd.Kind {
	case CmdSync, CmdPrefetchConfig, CmdPrefetchAddr:
		// no-op in this model, per spec.md §4.6.
	case CmdInvalidateStreamConfig:
		o.cache.InvalidateByStream(cmd.StreamID)
	case CmdInvalidateContext:
		o.cache.InvalidateByASID(cmd.ASID)
	case CmdInvalidateAllConfig, CmdInvalidateAllTLB:
		o.cache.InvalidateAll()
	case CmdInvalidateByASID:
		o.cache.InvalidateByASID(cmd.ASID)
	case CmdInvalidateByVA:
		o.cache.InvalidateByVA(cmd.VA, cmd.ASID)
	case CmdInvalidateByVMID:
		o.cache.InvalidateByVMID(cmd.VMID)
	default:
		log.Panicf("iommu: unhandled command kind %v", cmd.Kind)
	}
}

// HasEvents reports whether the event queue is non-empty.
func (o *Orchestrator) HasEvents() bool { return o.events.hasEvents() }

// PopEvent removes and returns the oldest Fault. ok is false if empty.
func (o *Orchestrator) PopEvent() (Fault, bool) { return o.events.pop() }

// Invalidation shortcuts (spec.md §6.1).

// InvalidateTLBAll clears the entire cache.
func (o *Orchestrator) InvalidateTLBAll() { o.cache.InvalidateAll() }

// InvalidateTLBByASID removes every cached entry tagged with asid.
func (o *Orchestrator) InvalidateTLBByASID(asid ASID) { o.cache.InvalidateByASID(asid) }

// InvalidateTLBByVMID removes every cached entry tagged with vmid.
func (o *Orchestrator) InvalidateTLBByVMID(vmid VMID) { o.cache.InvalidateByVMID(vmid) }

// InvalidateTLBByVA removes every cached entry at va for asid.
func (o *Orchestrator) InvalidateTLBByVA(va VirtualAddress, asid ASID) {
	o.cache.InvalidateByVA(va, asid)
}

// InvalidateTLBByStream removes every cached entry tagged with streamID.
func (o *Orchestrator) InvalidateTLBByStream(streamID StreamID) {
	o.cache.InvalidateByStream(streamID)
}

// Translate is the primary entry point: cache probe, staged page-table
// descent on miss, cache fill on success, fault event on failure. The
// control flow follows spec.md §4.5 exactly.
func (o *Orchestrator) Translate(va VirtualAddress, streamID StreamID, asid ASID, vmid VMID) TranslationResult {
	o.stats.TotalTranslations++

	if !o.enabled {
		return o.fail("SMMU is disabled")
	}

	if cached, ok := o.cache.Lookup(va, streamID, asid, vmid); ok {
		o.stats.CacheHits++
		return TranslationResult{
			Success:      true,
			PhysicalAddr: cached.PA,
			MemoryType:   cached.MemoryType,
			Permission:   cached.Permission,
			Cacheable:    cached.Cacheable,
			Shareable:    cached.Shareable,
		}
	}
	o.stats.CacheMisses++

	ste := o.config.getStream(streamID)
	if !ste.Valid {
		o.emitFault(FaultTranslation, streamID, asid, vmid, va, "Invalid stream table entry")
		return o.fail("Invalid stream table entry")
	}

	result, stage, fault := o.walkStages(va, streamID, asid, ste)
	if fault != "" {
		o.emitFault(FaultTranslation, streamID, asid, vmid, va, fault)
		return o.fail(fault)
	}

	o.cache.Insert(LeafTranslation{
		VABase:     va,
		PA:         result.PA,
		StreamID:   streamID,
		ASID:       asid,
		VMID:       vmid,
		PageSize:   PageSize4KiB, // baseline limitation, spec.md §9 Open Question
		MemoryType: result.MemoryType,
		Permission: result.Permission,
		Cacheable:  result.Cacheable,
		Shareable:  result.Shareable,
		Stage:      stage,
	})

	return TranslationResult{
		Success:      true,
		PhysicalAddr: result.PA,
		MemoryType:   result.MemoryType,
		Permission:   result.Permission,
		Cacheable:    result.Cacheable,
		Shareable:    result.Shareable,
	}
}

// walkStages runs the stage-1/stage-2 branch of spec.md §4.5 step 5 and
// returns the driving stage (whichever stage produced the leaf).
func (o *Orchestrator) walkStages(
	va VirtualAddress,
	streamID StreamID,
	asid ASID,
	ste StreamConfig,
) (WalkResult, TranslationStage, string) {
	switch {
	case ste.S1Enabled:
		ctx := o.config.getContext(streamID, asid)
		if !ctx.Valid {
			return WalkResult{}, Stage1, "Invalid context table entry"
		}

		s1, ok, reason := Walk(o.memory, va, ctx.TableBase, ctx.GranuleBits, ctx.IPSBits, Stage1)
		o.stats.Walks++
		if !ok {
			return WalkResult{}, Stage1, reason
		}

		if !ste.S2Enabled {
			return s1, Stage1, ""
		}

		s2, ok, reason := Walk(
			o.memory, VirtualAddress(s1.PA), ste.S2TableBase, ste.S2GranuleBits,
			stage2IPSBits, Stage2,
		)
		o.stats.Walks++
		if !ok {
			return WalkResult{}, Stage1Plus2, reason
		}

		return s2, Stage1Plus2, ""

	case ste.S2Enabled:
		s2, ok, reason := Walk(
			o.memory, va, ste.S2TableBase, ste.S2GranuleBits, stage2IPSBits, Stage2,
		)
		o.stats.Walks++
		if !ok {
			return WalkResult{}, Stage2, reason
		}

		return s2, Stage2, ""

	default:
		return WalkResult{}, Stage1, "No translation stages enabled"
	}
}

func (o *Orchestrator) fail(reason string) TranslationResult {
	return TranslationResult{Success: false, FaultReason: reason}
}

func (o *Orchestrator) emitFault(kind FaultKind, streamID StreamID, asid ASID, vmid VMID, va VirtualAddress, desc string) {
	o.stats.TranslationFaults++

	accepted := o.events.push(Fault{
		Kind:        kind,
		StreamID:    streamID,
		ASID:        asid,
		VMID:        vmid,
		VA:          va,
		Description: desc,
		Timestamp:   o.tick(),
	})
	if accepted {
		o.stats.EventsGenerated++
	}
}
