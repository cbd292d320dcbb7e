// Package iommu implements a functional model of an SMMUv3-style IOMMU
// translation engine: per-device configuration, a multi-level
// descriptor-based page table walker, and a cache of recent translations.
package iommu

// PhysicalAddress and VirtualAddress are 64-bit address quantities.
type PhysicalAddress uint64

// VirtualAddress is a device-issued address to be translated.
type VirtualAddress uint64

// StreamID identifies an upstream device on the bus.
type StreamID uint32

// ASID tags stage-1 translations for a process sharing a device.
type ASID uint16

// VMID tags stage-2 translations for a virtual machine.
type VMID uint16

// PageSize is one of the architecturally supported leaf region sizes.
type PageSize uint64

// Supported page sizes, ordered small to large.
const (
	PageSize4KiB   PageSize = 4 * 1024
	PageSize16KiB  PageSize = 16 * 1024
	PageSize64KiB  PageSize = 64 * 1024
	PageSize2MiB   PageSize = 2 * 1024 * 1024
	PageSize32MiB  PageSize = 32 * 1024 * 1024
	PageSize512MiB PageSize = 512 * 1024 * 1024
	PageSize1GiB   PageSize = 1024 * 1024 * 1024
)

// cacheProbeOrder is the fixed order the cache probes page sizes in,
// largest first, per spec: lookups don't know which size a caller stored.
var cacheProbeOrder = [...]PageSize{
	PageSize1GiB, PageSize2MiB, PageSize64KiB, PageSize4KiB,
}

// TranslationStage selects which stage(s) of translation a walk drives.
type TranslationStage int

// Translation stages.
const (
	Stage1 TranslationStage = iota
	Stage2
	Stage1Plus2
)

func (s TranslationStage) String() string {
	switch s {
	case Stage1:
		return "Stage1"
	case Stage2:
		return "Stage2"
	case Stage1Plus2:
		return "Stage1+Stage2"
	default:
		return "Unknown"
	}
}

// MemoryType is the decoded memory attribute of a leaf descriptor.
type MemoryType int

// Memory types.
const (
	DeviceNGnRnE MemoryType = iota
	DeviceNGnRE
	DeviceNGRE
	DeviceGRE
	NormalNonCacheable
	NormalWriteThrough
	NormalWriteBack
)

// Cacheable reports whether the memory type is cacheable normal memory.
func (m MemoryType) Cacheable() bool {
	return m == NormalWriteThrough || m == NormalWriteBack
}

// AccessPermission is the decoded access permission of a leaf descriptor.
type AccessPermission int

// Access permissions.
const (
	PermNone AccessPermission = iota
	PermReadOnly
	PermWriteOnly
	PermReadWrite
)

// FaultKind classifies why a translation failed.
type FaultKind int

// Fault kinds.
const (
	FaultNone FaultKind = iota
	FaultTranslation
	FaultPermission
	FaultAccess
	FaultAddressSize
	FaultCacheConflict
	FaultUnsupportedUpstream
)

func (k FaultKind) String() string {
	switch k {
	case FaultNone:
		return "None"
	case FaultTranslation:
		return "Translation"
	case FaultPermission:
		return "Permission"
	case FaultAccess:
		return "Access"
	case FaultAddressSize:
		return "AddressSize"
	case FaultCacheConflict:
		return "CacheConflict"
	case FaultUnsupportedUpstream:
		return "UnsupportedUpstream"
	default:
		return "Unknown"
	}
}

// CommandKind identifies the effect a Command has when drained.
type CommandKind int

// Command kinds.
const (
	CmdSync CommandKind = iota
	CmdPrefetchConfig
	CmdPrefetchAddr
	CmdInvalidateStreamConfig
	CmdInvalidateContext
	CmdInvalidateAllConfig
	CmdInvalidateAllTLB
	CmdInvalidateByASID
	CmdInvalidateByVA
	CmdInvalidateByVMID
)

// StreamConfig is the per-device configuration record keyed by StreamID.
type StreamConfig struct {
	Valid         bool
	S1Enabled     bool
	S2Enabled     bool
	S1ContextPtr  uint64
	S2TableBase   PhysicalAddress
	VMID          VMID
	S1Format      uint8
	S2GranuleBits int
}

// ContextConfig is the per (StreamID, ASID) configuration record.
type ContextConfig struct {
	Valid       bool
	TableBase   PhysicalAddress
	ASID        ASID
	GranuleBits int
	IPSBits     int
	SH          uint8
	ORGN        uint8
	IRGN        uint8
}

// LeafTranslation is a resolved translation cached by the TLB.
type LeafTranslation struct {
	VABase     VirtualAddress
	PA         PhysicalAddress
	StreamID   StreamID
	ASID       ASID
	VMID       VMID
	PageSize   PageSize
	MemoryType MemoryType
	Permission AccessPermission
	Cacheable  bool
	Shareable  bool
	Stage      TranslationStage
	Timestamp  uint64
}

// Command is a tagged union of configuration/invalidation requests
// submitted to the Orchestrator's command channel.
type Command struct {
	Kind     CommandKind
	StreamID StreamID
	ASID     ASID
	VMID     VMID
	VA       VirtualAddress
}

// Fault is a structured event describing a failed translation.
type Fault struct {
	Kind        FaultKind
	StreamID    StreamID
	ASID        ASID
	VMID        VMID
	VA          VirtualAddress
	Description string
	Timestamp   uint64
}

// Statistics are unsigned counters maintained by the Orchestrator.
type Statistics struct {
	TotalTranslations uint64
	CacheHits         uint64
	CacheMisses       uint64
	Walks             uint64
	TranslationFaults uint64
	PermissionFaults  uint64
	CommandsProcessed uint64
	EventsGenerated   uint64
}

// TranslationResult is returned by Orchestrator.Translate.
type TranslationResult struct {
	Success      bool
	PhysicalAddr PhysicalAddress
	MemoryType   MemoryType
	Permission   AccessPermission
	Cacheable    bool
	Shareable    bool
	FaultReason  string
}

// contextKey packs (StreamID, ASID) into the canonical composite key
// spec.md mandates: (stream << 16) | asid. Folding asid into stream
// without this documented shift would alias distinct contexts.
func contextKey(stream StreamID, asid ASID) uint64 {
	return (uint64(stream) << 16) | uint64(asid)
}
