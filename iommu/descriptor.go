package iommu

// Descriptor is the decoded form of a 64-bit page-table descriptor word.
// IsTable discriminates between a non-leaf table descriptor (read through
// AsTable) and a leaf (read through AsLeaf), making the walker's dispatch
// total rather than a grab-bag of bits.
type Descriptor struct {
	Valid   bool
	IsTable bool

	// OutAddr is the next-level table base (IsTable) or the leaf
	// physical base (!IsTable), bits [47:12], low 12 bits zero.
	OutAddr PhysicalAddress

	Permission AccessPermission
	MemoryType MemoryType
	Shareable  bool
	AccessFlag bool
	Dirty      bool
	Contiguous bool
	PXN        bool
	XN         bool
}

// AsTable returns the next-level table base. Panics if the descriptor is
// a leaf — a programmer error in the walker, not a domain fault.
func (d Descriptor) AsTable() PhysicalAddress {
	if !d.IsTable {
		panic("iommu: AsTable called on a leaf descriptor")
	}
	return d.OutAddr
}

// AsLeaf returns the leaf physical base. Panics if the descriptor is a
// table — a programmer error in the walker, not a domain fault.
func (d Descriptor) AsLeaf() PhysicalAddress {
	if d.IsTable {
		panic("iommu: AsLeaf called on a table descriptor")
	}
	return d.OutAddr
}

const (
	bitValid      = 0
	bitType       = 1
	shiftMemAttr  = 2
	shiftAP       = 6
	shiftSH       = 8
	bitAF         = 10
	bitDirty      = 51
	bitContiguous = 52
	bitPXN        = 53
	bitXN         = 54
	outAddrMask   = uint64(0x0000FFFFFFFFF000)
)

func bitSet(word uint64, bit int) bool {
	return (word>>uint(bit))&1 != 0
}

func field(word uint64, shift, bits int) uint64 {
	return (word >> uint(shift)) & ((1 << uint(bits)) - 1)
}

// ParseDescriptor decodes a raw 64-bit descriptor word per the
// architectural bit contract (little-endian bit numbering), given the
// table level and translation granule it was fetched under.
//
// At levels 0..2, bit 1 discriminates table vs block descriptors. At
// level 3 the descriptor is always a leaf regardless of bit 1 — an
// architectural corner preserved for compatibility.
func ParseDescriptor(word uint64, level int, granuleBits int) Descriptor {
	d := Descriptor{Valid: bitSet(word, bitValid)}
	if !d.Valid {
		return d
	}

	d.IsTable = bitSet(word, bitType) && level != 3
	d.OutAddr = PhysicalAddress(word & outAddrMask)

	d.MemoryType = decodeMemoryType(field(word, shiftMemAttr, 3))
	d.Permission = decodeAccessPermission(field(word, shiftAP, 2))
	d.Shareable = field(word, shiftSH, 2) != 0
	d.AccessFlag = bitSet(word, bitAF)
	d.Dirty = bitSet(word, bitDirty)
	d.Contiguous = bitSet(word, bitContiguous)
	d.PXN = bitSet(word, bitPXN)
	d.XN = bitSet(word, bitXN)

	return d
}

func decodeMemoryType(attrIndex uint64) MemoryType {
	switch attrIndex {
	case 0:
		return DeviceNGnRnE
	case 1:
		return DeviceNGnRE
	case 2:
		return NormalNonCacheable
	case 3:
		return NormalWriteThrough
	default:
		return NormalWriteBack
	}
}

func decodeAccessPermission(ap uint64) AccessPermission {
	// 0 and 1 both decode to ReadWrite, 2 and 3 to ReadOnly: the model
	// conflates privileged/user variants by design (spec.md §4.1).
	if ap == 0 || ap == 1 {
		return PermReadWrite
	}
	return PermReadOnly
}
