package iommu

import "encoding/binary"

// WalkResult carries the leaf attributes a successful page-table walk
// resolved.
type WalkResult struct {
	PA         PhysicalAddress
	PageSize   PageSize
	MemoryType MemoryType
	Permission AccessPermission
	Cacheable  bool
	Shareable  bool
}

// levelSchedule returns the first and last table levels to walk for a
// given granule, per spec.md §4.2. ok is false for unsupported granules.
func levelSchedule(granuleBits int) (start, end int, ok bool) {
	switch granuleBits {
	case 12, 14:
		return 0, 3, true
	case 16:
		return 1, 3, true
	default:
		return 0, 0, false
	}
}

// pageSizeFor returns the leaf region size produced by a descriptor found
// at the given level under the given granule, per spec.md §4.2's table.
func pageSizeFor(level int, granuleBits int) PageSize {
	switch granuleBits {
	case 12:
		switch level {
		case 0:
			return PageSize512MiB
		case 1:
			return PageSize2MiB
		default:
			return PageSize4KiB
		}
	case 14:
		switch level {
		case 0:
			return PageSize1GiB
		case 1:
			return PageSize32MiB
		default:
			return PageSize16KiB
		}
	case 16:
		switch level {
		case 1:
			return PageSize512MiB
		default:
			return PageSize64KiB
		}
	default:
		return PageSize4KiB
	}
}

// Walk descends a multi-level descriptor table from tableBase until it
// reaches a leaf, per spec.md §4.2. The walker is stateless other than
// its MemoryOracle reference.
func Walk(
	oracle MemoryOracle,
	va VirtualAddress,
	tableBase PhysicalAddress,
	granuleBits int,
	ipsBits int,
	stage TranslationStage,
) (WalkResult, bool, string) {
	startLevel, endLevel, ok := levelSchedule(granuleBits)
	if !ok {
		return WalkResult{}, false, "Invalid granule size"
	}

	bitsPerLevel := granuleBits - 3

	for level := startLevel; level <= endLevel; level++ {
		shift := granuleBits + (3-level)*bitsPerLevel
		index := (uint64(va) >> uint(shift)) & ((1 << uint(bitsPerLevel)) - 1)
		descAddr := PhysicalAddress(uint64(tableBase) + index*8)

		var buf [8]byte
		if !oracle.Read(descAddr, buf[:]) {
			return WalkResult{}, false, "Failed to read descriptor"
		}
		word := binary.LittleEndian.Uint64(buf[:])

		desc := ParseDescriptor(word, level, granuleBits)
		if !desc.Valid {
			return WalkResult{}, false, "Translation fault: invalid descriptor"
		}

		if !desc.IsTable {
			pageSize := pageSizeFor(level, granuleBits)
			offset := uint64(va) & (uint64(pageSize) - 1)

			return WalkResult{
				PA:         PhysicalAddress(uint64(desc.AsLeaf()) + offset),
				PageSize:   pageSize,
				MemoryType: desc.MemoryType,
				Permission: desc.Permission,
				Cacheable:  desc.MemoryType.Cacheable(),
				Shareable:  desc.Shareable,
			}, true, ""
		}

		tableBase = desc.AsTable()
	}

	return WalkResult{}, false, "Translation fault: exceeded max level"
}
