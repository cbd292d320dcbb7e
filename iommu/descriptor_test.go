package iommu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptorInvalidBitZero(t *testing.T) {
	d := ParseDescriptor(0, 3, 12)
	require.False(t, d.Valid)
}

func TestParseDescriptorTableVsLeafByLevel(t *testing.T) {
	// bit0 valid, bit1 table-type set.
	word := uint64(0x3) | (uint64(0x101000) & outAddrMask)

	table := ParseDescriptor(word, 1, 12)
	assert.True(t, table.Valid)
	assert.True(t, table.IsTable)

	// level 3 is always a leaf regardless of bit 1.
	leaf := ParseDescriptor(word, 3, 12)
	assert.True(t, leaf.Valid)
	assert.False(t, leaf.IsTable)
}

func TestParseDescriptorMemoryAttrIndex(t *testing.T) {
	cases := []struct {
		index int
		want  MemoryType
	}{
		{0, DeviceNGnRnE},
		{1, DeviceNGnRE},
		{2, NormalNonCacheable},
		{3, NormalWriteThrough},
		{4, NormalWriteBack},
		{7, NormalWriteBack},
	}

	for _, c := range cases {
		word := uint64(1) | uint64(c.index<<2)
		d := ParseDescriptor(word, 3, 12)
		assert.Equal(t, c.want, d.MemoryType, "index %d", c.index)
	}
}

func TestParseDescriptorAccessPermission(t *testing.T) {
	cases := []struct {
		ap   int
		want AccessPermission
	}{
		{0, PermReadWrite},
		{1, PermReadWrite},
		{2, PermReadOnly},
		{3, PermReadOnly},
	}

	for _, c := range cases {
		word := uint64(1) | uint64(c.ap<<6)
		d := ParseDescriptor(word, 3, 12)
		assert.Equal(t, c.want, d.Permission)
	}
}

func TestParseDescriptorCacheabilityPolicy(t *testing.T) {
	for idx, cacheable := range map[int]bool{0: false, 1: false, 2: false, 3: true, 4: true} {
		word := uint64(1) | uint64(idx<<2)
		d := ParseDescriptor(word, 3, 12)
		assert.Equal(t, cacheable, d.MemoryType.Cacheable(), "index %d", idx)
	}
}

func TestParseDescriptorHintBits(t *testing.T) {
	word := uint64(1) |
		uint64(1<<10) | // access flag
		uint64(1<<51) | // dirty
		uint64(1<<52) | // contiguous
		uint64(1<<53) | // pxn
		uint64(1<<54) | // xn
		uint64(3<<8) // shareable

	d := ParseDescriptor(word, 3, 12)
	assert.True(t, d.AccessFlag)
	assert.True(t, d.Dirty)
	assert.True(t, d.Contiguous)
	assert.True(t, d.PXN)
	assert.True(t, d.XN)
	assert.True(t, d.Shareable)
}

func TestParseDescriptorOutAddrMasksLowBits(t *testing.T) {
	word := uint64(1) | uint64(0xFFFFFFFFFFFFF000)
	d := ParseDescriptor(word, 3, 12)
	assert.Equal(t, PhysicalAddress(0x0000FFFFFFFFF000), d.OutAddr)
}

func TestParseDescriptorDeterministic(t *testing.T) {
	word := uint64(0xDEADBEEF00000123)
	a := ParseDescriptor(word, 2, 14)
	b := ParseDescriptor(word, 2, 14)
	assert.Equal(t, a, b)
}

func TestDescriptorAsLeafAsTablePanicOnWrongDiscriminant(t *testing.T) {
	leaf := Descriptor{Valid: true, IsTable: false, OutAddr: 0x1000}
	table := Descriptor{Valid: true, IsTable: true, OutAddr: 0x2000}

	assert.Panics(t, func() { leaf.AsTable() })
	assert.Panics(t, func() { table.AsLeaf() })
	assert.Equal(t, PhysicalAddress(0x1000), leaf.AsLeaf())
	assert.Equal(t, PhysicalAddress(0x2000), table.AsTable())
}
