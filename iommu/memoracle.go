package iommu

import "encoding/binary"

// MemoryOracle is the byte-addressable physical store the walker reads
// descriptors from. The walker is generic over any capability exposing a
// sized read that can fail, rather than being tied to a concrete
// byte-vector (spec.md §9 design note).
type MemoryOracle interface {
	// Read fills out with the bytes at addr. It returns false if the
	// read would cross the backing store's end.
	Read(addr PhysicalAddress, out []byte) bool
	// Write stores in at addr. Writes past the backing store's end are
	// silently absorbed by implementations that choose to grow.
	Write(addr PhysicalAddress, in []byte)
	// AllocatePage bump-allocates size bytes and returns the base
	// address. Returns 0 on exhaustion.
	AllocatePage(size uint64) PhysicalAddress
	// WriteDescriptor stores value as a little-endian 8-byte word at
	// addr, the format page-table descriptors are read back in.
	WriteDescriptor(addr PhysicalAddress, value uint64)
}

const unitSize = 4096

// SimpleMemory is a sparse byte-addressable store that only allocates
// the 4 KiB units actually touched by Read/Write, grounded on the
// teacher's unit-map storage abstraction. It also offers a bump
// allocator for page-table construction in tests and trace drivers.
type SimpleMemory struct {
	capacity uint64
	units    map[uint64][]byte
	nextFree uint64
}

// NewSimpleMemory creates a SimpleMemory addressable up to capacity
// bytes. capacity of 0 means effectively unbounded (2^64).
func NewSimpleMemory(capacity uint64) *SimpleMemory {
	return &SimpleMemory{
		capacity: capacity,
		units:    make(map[uint64][]byte),
	}
}

func (m *SimpleMemory) unit(base uint64) []byte {
	u, ok := m.units[base]
	if !ok {
		u = make([]byte, unitSize)
		m.units[base] = u
	}
	return u
}

func (m *SimpleMemory) inBounds(addr uint64, size uint64) bool {
	if m.capacity == 0 {
		return true
	}
	return addr+size <= m.capacity
}

// Read implements MemoryOracle.
func (m *SimpleMemory) Read(addr PhysicalAddress, out []byte) bool {
	a := uint64(addr)
	if !m.inBounds(a, uint64(len(out))) {
		return false
	}

	offset := 0
	for offset < len(out) {
		cur := a + uint64(offset)
		base := cur - cur%unitSize
		inUnit := cur % unitSize
		n := unitSize - inUnit
		if remaining := uint64(len(out) - offset); n > remaining {
			n = remaining
		}

		copy(out[offset:uint64(offset)+n], m.unit(base)[inUnit:inUnit+n])
		offset += int(n)
	}

	return true
}

// Write implements MemoryOracle.
func (m *SimpleMemory) Write(addr PhysicalAddress, in []byte) {
	a := uint64(addr)
	offset := 0
	for offset < len(in) {
		cur := a + uint64(offset)
		base := cur - cur%unitSize
		inUnit := cur % unitSize
		n := unitSize - inUnit
		if remaining := uint64(len(in) - offset); n > remaining {
			n = remaining
		}

		copy(m.unit(base)[inUnit:inUnit+n], in[offset:uint64(offset)+n])
		offset += int(n)
	}
}

// AllocatePage implements MemoryOracle.
func (m *SimpleMemory) AllocatePage(size uint64) PhysicalAddress {
	if size == 0 {
		size = 4096
	}

	if m.capacity != 0 && m.nextFree+size > m.capacity {
		return 0
	}

	base := m.nextFree
	m.nextFree += size

	return PhysicalAddress(base)
}

// WriteDescriptor implements MemoryOracle.
func (m *SimpleMemory) WriteDescriptor(addr PhysicalAddress, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	m.Write(addr, buf[:])
}
