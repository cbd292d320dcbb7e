package iommu

import "container/list"

// cacheKey identifies a leaf translation in the TLB.
type cacheKey struct {
	vaBase   VirtualAddress
	streamID StreamID
	asid     ASID
	vmid     VMID
}

func keyFor(va VirtualAddress, pageSize PageSize, streamID StreamID, asid ASID, vmid VMID) cacheKey {
	base := va &^ VirtualAddress(uint64(pageSize)-1)
	return cacheKey{vaBase: base, streamID: streamID, asid: asid, vmid: vmid}
}

// TLB is a bounded, LRU-evicted cache of leaf translations. It combines a
// hash map from key to list element with an intrusive recency list, per
// spec.md §9's design note, grounded on the teacher's
// map-of-*list.Element + container/list pattern (mem/vm/pagetable.go),
// generalized here into LRU rather than insertion-order semantics.
type TLB struct {
	capacity int
	entries  map[cacheKey]*list.Element
	recency  *list.List // front = most recently used

	hits   uint64
	misses uint64
	clock  uint64
}

// NewTLB creates a TLB with the given capacity (minimum 1).
func NewTLB(capacity int) *TLB {
	if capacity < 1 {
		capacity = 1
	}

	return &TLB{
		capacity: capacity,
		entries:  make(map[cacheKey]*list.Element),
		recency:  list.New(),
	}
}

// Lookup probes each PageSize in the fixed order {1GiB, 2MiB, 64KiB,
// 4KiB} for a match, since callers of Insert store at a specific
// page_size and Lookup does not know it in advance. A probe matches only
// an entry stored at the probed page size. The first match wins and is
// promoted to the recency head.
func (c *TLB) Lookup(va VirtualAddress, streamID StreamID, asid ASID, vmid VMID) (LeafTranslation, bool) {
	for _, ps := range cacheProbeOrder {
		key := keyFor(va, ps, streamID, asid, vmid)
		if elem, ok := c.entries[key]; ok && elem.Value.(LeafTranslation).PageSize == ps {
			c.recency.MoveToFront(elem)
			c.hits++
			return elem.Value.(LeafTranslation), true
		}
	}

	c.misses++
	return LeafTranslation{}, false
}

// Insert stores entry, evicting the least-recently-used entry if the
// cache is full. If the key already exists, its old list position is
// replaced. VABase is masked down to entry.PageSize's alignment before
// storing, per spec.md §3's key-field definition
// (va_base = va &^ (page_size-1)) — callers may pass the raw request VA.
func (c *TLB) Insert(entry LeafTranslation) {
	entry.VABase &^= VirtualAddress(uint64(entry.PageSize) - 1)
	key := keyFor(entry.VABase, entry.PageSize, entry.StreamID, entry.ASID, entry.VMID)

	c.clock++
	entry.Timestamp = c.clock

	if elem, ok := c.entries[key]; ok {
		c.recency.Remove(elem)
		delete(c.entries, key)
	}

	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	elem := c.recency.PushFront(entry)
	c.entries[key] = elem
}

func (c *TLB) evictOldest() {
	oldest := c.recency.Back()
	if oldest == nil {
		return
	}

	old := oldest.Value.(LeafTranslation)
	key := keyFor(old.VABase, old.PageSize, old.StreamID, old.ASID, old.VMID)
	delete(c.entries, key)
	c.recency.Remove(oldest)
}

// InvalidateAll clears the entire cache.
func (c *TLB) InvalidateAll() {
	c.entries = make(map[cacheKey]*list.Element)
	c.recency.Init()
}

// invalidateWhere removes every entry matching pred, keeping the map
// and recency list consistent.
func (c *TLB) invalidateWhere(pred func(LeafTranslation) bool) {
	for e := c.recency.Front(); e != nil; {
		next := e.Next()
		entry := e.Value.(LeafTranslation)
		if pred(entry) {
			key := keyFor(entry.VABase, entry.PageSize, entry.StreamID, entry.ASID, entry.VMID)
			delete(c.entries, key)
			c.recency.Remove(e)
		}
		e = next
	}
}

// InvalidateByASID removes every entry tagged with asid.
func (c *TLB) InvalidateByASID(asid ASID) {
	c.invalidateWhere(func(e LeafTranslation) bool { return e.ASID == asid })
}

// InvalidateByVMID removes every entry tagged with vmid.
func (c *TLB) InvalidateByVMID(vmid VMID) {
	c.invalidateWhere(func(e LeafTranslation) bool { return e.VMID == vmid })
}

// InvalidateByStream removes every entry tagged with streamID.
func (c *TLB) InvalidateByStream(streamID StreamID) {
	c.invalidateWhere(func(e LeafTranslation) bool { return e.StreamID == streamID })
}

// InvalidateByVA removes every entry whose asid matches and whose
// va_base under its own page_size equals va_base computed from va under
// the same page_size, probed over all page sizes in the lookup order.
func (c *TLB) InvalidateByVA(va VirtualAddress, asid ASID) {
	for _, ps := range cacheProbeOrder {
		target := va &^ VirtualAddress(uint64(ps)-1)
		c.invalidateWhere(func(e LeafTranslation) bool {
			return e.ASID == asid && e.PageSize == ps && e.VABase == target
		})
	}
}

// Hits returns the cumulative hit count.
func (c *TLB) Hits() uint64 { return c.hits }

// Misses returns the cumulative miss count.
func (c *TLB) Misses() uint64 { return c.misses }

// Len returns the number of cached entries.
func (c *TLB) Len() int { return len(c.entries) }
