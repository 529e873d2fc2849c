// Package cache implements the page cache: a fixed-capacity, set-chained
// cache over page-addressed main memory, with dirty tracking, LFU-style
// eviction, and write-back to a backing memory.Controller.
//
// The entry pool is a fixed arena with an intrusive free/used list, in the
// manner of a buffer-pool design: parallel prev/next index arrays over the
// arena instead of per-entry pointers, with a dedicated free list threaded
// through the same arrays.
package cache

import (
	"fmt"

	"github.com/avl-tools/tinyvm/internal/isa"
	"github.com/avl-tools/tinyvm/internal/mem"
)

// nullIter is the sentinel "no entry" index, standing in for the source's
// NULL_ITER across an arena of fixed-size nodes.
const nullIter = -1

// entry is one page-cache slot. It is a node in exactly one intrusive list
// at a time: the free list when unused, the used list (and its hash bucket
// chain) when resident.
type entry struct {
	page  uint32
	data  mem.Page
	dirty bool
	freq  uint64
	seq   uint64 // insertion order, for the eviction tiebreak

	prev, next int32 // used/free list links
	bucketNext int32 // hash-chain link within its bucket
}

// Cache is a fixed-capacity page cache fronting a memory.Controller.
type Cache struct {
	backing *mem.Controller

	entries []entry
	buckets []int32

	freeHead int32
	usedHead int32
	usedTail int32

	used int
	next uint64 // monotonic insertion counter
}

// New creates a page cache with the given capacity (number of resident
// pages) fronting backing.
func New(backing *mem.Controller, capacity int) *Cache {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}

	c := &Cache{
		backing:  backing,
		entries:  make([]entry, capacity),
		buckets:  make([]int32, capacity),
		freeHead: 0,
		usedHead: nullIter,
		usedTail: nullIter,
	}

	for i := range c.buckets {
		c.buckets[i] = nullIter
	}

	for i := range c.entries {
		c.entries[i].prev = nullIter
		c.entries[i].bucketNext = nullIter

		if i == len(c.entries)-1 {
			c.entries[i].next = nullIter
		} else {
			c.entries[i].next = int32(i + 1)
		}
	}

	return c
}

// Capacity returns the fixed number of resident-page slots.
func (c *Cache) Capacity() int {
	return len(c.entries)
}

// Used returns the number of currently resident entries.
func (c *Cache) Used() int {
	return c.used
}

// Free returns the number of currently free entries. Used+Free equals
// Capacity at every observable boundary.
func (c *Cache) Free() int {
	return c.Capacity() - c.used
}

func pageOf(addr uint32) uint32 {
	return addr / mem.PageSize
}

func offsetOf(addr uint32) uint32 {
	return addr % mem.PageSize
}

func hashOfPage(page uint32) int {
	// A fold of the page number.
	h := page ^ (page >> 16)

	return int(h)
}

// lookup walks the hash chain for page's bucket, returning the resident
// entry index whose page matches, or nullIter if none does.
func (c *Cache) lookup(page uint32) int32 {
	h := bucketIndex(page, len(c.buckets))

	for idx := c.buckets[h]; idx != nullIter; idx = c.entries[idx].bucketNext {
		if c.entries[idx].page == page {
			return idx
		}
	}

	return nullIter
}

func bucketIndex(page uint32, nbuckets int) int {
	h := hashOfPage(page) % nbuckets
	if h < 0 {
		h += nbuckets
	}

	return h
}

// TryRead copies the word at addr into out, returning true, if the
// containing page is resident; it returns false and leaves state unchanged
// otherwise. A successful read increments the entry's access-frequency
// counter.
func (c *Cache) TryRead(addr uint32, out *isa.Word) bool {
	idx := c.lookup(pageOf(addr))
	if idx == nullIter {
		return false
	}

	e := &c.entries[idx]
	e.freq++
	*out = e.data[offsetOf(addr)]

	return true
}

// TryWrite writes in to the word at addr, returning true, if the containing
// page is resident; it returns false and leaves state unchanged otherwise.
// A successful write marks the entry dirty and increments its frequency
// counter.
func (c *Cache) TryWrite(addr uint32, in isa.Word) bool {
	idx := c.lookup(pageOf(addr))
	if idx == nullIter {
		return false
	}

	e := &c.entries[idx]
	e.freq++
	e.dirty = true
	e.data[offsetOf(addr)] = in

	return true
}

// AddEntry brings a page into the cache, evicting the least-frequently-used
// resident entry (ties broken by earliest insertion) if capacity is
// exhausted. If the page is already resident this is a no-op success.
//
// The source documents this same behavior, carried forward by
// this spec): AddEntry installs a blank, zero-initialized entry. It does
// not itself fetch the page's bytes from the backing store -- that is the
// separate FetchEntry step, which the owner (internal/cpu) drives before
// the first read is expected to observe real data.
func (c *Cache) AddEntry(addr uint32) error {
	page := pageOf(addr)

	if c.lookup(page) != nullIter {
		return nil
	}

	if c.used == c.Capacity() {
		if err := c.evictOne(); err != nil {
			return err
		}
	}

	idx := c.freeHead
	if idx == nullIter {
		return &IntegrityError{Reason: "free list exhausted but used count below capacity"}
	}

	c.freeHead = c.entries[idx].next

	c.entries[idx] = entry{
		page: page,
		prev: nullIter,
		next: nullIter,
	}
	c.next++
	c.entries[idx].seq = c.next

	c.pushUsed(idx)
	c.insertBucket(page, idx)

	c.used++

	return nil
}

// FetchEntry loads a resident but not-yet-fetched page's bytes from the
// backing store. It is idempotent: calling it again simply re-reads the
// backing page (harmless, since a freshly added entry is clean).
func (c *Cache) FetchEntry(addr uint32) error {
	idx := c.lookup(pageOf(addr))
	if idx == nullIter {
		return &IntegrityError{Reason: "fetch_entry: page not resident"}
	}

	e := &c.entries[idx]

	if res := c.backing.FetchPage(e.page, &e.data); res != mem.Success {
		return &mem.SegfaultError{Addr: addr}
	}

	return nil
}

// evictOne removes the least-frequently-used resident entry, writing it
// back first if dirty. Ties are broken by earliest insertion (smallest
// seq). This is deliberately O(capacity): the capacity is small and fixed,
// so no heap is maintained.
func (c *Cache) evictOne() error {
	victim := int32(nullIter)

	for i := c.usedHead; i != nullIter; i = c.entries[i].next {
		e := &c.entries[i]

		if victim == nullIter {
			victim = i
			continue
		}

		v := &c.entries[victim]

		if e.freq < v.freq || (e.freq == v.freq && e.seq < v.seq) {
			victim = i
		}
	}

	if victim == nullIter {
		return &IntegrityError{Reason: "evict: no used entry to evict"}
	}

	return c.evict(victim)
}

func (c *Cache) evict(idx int32) error {
	e := &c.entries[idx]

	if e.dirty {
		if res := c.backing.WritePage(e.page, &e.data); res != mem.Success {
			return &mem.SegfaultError{Addr: e.page * mem.PageSize}
		}
	}

	c.removeBucket(e.page, idx)
	c.removeUsed(idx)

	c.entries[idx] = entry{prev: nullIter, next: c.freeHead, bucketNext: nullIter}
	c.freeHead = idx
	c.used--

	return nil
}

// Clear evicts every resident entry, writing back any that are dirty.
func (c *Cache) Clear() error {
	for c.usedHead != nullIter {
		if err := c.evict(c.usedHead); err != nil {
			return err
		}
	}

	return nil
}

func (c *Cache) pushUsed(idx int32) {
	c.entries[idx].prev = c.usedTail
	c.entries[idx].next = nullIter

	if c.usedTail != nullIter {
		c.entries[c.usedTail].next = idx
	} else {
		c.usedHead = idx
	}

	c.usedTail = idx
}

func (c *Cache) removeUsed(idx int32) {
	e := &c.entries[idx]

	if e.prev != nullIter {
		c.entries[e.prev].next = e.next
	} else {
		c.usedHead = e.next
	}

	if e.next != nullIter {
		c.entries[e.next].prev = e.prev
	} else {
		c.usedTail = e.prev
	}
}

func (c *Cache) insertBucket(page uint32, idx int32) {
	h := bucketIndex(page, len(c.buckets))

	c.entries[idx].bucketNext = c.buckets[h]
	c.buckets[h] = idx
}

func (c *Cache) removeBucket(page uint32, idx int32) {
	h := bucketIndex(page, len(c.buckets))

	cur := c.buckets[h]

	if cur == idx {
		c.buckets[h] = c.entries[idx].bucketNext
		return
	}

	for cur != nullIter {
		next := c.entries[cur].bucketNext
		if next == idx {
			c.entries[cur].bucketNext = c.entries[idx].bucketNext
			return
		}

		cur = next
	}
}

// IntegrityError reports corruption detected by the cache's bookkeeping --
// a chain walked past its expected end, or a free/used accounting
// mismatch. All such failures are fatal to the VM run.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("cache integrity error: %s", e.Reason)
}
