// Package mem implements the memory controller: the backing store of main
// memory, addressed by page, that services the page cache's fetch/write-back
// traffic and provides word-granular access for assembler-time or debug
// reads. It replaces the source's process-wide MemoryController singleton
// with an explicitly constructed value passed by handle to its callers.
package mem

import (
	"fmt"

	"github.com/avl-tools/tinyvm/internal/isa"
)

// PageSize is the number of words in one page of backing memory.
const PageSize = 16

// Result reports the outcome of a page-granular operation. Out-of-range
// page numbers return Segfault; they never panic.
type Result int

const (
	Success Result = iota
	Segfault
)

func (r Result) String() string {
	if r == Success {
		return "success"
	}

	return "segfault"
}

// Page is PageSize contiguous words of backing memory.
type Page [PageSize]isa.Word

// Controller is the backing store for all of process RAM, organized as
// fixed-size pages. It is constructed once at VM startup and handed by
// pointer to the page cache that fronts it -- there is no singleton.
type Controller struct {
	pages  []Page
	npages uint32
}

// New creates a memory controller with capacity for npages pages
// (npages*PageSize words total).
func New(npages uint32) *Controller {
	return &Controller{
		pages:  make([]Page, npages),
		npages: npages,
	}
}

// NumPages returns the number of pages backed by this controller.
func (c *Controller) NumPages() uint32 {
	return c.npages
}

func (c *Controller) inRange(page uint32) bool {
	return page < c.npages
}

// FetchPage copies a page's bytes into dst. It returns Segfault, never
// panics, if page is out of range.
func (c *Controller) FetchPage(page uint32, dst *Page) Result {
	if !c.inRange(page) {
		return Segfault
	}

	*dst = c.pages[page]

	return Success
}

// WritePage writes src back to the backing page. It returns Segfault if
// page is out of range, and Success otherwise.
func (c *Controller) WritePage(page uint32, src *Page) Result {
	if !c.inRange(page) {
		return Segfault
	}

	c.pages[page] = *src

	return Success
}

// ReadWord reads a single word by absolute word address, for assembler-time
// or debug use that bypasses the page cache.
func (c *Controller) ReadWord(addr uint32) (isa.Word, Result) {
	page, offset := addr/PageSize, addr%PageSize
	if !c.inRange(page) {
		return 0, Segfault
	}

	return c.pages[page][offset], Success
}

// WriteWord writes a single word by absolute word address, bypassing the
// page cache.
func (c *Controller) WriteWord(addr uint32, w isa.Word) Result {
	page, offset := addr/PageSize, addr%PageSize
	if !c.inRange(page) {
		return Segfault
	}

	c.pages[page][offset] = w

	return Success
}

// SegfaultError is returned by callers that need an error value (rather
// than a Result) for a segfault, e.g. to satisfy Go's error-returning
// conventions at package boundaries.
type SegfaultError struct {
	Addr uint32
}

func (e *SegfaultError) Error() string {
	return fmt.Sprintf("segfault: address %#x out of range", e.Addr)
}
