// Package host implements the host I/O stub: the single point through
// which the interpreter's in/out instructions exchange words with whatever
// is operating the machine. Blocking is the only suspension point the VM
// ever has, and cancellation is out of scope for the minimal model, so the
// interface is deliberately small.
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/avl-tools/tinyvm/internal/isa"
)

// IO is satisfied by anything that can source and sink words for in/out.
// ReadWord blocks until a word is available; WriteWord blocks until the
// word has been accepted. Implementations MAY honor ctx cancellation and
// return ErrClosed or a context error, surfaced by the interpreter as a
// host-level fatal error.
type IO interface {
	ReadWord(ctx context.Context) (isa.Word, error)
	WriteWord(ctx context.Context, w isa.Word) error
}

// ErrClosed is returned by a host once it has been closed and can no
// longer service in/out.
var ErrClosed = errors.New("host: closed")

// Channel is an in-memory, channel-backed host, suitable for tests and for
// driving a machine programmatically without a real terminal attached.
type Channel struct {
	in     chan isa.Word
	out    chan isa.Word
	closed chan struct{}
}

// NewChannel creates a Channel host with the given input/output buffering.
func NewChannel(inBuf, outBuf int) *Channel {
	return &Channel{
		in:     make(chan isa.Word, inBuf),
		out:    make(chan isa.Word, outBuf),
		closed: make(chan struct{}),
	}
}

// Feed enqueues a word that a subsequent ReadWord (i.e. an `in`
// instruction) will observe. It blocks if the input buffer is full.
func (c *Channel) Feed(w isa.Word) {
	c.in <- w
}

// Drain receives one word previously emitted by a WriteWord call
// (i.e. an `out` instruction), blocking until one is available.
func (c *Channel) Drain() isa.Word {
	return <-c.out
}

// Close causes all pending and future ReadWord/WriteWord calls to return
// ErrClosed.
func (c *Channel) Close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

func (c *Channel) ReadWord(ctx context.Context) (isa.Word, error) {
	select {
	case w := <-c.in:
		return w, nil
	case <-c.closed:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c *Channel) WriteWord(ctx context.Context, w isa.Word) error {
	select {
	case c.out <- w:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TimeoutError reports that a host operation failed to complete before its
// deadline. It is the error form of the timeout an implementation MAY add
// around its blocking I/O.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("host: %s timed out", e.Op)
}
