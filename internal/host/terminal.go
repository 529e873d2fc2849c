package host

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/avl-tools/tinyvm/internal/isa"
)

// Terminal is a raw-mode terminal host, for interactive sessions. It reads
// one line per ReadWord, parsed as a signed decimal integer, and writes one
// line per WriteWord. It is adapted from byte-oriented TTY I/O to
// whole-word in/out: where a console emulates a keyboard and display one
// byte at a time, Terminal exchanges one Word at a time, prompting and
// echoing through the same raw terminal machinery.
type Terminal struct {
	fd    int
	state *term.State
	out   *term.Terminal
	in    *bufio.Reader
}

// ErrNoTTY is returned if standard input is not a terminal.
var ErrNoTTY = fmt.Errorf("host: stdin is not a tty")

// NewTerminal puts stdin into raw mode and wraps the stdin terminal for
// line-oriented word I/O: both the prompt and the written words go to the
// stdin file descriptor, not to stdout. Callers must call Restore when done.
func NewTerminal() (*Terminal, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	return &Terminal{
		fd:    fd,
		state: saved,
		out:   term.NewTerminal(os.Stdin, "in> "),
		in:    bufio.NewReader(os.Stdin),
	}, nil
}

// Restore returns the terminal to its initial state.
func (t *Terminal) Restore() error {
	return term.Restore(t.fd, t.state)
}

func (t *Terminal) ReadWord(ctx context.Context) (isa.Word, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	line, err := t.out.ReadLine()
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("host: malformed word %q: %w", line, err)
	}

	return isa.FromInt(int32(n)), nil
}

func (t *Terminal) WriteWord(ctx context.Context, w isa.Word) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(t.out, "%d\r\n", w.Int())

	return err
}
