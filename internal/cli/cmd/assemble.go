package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/avl-tools/tinyvm/internal/asm"
	"github.com/avl-tools/tinyvm/internal/cli"
	"github.com/avl-tools/tinyvm/internal/isa"
	"github.com/avl-tools/tinyvm/internal/log"
)

// Assembler is the command that translates source text into a binary image.
//
//	vmtool asm -o a.img file.asm
func Assembler() cli.Command {
	return new(assembler)
}

type assembler struct {
	debug  bool
	output string
}

func (assembler) Description() string {
	return "assemble source code into a binary image"
}

func (assembler) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `asm [-o file.img] file.asm...

Assemble one or more source files into a single binary image.`)

	return err
}

func (a *assembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	fs.BoolVar(&a.debug, "debug", false, "enable debug logging")
	fs.StringVar(&a.output, "o", "a.img", "output `filename`")

	return fs
}

// Run assembles each source file given, in order, into one label/instruction
// space, and writes the resulting image to the configured output file.
func (a *assembler) Run(_ context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	if a.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) == 0 {
		logger.Error("assemble: no source files given")
		return 1
	}

	as := asm.New()

	for _, fn := range args {
		f, err := os.Open(fn)
		if err != nil {
			logger.Error("assemble: open failed", "file", fn, "err", err)
			return 1
		}

		as.Feed(f)
		f.Close()
	}

	image, err := as.Finish()
	if err != nil {
		logger.Error("assemble: " + err.Error())
		return 1
	}

	out, err := os.Create(a.output)
	if err != nil {
		logger.Error("assemble: create failed", "file", a.output, "err", err)
		return 1
	}
	defer out.Close()

	w := bufio.NewWriter(out)

	if err := isa.WriteImage(w, image); err != nil {
		logger.Error("assemble: write failed", "file", a.output, "err", err)
		return 1
	}

	if err := w.Flush(); err != nil {
		logger.Error("assemble: flush failed", "file", a.output, "err", err)
		return 1
	}

	logger.Debug("assemble: wrote image", "file", a.output, "words", len(image))

	return 0
}
