package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/avl-tools/tinyvm/internal/cli"
	"github.com/avl-tools/tinyvm/internal/cpu"
	"github.com/avl-tools/tinyvm/internal/host"
	"github.com/avl-tools/tinyvm/internal/isa"
	"github.com/avl-tools/tinyvm/internal/log"
)

// Runner is the command that loads a binary image and executes it.
//
//	vmtool run file.img
func Runner() cli.Command {
	return new(runner)
}

type runner struct {
	debug   bool
	timeout time.Duration
}

func (runner) Description() string {
	return "run a binary image"
}

func (runner) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `run [-timeout duration] file.img

Load and execute a binary image, using the attached terminal for in/out.`)

	return err
}

func (r *runner) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.BoolVar(&r.debug, "debug", false, "enable debug logging")
	fs.DurationVar(&r.timeout, "timeout", 0, "abort the run after `duration` (0 disables)")

	return fs
}

func (r *runner) Run(ctx context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	if r.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) != 1 {
		logger.Error("run: expected exactly one image file")
		return 1
	}

	f, err := os.Open(args[0])
	if err != nil {
		logger.Error("run: open failed", "file", args[0], "err", err)
		return 1
	}
	defer f.Close()

	image, err := isa.ReadImage(f)
	if err != nil {
		logger.Error("run: " + err.Error())
		return 1
	}

	term, err := host.NewTerminal()
	if err != nil {
		logger.Error("run: terminal unavailable", "err", err)
		return 1
	}
	defer term.Restore()

	machine := cpu.New(term)
	if err := machine.Load(image); err != nil {
		logger.Error("run: " + err.Error())
		return 1
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logger.Debug("run: loaded image", "file", args[0], "words", len(image))

	if err := machine.Run(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("run: timed out")
			return 2
		}

		logger.Error("run: " + err.Error())

		return 1
	}

	return 0
}
