package cmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avl-tools/tinyvm/internal/cli/cmd"
	"github.com/avl-tools/tinyvm/internal/isa"
	"github.com/avl-tools/tinyvm/internal/log"
)

func TestAssemblerCommandWritesImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.asm")
	out := filepath.Join(dir, "prog.img")

	require.NoError(t, os.WriteFile(src, []byte("push 1\npush 2\nout\nhlt\n"), 0o644))

	a := cmd.Assembler()
	fs := a.FlagSet()
	require.NoError(t, fs.Parse([]string{"-o", out, src}))

	logger := log.NewFormattedLogger(&bytes.Buffer{})
	code := a.Run(context.Background(), fs.Args(), &bytes.Buffer{}, logger)
	require.Equal(t, 0, code)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	image, err := isa.ReadImage(f)
	require.NoError(t, err)
	require.NotEmpty(t, image)

	last := isa.DecodeHeader(image[len(image)-1])
	assert.Equal(t, isa.ERR, last.Opcode)
}

func TestAssemblerCommandReportsSyntaxError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.asm")
	require.NoError(t, os.WriteFile(src, []byte("frobnicate ax\n"), 0o644))

	a := cmd.Assembler()
	fs := a.FlagSet()
	require.NoError(t, fs.Parse([]string{"-o", filepath.Join(dir, "bad.img"), src}))

	logger := log.NewFormattedLogger(&bytes.Buffer{})
	code := a.Run(context.Background(), fs.Args(), &bytes.Buffer{}, logger)
	assert.Equal(t, 1, code)
}

func TestAssemblerCommandRequiresSourceFiles(t *testing.T) {
	a := cmd.Assembler()
	fs := a.FlagSet()
	require.NoError(t, fs.Parse(nil))

	logger := log.NewFormattedLogger(&bytes.Buffer{})
	code := a.Run(context.Background(), fs.Args(), &bytes.Buffer{}, logger)
	assert.Equal(t, 1, code)
}
