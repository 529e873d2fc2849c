package cpu_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avl-tools/tinyvm/internal/asm"
	"github.com/avl-tools/tinyvm/internal/cpu"
	"github.com/avl-tools/tinyvm/internal/host"
	"github.com/avl-tools/tinyvm/internal/isa"
)

func assembleAndRun(t *testing.T, src string) (*cpu.Machine, *host.Channel, error) {
	t.Helper()

	image, err := asm.Assemble(strings.NewReader(src))
	require.NoError(t, err)

	ch := host.NewChannel(8, 8)
	m := cpu.New(ch)
	require.NoError(t, m.Load(image))

	err = m.Run(context.Background())

	return m, ch, err
}

func TestArithmeticRoundTrip(t *testing.T) {
	src := `
push 3
push 4
pop bx
pop ax
add ax, bx
push ax
out
hlt
`
	_, ch, err := assembleAndRun(t, src)
	require.NoError(t, err)
	assert.Equal(t, int32(7), ch.Drain().Int())
}

func TestDivisionByZeroHalts(t *testing.T) {
	src := `
push 1
push 0
pop bx
pop ax
div ax, bx
hlt
`
	m, _, err := assembleAndRun(t, src)

	var rerr *cpu.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 4, rerr.InstrIdx)
	assert.True(t, m.Halted())
}

func TestModuloByZeroHalts(t *testing.T) {
	src := `
push 1
push 0
pop bx
pop ax
mod ax, bx
hlt
`
	_, _, err := assembleAndRun(t, src)

	var rerr *cpu.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 4, rerr.InstrIdx)
}

func TestRecursiveFibonacci(t *testing.T) {
	src := `
mov ax, 6
call fib
push ax
out
hlt

fib:
cmp ax, 2
jl fib_base
push ax
sub ax, 1
call fib
mov bx, ax
pop ax
push bx
sub ax, 2
call fib
pop bx
add ax, bx
ret

fib_base:
ret
`
	_, ch, err := assembleAndRun(t, src)
	require.NoError(t, err)
	assert.Equal(t, int32(8), ch.Drain().Int())
}

func TestStackUnderflowOnFirstInstruction(t *testing.T) {
	_, _, err := assembleAndRun(t, "pop ax\nhlt\n")

	var rerr *cpu.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 0, rerr.InstrIdx)
	assert.Contains(t, rerr.Error(), "underflow")
}

func TestCallStackUnderflowOnBareRet(t *testing.T) {
	_, _, err := assembleAndRun(t, "ret\nhlt\n")

	var rerr *cpu.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Error(), "underflow")
}

func TestCallReturnBalance(t *testing.T) {
	src := `
call answer
push ax
out
hlt

answer:
mov ax, 42
ret
`
	_, ch, err := assembleAndRun(t, src)
	require.NoError(t, err)
	assert.Equal(t, int32(42), ch.Drain().Int())
}

func TestLoopIsRelativeJumpForward(t *testing.T) {
	src := `
loop skip
hlt
skip:
push 1
out
hlt
`
	_, ch, err := assembleAndRun(t, src)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ch.Drain().Int())
}

func TestLoopIsRelativeJumpBackward(t *testing.T) {
	src := `
mov cx, 0
top:
inc cx
cmp cx, 3
jge done
loop top
done:
push cx
out
hlt
`
	_, ch, err := assembleAndRun(t, src)
	require.NoError(t, err)
	assert.Equal(t, int32(3), ch.Drain().Int())
}

func TestConditionalJumpTruthTable(t *testing.T) {
	cases := []struct {
		a, b int32
		zf   bool
		cf   bool
	}{
		{5, 3, false, false}, // a > b
		{3, 3, true, false},  // a == b
		{2, 5, false, true},  // a < b
	}

	mnemonics := []struct {
		name  string
		taken func(zf, cf bool) bool
	}{
		{"jz", func(zf, cf bool) bool { return zf }},
		{"jnz", func(zf, cf bool) bool { return !zf }},
		{"je", func(zf, cf bool) bool { return zf }},
		{"jne", func(zf, cf bool) bool { return !zf }},
		{"jg", func(zf, cf bool) bool { return !cf && !zf }},
		{"jge", func(zf, cf bool) bool { return !cf || zf }},
		{"jl", func(zf, cf bool) bool { return cf && !zf }},
		{"jle", func(zf, cf bool) bool { return cf || zf }},
	}

	for _, c := range cases {
		for _, mn := range mnemonics {
			t.Run(fmt.Sprintf("%s/%d_%d", mn.name, c.a, c.b), func(t *testing.T) {
				src := fmt.Sprintf(`
mov ax, %d
mov bx, %d
cmp ax, bx
%s taken
mov cx, 0
jmp done
taken:
mov cx, 1
done:
push cx
out
hlt
`, c.a, c.b, mn.name)

				_, ch, err := assembleAndRun(t, src)
				require.NoError(t, err)

				want := int32(0)
				if mn.taken(c.zf, c.cf) {
					want = 1
				}

				assert.Equal(t, want, ch.Drain().Int())
			})
		}
	}
}

func TestCacheEvictionRoundTripThroughMachine(t *testing.T) {
	var b strings.Builder

	const pages = 8
	const capacity = 2

	for i := 0; i < pages; i++ {
		fmt.Fprintf(&b, "mov ax, %d\n", i+1)
		fmt.Fprintf(&b, "mov [%d], ax\n", i*16)
	}

	for i := 0; i < pages; i++ {
		fmt.Fprintf(&b, "mov ax, [%d]\n", i*16)
		fmt.Fprintf(&b, "push ax\n")
		fmt.Fprintf(&b, "out\n")
	}

	b.WriteString("hlt\n")

	image, err := asm.Assemble(strings.NewReader(b.String()))
	require.NoError(t, err)

	ch := host.NewChannel(pages, pages)
	m := cpu.NewWithCache(ch, capacity)
	require.NoError(t, m.Load(image))

	require.NoError(t, m.Run(context.Background()))

	for i := 0; i < pages; i++ {
		assert.Equal(t, int32(i+1), ch.Drain().Int())
	}
}

func TestOutOfRangeJumpIsRuntimeError(t *testing.T) {
	src := "jmp 1000\nhlt\n"

	_, _, err := assembleAndRun(t, src)

	var rerr *cpu.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Error(), "out of range")
}

func TestHostInputRoundTrip(t *testing.T) {
	image, err := asm.Assemble(strings.NewReader("in\nout\nhlt\n"))
	require.NoError(t, err)

	ch := host.NewChannel(1, 1)
	ch.Feed(isa.FromInt(99))

	m := cpu.New(ch)
	require.NoError(t, m.Load(image))
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, int32(99), ch.Drain().Int())
}
