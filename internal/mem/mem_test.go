package mem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avl-tools/tinyvm/internal/isa"
	"github.com/avl-tools/tinyvm/internal/mem"
)

func TestWordReadWrite(t *testing.T) {
	c := mem.New(4)

	res := c.WriteWord(5, isa.Word(42))
	require.Equal(t, mem.Success, res)

	w, res := c.ReadWord(5)
	require.Equal(t, mem.Success, res)
	assert.Equal(t, isa.Word(42), w)
}

func TestOutOfRangeIsSegfaultNotPanic(t *testing.T) {
	c := mem.New(1)

	assert.NotPanics(t, func() {
		_, res := c.ReadWord(mem.PageSize * 10)
		assert.Equal(t, mem.Segfault, res)

		res = c.WriteWord(mem.PageSize*10, 0)
		assert.Equal(t, mem.Segfault, res)
	})
}

func TestPageFetchWriteBack(t *testing.T) {
	c := mem.New(2)

	var page mem.Page
	page[0] = isa.Word(0xdead)
	page[1] = isa.Word(0xbeef)

	res := c.WritePage(1, &page)
	require.Equal(t, mem.Success, res)

	var out mem.Page

	res = c.FetchPage(1, &out)
	require.Equal(t, mem.Success, res)
	assert.Equal(t, page, out)
}

func TestPageOutOfRangeSegfaults(t *testing.T) {
	c := mem.New(1)

	var page mem.Page
	assert.Equal(t, mem.Segfault, c.WritePage(5, &page))
	assert.Equal(t, mem.Segfault, c.FetchPage(5, &page))
}
