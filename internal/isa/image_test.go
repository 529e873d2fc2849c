package isa_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avl-tools/tinyvm/internal/isa"
)

func TestImageRoundTrip(t *testing.T) {
	words := []isa.Word{0x00010203, 0xffffffff, 0, 42}

	var buf bytes.Buffer
	require.NoError(t, isa.WriteImage(&buf, words))

	got, err := isa.ReadImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, words, got)
}

func TestImageIsLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, isa.WriteImage(&buf, []isa.Word{0x01020304}))

	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf.Bytes())
}

func TestReadImageRejectsTruncatedLength(t *testing.T) {
	_, err := isa.ReadImage(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)
}

func TestReadImageEmpty(t *testing.T) {
	words, err := isa.ReadImage(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, words)
}
