package isa

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteImage writes words as a flat sequence of 32-bit little-endian words,
// the on-disk image format shared by the assembler's output and the
// interpreter's loader.
func WriteImage(w io.Writer, words []Word) error {
	buf := make([]byte, 4*len(words))

	for i, word := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(word))
	}

	_, err := w.Write(buf)

	return err
}

// ReadImage reads a flat little-endian word stream produced by WriteImage.
func ReadImage(r io.Reader) ([]Word, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("isa: image length %d is not a multiple of word size", len(raw))
	}

	words := make([]Word, len(raw)/4)
	for i := range words {
		words[i] = Word(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	return words, nil
}
