package asm

// labelUse records one LBL operand occurrence still awaiting its
// pc-relative displacement: the word position in the output image holding
// the placeholder, and the instruction index at which the use occurred.
type labelUse struct {
	name        string
	wordPos     int
	useInstrIdx int
}

// labelTable tracks label declarations (name to instruction index) and
// every use still to be patched, mirroring the declared-labels and
// used-label-occurrences bookkeeping described for the back-patch pass.
type labelTable struct {
	declared map[string]int
	uses     []labelUse
}

func newLabelTable() *labelTable {
	return &labelTable{declared: make(map[string]int)}
}

// declare records a label at the given instruction index. Redeclaring a
// label is fatal.
func (t *labelTable) declare(name string, instrIdx int) error {
	if _, ok := t.declared[name]; ok {
		return &LabelError{Label: name, Msg: "redeclared"}
	}

	t.declared[name] = instrIdx

	return nil
}

// use records a pending LBL occurrence at wordPos, used from useInstrIdx.
func (t *labelTable) use(name string, wordPos, useInstrIdx int) {
	t.uses = append(t.uses, labelUse{name: name, wordPos: wordPos, useInstrIdx: useInstrIdx})
}

// resolve returns the patch set: wordPos -> signed displacement. Any use
// whose label was never declared is fatal.
func (t *labelTable) resolve() (map[int]int32, error) {
	patches := make(map[int]int32, len(t.uses))

	for _, u := range t.uses {
		target, ok := t.declared[u.name]
		if !ok {
			return nil, &LabelError{Label: u.name, Msg: "undeclared"}
		}

		patches[u.wordPos] = int32(target - u.useInstrIdx)
	}

	return patches, nil
}
