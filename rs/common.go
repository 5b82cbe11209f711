package rs

import "github.com/sarchlab/bamlet/instr"

// snoopOperand resolves op against the result bus if it is still
// waiting on a tagged source (§4.4 step 1).
func snoopOperand(op *instr.Operand, bus []instr.ResultEntry) {
	if op.Immediate || op.Source.Resolved {
		return
	}
	for _, e := range bus {
		if e.Class == op.Source.Class && e.Index == op.Source.Index && e.Tag == op.Source.Tag {
			op.Source.Resolved = true
			op.Source.Value = e.Value
			return
		}
	}
}

// predicateFalse reports whether a resolved predicate operand reads
// false, i.e. the slot it gates is masked (§4.4 step 3). The second
// return value is false while the predicate is still unresolved, in
// which case masking cannot be decided yet.
func predicateFalse(p instr.Operand) (falsy, known bool) {
	if !p.Ready() {
		return false, false
	}
	return p.Value() == 0, true
}

// drainFor builds the forced null-write result-bus entry a masked
// slot's destination produces, so a dependent waiting on that tag still
// observes resolution (§4.4 step 3).
func drainFor(d instr.TaggedDest) (instr.ResultEntry, bool) {
	if d.None {
		return instr.ResultEntry{}, false
	}
	return instr.ResultEntry{Class: d.Class, Index: d.Index, Tag: d.Tag, Value: 0, Force: true}, true
}
