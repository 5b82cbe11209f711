package rs

import "github.com/sarchlab/bamlet/instr"

// GenericStation buffers Resolving-form instructions for a functional
// unit whose eligibility rule is "any slot whose sources are all
// resolved is eligible; among eligible slots the oldest issues" (§4.4
// bullet 1): the ALU, ALULite, and Predicate-ALU stations. None of
// these three mask on a false predicate — their Resolved forms carry
// the predicate value through (instr.ALUResolved.Predicate etc.) for
// the functional unit to apply §4.5's "false predicate passes src1
// through" semantics itself, rather than the station dropping the
// instruction.
type GenericStation[T any] struct {
	buf      *buffer[T]
	snoop    func(*T, []instr.ResultEntry)
	resolved func(T) bool
}

func newGenericStation[T any](depth int, snoop func(*T, []instr.ResultEntry), resolved func(T) bool) *GenericStation[T] {
	return &GenericStation[T]{buf: newBuffer[T](depth), snoop: snoop, resolved: resolved}
}

// Ready reports whether the station has a free slot (the input.ready
// wire rename stalls on, §4.4).
func (s *GenericStation[T]) Ready() bool { return !s.buf.Full() }

// TryPush occupies a free slot; callers must check Ready first.
func (s *GenericStation[T]) TryPush(v T) bool {
	if s.buf.Full() {
		return false
	}
	s.buf.Push(v)
	return true
}

// Step snoops the result bus into every occupied slot, then issues the
// oldest fully-resolved slot, if any.
func (s *GenericStation[T]) Step(bus []instr.ResultEntry) (T, bool) {
	for i := range s.buf.entries {
		s.snoop(&s.buf.entries[i].value, bus)
	}

	best := -1
	for i, e := range s.buf.entries {
		if !s.resolved(e.value) {
			continue
		}
		if best == -1 || e.age < s.buf.entries[best].age {
			best = i
		}
	}
	if best == -1 {
		var zero T
		return zero, false
	}
	out := s.buf.entries[best].value
	s.buf.remove(best)
	return out, true
}

// NewALUStation builds the full-width ALU's reservation station.
func NewALUStation(depth int) *GenericStation[instr.ALUSlotR] {
	return newGenericStation(depth,
		func(v *instr.ALUSlotR, bus []instr.ResultEntry) {
			snoopOperand(&v.Src1, bus)
			snoopOperand(&v.Src2, bus)
			snoopOperand(&v.Predicate, bus)
		},
		func(v instr.ALUSlotR) bool {
			return v.Src1.Ready() && v.Src2.Ready() && v.Predicate.Ready()
		},
	)
}

// NewALULiteStation builds the 16-bit ALULite's reservation station.
func NewALULiteStation(depth int) *GenericStation[instr.ALULiteSlotR] {
	return newGenericStation(depth,
		func(v *instr.ALULiteSlotR, bus []instr.ResultEntry) {
			snoopOperand(&v.Src1, bus)
			snoopOperand(&v.Src2, bus)
			snoopOperand(&v.Predicate, bus)
		},
		func(v instr.ALULiteSlotR) bool {
			return v.Src1.Ready() && v.Src2.Ready() && v.Predicate.Ready()
		},
	)
}

// NewPredicateStation builds the Predicate-ALU's reservation station.
func NewPredicateStation(depth int) *GenericStation[instr.PredicateSlotR] {
	return newGenericStation(depth,
		func(v *instr.PredicateSlotR, bus []instr.ResultEntry) {
			snoopOperand(&v.Src1, bus)
			snoopOperand(&v.Src2, bus)
			snoopOperand(&v.BasePredicate, bus)
		},
		func(v instr.PredicateSlotR) bool {
			return v.Src1.Ready() && v.Src2.Ready() && v.BasePredicate.Ready()
		},
	)
}
