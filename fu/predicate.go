package fu

import "github.com/sarchlab/bamlet/instr"

// PredicateUnit computes a comparison ANDed with a base predicate
// (§4.5). Unlike ALU/ALULite there is no passthrough case: an upstream
// mask already lives in BasePredicate, so ANDing it in is the entire
// masking story for this slot kind.
type PredicateUnit struct{ p pipe }

// NewPredicateUnit builds a Predicate unit pipelined across latency.
func NewPredicateUnit(latency uint) *PredicateUnit { return &PredicateUnit{p: newPipe(latency)} }

func (u *PredicateUnit) Issue(r instr.PredicateResolved) {
	value := boolInt32(evalCompare(r.Op, r.Src1, r.Src2) && r.BasePredicate)
	u.p.issue(r.Dst, value)
}

func (u *PredicateUnit) Tick() []instr.ResultEntry { return u.p.tick() }

func evalCompare(op instr.CompareOp, a, b int32) bool {
	switch op {
	case instr.CmpEq:
		return a == b
	case instr.CmpNe:
		return a != b
	case instr.CmpLt:
		return a < b
	case instr.CmpLe:
		return a <= b
	case instr.CmpGt:
		return a > b
	case instr.CmpGe:
		return a >= b
	default:
		return false
	}
}
