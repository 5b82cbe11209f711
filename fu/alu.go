package fu

import "github.com/sarchlab/bamlet/instr"

// ALUUnit is the full-width (§6.1 width) arithmetic/logic unit. It
// carries a running MulAcc accumulator across issues, reset by
// MulAccInit (§4.5).
type ALUUnit struct {
	p   pipe
	acc int32
}

// NewALUUnit builds an ALU pipelined across the given latency (cycles).
func NewALUUnit(latency uint) *ALUUnit { return &ALUUnit{p: newPipe(latency)} }

// Issue accepts one Resolved ALU instruction this cycle.
func (u *ALUUnit) Issue(r instr.ALUResolved) {
	value, nextAcc := computeALU(r.Op, r.Src1, r.Src2, r.Predicate, u.acc)
	u.acc = nextAcc
	u.p.issue(r.Dst, value)
}

// Tick advances the pipeline, returning the result-bus entries for
// whatever completes this cycle.
func (u *ALUUnit) Tick() []instr.ResultEntry { return u.p.tick() }

// ALULiteUnit is the aWidth (§6.1) sibling of ALUUnit, with its own
// independent accumulator.
type ALULiteUnit struct {
	p   pipe
	acc int32
}

// NewALULiteUnit builds an ALULite pipelined across the given latency.
func NewALULiteUnit(latency uint) *ALULiteUnit { return &ALULiteUnit{p: newPipe(latency)} }

func (u *ALULiteUnit) Issue(r instr.ALULiteResolved) {
	value, nextAcc := computeALU(r.Op, r.Src1, r.Src2, r.Predicate, u.acc)
	u.acc = nextAcc
	u.p.issue(r.Dst, value)
}

func (u *ALULiteUnit) Tick() []instr.ResultEntry { return u.p.tick() }

// computeALU applies one opcode, honoring §4.5's predicate passthrough:
// a false predicate never computes at all, it passes Src1 through
// unchanged. This is the one place in the package where a "masked"
// result is still meaningful data rather than a forced zero-drain,
// since ALU/ALULite (unlike Send) are not in the masking-and-drain
// station kind.
func computeALU(op instr.ALUOp, src1, src2 int32, predicate bool, acc int32) (result, nextAcc int32) {
	if !predicate {
		return src1, acc
	}
	return evalALUOp(op, src1, src2, acc)
}

func evalALUOp(op instr.ALUOp, src1, src2, acc int32) (result, nextAcc int32) {
	switch op {
	case instr.OpAdd:
		return src1 + src2, acc
	case instr.OpSub:
		return src1 - src2, acc
	case instr.OpMul:
		return src1 * src2, acc
	case instr.OpAnd:
		return src1 & src2, acc
	case instr.OpOr:
		return src1 | src2, acc
	case instr.OpXor:
		return src1 ^ src2, acc
	case instr.OpNot:
		return ^src1, acc
	case instr.OpEq:
		return boolInt32(src1 == src2), acc
	case instr.OpNe:
		return boolInt32(src1 != src2), acc
	case instr.OpLt:
		return boolInt32(src1 < src2), acc
	case instr.OpLe:
		return boolInt32(src1 <= src2), acc
	case instr.OpGt:
		return boolInt32(src1 > src2), acc
	case instr.OpGe:
		return boolInt32(src1 >= src2), acc
	case instr.OpShiftL:
		return src1 << uint(src2&31), acc
	case instr.OpShiftR:
		return src1 >> uint(src2&31), acc
	case instr.OpMulAccInit:
		v := src1 * src2
		return v, v
	case instr.OpMulAcc:
		v := acc + src1*src2
		return v, v
	default:
		return 0, acc
	}
}
