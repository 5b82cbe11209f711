package instr

import "github.com/sarchlab/bamlet/bamlet"

// SrcMode selects whether a Base/Expanded source field is a register
// reference or an immediate (§3.5).
type SrcMode uint8

const (
	SrcRegister SrcMode = iota
	SrcImmediate
)

func (m SrcMode) String() string {
	if m == SrcImmediate {
		return "Immediate"
	}
	return "Register"
}

// BSrc is a Base/Expanded-form source naming either a B-address register
// or an immediate value.
type BSrc struct {
	Mode SrcMode
	Reg  bamlet.BAddress
	Imm  int32
}

// ASrc is a Base/Expanded-form source over the A register file only
// (used by ALULite and Predicate, which operate on aWidth-wide values).
type ASrc struct {
	Mode SrcMode
	Reg  int
	Imm  int32
}

// TaggedSource is a Resolving-form operand: every register read becomes
// one of these, whether or not it has resolved yet (§3.2, §4.3).
type TaggedSource struct {
	Class    bamlet.RegClass
	Index    int
	Tag      bamlet.Tag
	Value    int32
	Resolved bool
}

// Operand is a Resolving-form source that may be a tagged register read
// or a plain immediate; immediates are always resolved.
type Operand struct {
	Immediate bool
	Source    TaggedSource
	Imm       int32
}

// Value returns the operand's value, which is only meaningful when
// Ready reports true.
func (o Operand) Value() int32 {
	if o.Immediate {
		return o.Imm
	}
	return o.Source.Value
}

// Ready reports whether this operand has a usable value yet.
func (o Operand) Ready() bool {
	return o.Immediate || o.Source.Resolved
}

// TaggedDest is a Resolving-form destination: the register written plus
// the tag rename allocated to that write (§3.2, §4.3).
type TaggedDest struct {
	Class bamlet.RegClass
	Index int
	Tag   bamlet.Tag
	// None marks a destination that does not exist for this slot
	// instance (e.g. a masked-out write); no result-bus entry or
	// register state update is produced for it.
	None bool
}

// BAddr returns the destination as a B-address; panics if Class is
// neither A nor D.
func (d TaggedDest) BAddr() bamlet.BAddress {
	return bamlet.NewBAddress(d.Class, d.Index)
}
