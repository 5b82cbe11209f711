package instr

import "github.com/sarchlab/bamlet/bamlet"

// Resolving-form slots: the Base/Expanded slot's registers have been
// renamed. Every source is now a tagged Operand (possibly unresolved),
// every destination is a TaggedDest carrying the tag rename allocated to
// it (§3.5, §4.3).

type ControlSlotR struct {
	Op ControlOp

	BodyLength int
	IterImm    int
	IterSrc    Operand // LoopLocal/LoopGlobal iteration count source.
	Dst        TaggedDest
}

func (s ControlSlotR) IsNone() bool { return s.Op == CtrlNone }

type PredicateSlotR struct {
	Valid bool

	Op            CompareOp
	Dst           TaggedDest
	Src1          Operand
	Src2          Operand
	BasePredicate Operand
}

func (s PredicateSlotR) IsNone() bool { return !s.Valid }

type PacketSlotR struct {
	Op PacketOp

	Length  Operand
	DestX   int
	DestY   int
	Channel int
	Mode    bamlet.Mode

	LenDst        TaggedDest
	Forward       bool
	ForwardDir    bamlet.Side
	ForwardAppend bool
	ForwardToggle bool

	WordDst TaggedDest

	Predicate Operand
}

func (s PacketSlotR) IsNone() bool { return s.Op == PacketNone }

type ALULiteSlotR struct {
	Valid bool

	Op        ALUOp
	Dst       TaggedDest
	Src1      Operand
	Src2      Operand
	Predicate Operand
}

func (s ALULiteSlotR) IsNone() bool { return !s.Valid }

type LoadStoreSlotR struct {
	Valid bool

	Op   LSOp
	Addr Operand // AddrBase source; amlet adds AddrImm when it builds the Resolved form.
	AddrImm   int32
	Dst       TaggedDest
	Src       Operand
	Predicate Operand
}

func (s LoadStoreSlotR) IsNone() bool { return !s.Valid }

type ALUSlotR struct {
	Valid bool

	Op        ALUOp
	Dst       TaggedDest
	Src1      Operand
	Src2      Operand
	Predicate Operand
}

func (s ALUSlotR) IsNone() bool { return !s.Valid }

// ResolvingBundle is the Resolving form produced by rename: same six
// slots, sources tagged (possibly unresolved), destinations carrying
// freshly allocated tags (§3.5).
type ResolvingBundle struct {
	Control   ControlSlotR
	Predicate PredicateSlotR
	Packet    PacketSlotR
	ALULite   ALULiteSlotR
	LoadStore LoadStoreSlotR
	ALU       ALUSlotR
}
