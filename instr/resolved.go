package instr

import "github.com/sarchlab/bamlet/bamlet"

// Resolved-form slots: every source a reservation station captured off
// the result bus is now a concrete int32, ready for a functional unit to
// consume (§3.5, §4.4). The destination keeps its tag so the functional
// unit's result-bus write can be matched (or forced) against it.

type ALUResolved struct {
	Op        ALUOp
	Dst       TaggedDest
	Src1      int32
	Src2      int32
	Predicate bool
}

type ALULiteResolved struct {
	Op        ALUOp
	Dst       TaggedDest
	Src1      int32
	Src2      int32
	Predicate bool
}

type PredicateResolved struct {
	Op            CompareOp
	Dst           TaggedDest
	Src1          int32
	Src2          int32
	BasePredicate bool
}

type LoadStoreResolved struct {
	Op        LSOp
	Addr      int32
	Dst       TaggedDest
	Src       int32
	Predicate bool
}

type PacketSendResolved struct {
	Length  int32
	DestX   int
	DestY   int
	Channel int
	Mode    bamlet.Mode
}

type PacketReceiveResolved struct {
	Op PacketOp // PacketReceive or PacketGetWord.

	LenDst        TaggedDest
	Forward       bool
	ForwardDir    bamlet.Side
	ForwardAppend bool
	ForwardToggle bool

	WordDst TaggedDest

	Predicate bool
}
