package instr

import "github.com/sarchlab/bamlet/bamlet"

// SlotKind identifies one of the six VLIW slot columns. Declaration
// order matches §3.5's logical execution/read precedence, which is also
// the order the dependency tracker's per-slot FIFOs and the wire
// encoding use.
type SlotKind int

const (
	SlotControl SlotKind = iota
	SlotPredicate
	SlotPacket
	SlotALULite
	SlotLoadStore
	SlotALU
)

var slotNames = [...]string{"Control", "Predicate", "Packet", "ALULite", "LoadStore", "ALU"}

func (k SlotKind) String() string {
	if int(k) < len(slotNames) {
		return slotNames[k]
	}
	return "SlotKind(?)"
}

// Slots lists every slot kind in bundle declaration order.
func Slots() []SlotKind {
	return []SlotKind{SlotControl, SlotPredicate, SlotPacket, SlotALULite, SlotLoadStore, SlotALU}
}

// RenameOrder lists the slot kinds in the fixed chaining order rename
// applies state updates in (§4.3): Control, Predicate, Packet,
// LoadStore, ALU, ALULite. This differs from the bundle's declaration
// order (ALULite precedes LoadStore there); the two orderings serve
// different contracts and are kept as two explicit lists rather than
// one, to avoid silently coupling them.
func RenameOrder() []SlotKind {
	return []SlotKind{SlotControl, SlotPredicate, SlotPacket, SlotLoadStore, SlotALU, SlotALULite}
}

// ControlSlot carries loop and halt control flow (§4.1). None is the
// slot's explicit empty variant.
type ControlSlot struct {
	Op ControlOp

	// Loop push fields (LoopImmediate/LoopLocal/LoopGlobal).
	BodyLength int
	IterImm    int // LoopImmediate iteration count.
	IterSrcA   int // LoopLocal: A register carrying the resolved count.
	IterSrcG   int // LoopGlobal: G register carrying the count.
	Dst        int // A register that receives the current iteration index.
}

func (s ControlSlot) IsNone() bool { return s.Op == CtrlNone }

// PredicateSlot computes a comparison ANDed with a base predicate and
// writes the result to a P-register (§4.5).
type PredicateSlot struct {
	// Valid is false for the slot's explicit empty/None variant, so the
	// zero-value PredicateSlot is None without any extra initialization.
	Valid bool

	Op            CompareOp
	Dst           int // P register index.
	Src1          int // A register index.
	Src2          ASrc
	BasePredicate int // P register ANDed into the result; P0 = always true.
}

func (s PredicateSlot) IsNone() bool { return !s.Valid }

// PacketSlot is the Send/Receive/GetWord instruction (§4.6).
type PacketSlot struct {
	Op PacketOp

	// Send fields.
	Length  int
	DestX   int
	DestY   int
	Channel int
	Mode    bamlet.Mode

	// Receive fields.
	LenDst        bamlet.BAddress
	Forward       bool
	ForwardDir    bamlet.Side
	ForwardAppend bool
	ForwardToggle bool

	// GetWord field.
	WordDst bamlet.BAddress

	Predicate int // P register gating this slot; P0 = always true.
}

func (s PacketSlot) IsNone() bool { return s.Op == PacketNone }

// ALULiteSlot is a 16-bit (aWidth) arithmetic operation over A registers
// (§4.5).
type ALULiteSlot struct {
	Valid bool

	Op        ALUOp
	Dst       int // A register index.
	Src1      int // A register index.
	Src2      ASrc
	Predicate int
}

func (s ALULiteSlot) IsNone() bool { return !s.Valid }

// LoadStoreSlot is an aligned single-word data-memory access (§4.5).
type LoadStoreSlot struct {
	Valid bool

	Op        LSOp
	AddrBase  int // A register holding the base address.
	AddrImm   int32
	Dst       bamlet.BAddress // Load destination.
	Src       bamlet.BAddress // Store value source.
	Predicate int
}

func (s LoadStoreSlot) IsNone() bool { return !s.Valid }

// ALUSlot is a 32-bit (width) arithmetic operation over B-addressed
// registers (§4.5).
type ALUSlot struct {
	Valid bool

	Op        ALUOp
	Dst       bamlet.BAddress
	Src1      bamlet.BAddress
	Src2      BSrc
	Predicate int
}

func (s ALUSlot) IsNone() bool { return !s.Valid }

// Bundle is the Base form: six slots exactly as stored in instruction
// memory, referencing logical register numbers (§3.5).
type Bundle struct {
	Control   ControlSlot
	Predicate PredicateSlot
	Packet    PacketSlot
	ALULite   ALULiteSlot
	LoadStore LoadStoreSlot
	ALU       ALUSlot
}

// ExpandedBundle is the Expanded form: the same shape as Bundle, after
// the controller has substituted loop index values into immediates,
// resolved the predicate base, and picked operand source modes (§3.5).
// It is a distinct named type so call sites cannot mix Base and Expanded
// values by accident, even though the field shape is identical.
type ExpandedBundle Bundle
