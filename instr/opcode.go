// Package instr defines the VLIW bundle and its six slots in the three
// successive forms described in §3.5: Base (as stored in instruction
// memory), Expanded (after controller preprocessing), Resolving (after
// rename, tagged sources/destinations) and Resolved (after reservation-
// station capture, concrete values).
package instr

import "fmt"

// ALUOp is one of the arithmetic/logic operations shared by the ALU and
// ALULite slots (§4.5).
type ALUOp uint8

const (
	OpAdd ALUOp = iota
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor
	OpNot
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpShiftL
	OpShiftR
	OpMulAcc
	OpMulAccInit
)

func (o ALUOp) String() string {
	names := [...]string{
		"Add", "Sub", "Mul", "And", "Or", "Xor", "Not",
		"Eq", "Ne", "Lt", "Le", "Gt", "Ge", "ShiftL", "ShiftR",
		"MulAcc", "MulAccInit",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("ALUOp(%d)", int(o))
}

// CompareOp is the comparison performed by the Predicate slot (§4.5).
type CompareOp uint8

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

func (o CompareOp) String() string {
	names := [...]string{"Eq", "Ne", "Lt", "Le", "Gt", "Ge"}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("CompareOp(%d)", int(o))
}

// LSOp distinguishes the two LoadStore slot operations.
type LSOp uint8

const (
	LSLoad LSOp = iota
	LSStore
)

func (o LSOp) String() string {
	if o == LSLoad {
		return "Load"
	}
	return "Store"
}

// PacketOp distinguishes the three things the Packet slot can carry
// (§4.6): a header-emitting Send, a header/GetWord-consuming Receive, or
// a plain GetWord that pairs with an already-consumed header.
type PacketOp uint8

const (
	PacketNone PacketOp = iota
	PacketSend
	PacketReceive
	PacketGetWord
)

func (o PacketOp) String() string {
	switch o {
	case PacketNone:
		return "None"
	case PacketSend:
		return "Send"
	case PacketReceive:
		return "Receive"
	case PacketGetWord:
		return "GetWord"
	default:
		return fmt.Sprintf("PacketOp(%d)", int(o))
	}
}

// ControlOp is the Control slot's operation (§4.1).
type ControlOp uint8

const (
	CtrlNone ControlOp = iota
	CtrlLoopImmediate
	CtrlLoopLocal
	CtrlLoopGlobal
	CtrlIncr
	CtrlHalt
)

func (o ControlOp) String() string {
	names := [...]string{"None", "LoopImmediate", "LoopLocal", "LoopGlobal", "Incr", "Halt"}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("ControlOp(%d)", int(o))
}
