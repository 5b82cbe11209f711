package bamlet

import "fmt"

// Mode is the packet header's routing mode (§3.4, §6.3).
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeCommand
	ModeAppend
	ModeReserved
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeCommand:
		return "Command"
	case ModeAppend:
		return "Append"
	default:
		return "Reserved"
	}
}

// Header is the first link word of a packet (§3.4, §6.3). Field widths
// are parameterized by config.ParamSet; Header itself stores them as
// plain Go ints/bools and leaves bit packing to Encode/Decode.
type Header struct {
	Length       uint32
	XDest        uint32
	YDest        uint32
	Mode         Mode
	Forward      bool
	IsBroadcast  bool
	AppendLength uint8

	// BroadcastRect, when IsBroadcast is set, is the rectangle (x0,y0)-
	// (x1,y1) inclusive that the packet is replicated to (§4.6).
	BroadcastRect [4]uint32
}

// LinkWord is a single wire-level word: 32(or W)-bit data plus the
// isHeader side-bit (§3.4, §6.3).
type LinkWord struct {
	Data     uint32
	IsHeader bool
}

// Packet is a header followed by zero or more opaque payload words.
type Packet struct {
	Header  Header
	Payload []uint32
}

// Words renders the packet as the wire-level word sequence a switch
// port transmits: the header word (IsHeader=true) is synthesized by the
// caller via EncodeHeader, followed by one LinkWord per payload entry.
func (p Packet) Words(encodeHeader func(Header) uint32) []LinkWord {
	words := make([]LinkWord, 0, len(p.Payload)+1)
	words = append(words, LinkWord{Data: encodeHeader(p.Header), IsHeader: true})
	for _, w := range p.Payload {
		words = append(words, LinkWord{Data: w, IsHeader: false})
	}
	return words
}

// CommandOp is the 2-bit opcode carried in a command packet's first
// payload word (§3.4, §6.4).
type CommandOp uint8

const (
	CmdStart CommandOp = iota
	CmdInstructionMemoryWrite
	CmdRegisterWrite
)

func (c CommandOp) String() string {
	switch c {
	case CmdStart:
		return "Start"
	case CmdInstructionMemoryWrite:
		return "InstructionMemoryWrite"
	case CmdRegisterWrite:
		return "RegisterWrite"
	default:
		return fmt.Sprintf("CommandOp(%d)", int(c))
	}
}

// CommandWidths bundles the bit widths used to pack/unpack a command
// packet's first payload word (§6.4). InstrAddrWidth sizes the operand
// for Start and the base address for InstructionMemoryWrite; RegIndexWidth
// sizes the index field of RegisterWrite, per the Open Question in §9:
// the 2-bit class field is padded with max(log2 of the four file sizes)
// index bits.
type CommandWidths struct {
	InstrAddrWidth uint
	RegIndexWidth  uint
}

// EncodeFirstWord packs a command opcode and operand into the top-2-bit
// layout described in §6.4: bits [31:30] = opcode, remainder = operand.
func EncodeFirstWord(op CommandOp, operand uint32) uint32 {
	return (uint32(op) << 30) | (operand & 0x3FFFFFFF)
}

// DecodeFirstWord splits a command packet's first payload word back into
// opcode and operand.
func DecodeFirstWord(word uint32) (CommandOp, uint32) {
	return CommandOp(word >> 30), word & 0x3FFFFFFF
}

// InstructionMemoryWriteOperand packs {count(8):baseAddr(instrAddrWidth)}
// as described in §6.4.
func InstructionMemoryWriteOperand(baseAddr uint32, count uint8, instrAddrWidth uint) uint32 {
	return (uint32(count) << instrAddrWidth) | (baseAddr & ((1 << instrAddrWidth) - 1))
}

// DecodeInstructionMemoryWriteOperand is the inverse of
// InstructionMemoryWriteOperand.
func DecodeInstructionMemoryWriteOperand(operand uint32, instrAddrWidth uint) (baseAddr uint32, count uint8) {
	baseAddr = operand & ((1 << instrAddrWidth) - 1)
	count = uint8(operand >> instrAddrWidth)
	return
}

// RegisterWriteOperand packs [class(2):index] as described in §6.4.
func RegisterWriteOperand(class RegClass, index int, widths CommandWidths) uint32 {
	return (uint32(class) << widths.RegIndexWidth) | (uint32(index) & ((1 << widths.RegIndexWidth) - 1))
}

// DecodeRegisterWriteOperand is the inverse of RegisterWriteOperand.
func DecodeRegisterWriteOperand(operand uint32, widths CommandWidths) (class RegClass, index int) {
	index = int(operand & ((1 << widths.RegIndexWidth) - 1))
	class = RegClass(operand >> widths.RegIndexWidth)
	return
}
