package fu

import (
	"encoding/binary"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/program"
)

// bundleWordLen is how many 32-bit payload words one encoded bundle
// occupies inside an InstructionMemoryWrite command packet. instr.Encode
// always emits a fixed-size byte string — every slot field is written
// unconditionally rather than only the populated ones — so this is a
// constant derived once rather than carried on the wire (§6.4).
var bundleWordLen = (len(instr.Encode(instr.Bundle{})) + 3) / 4

// CommandTarget is the subset of mesh-wide state a command packet can
// mutate beyond instruction memory (§6.4): restarting the control
// unit's PC, or writing a register directly.
type CommandTarget interface {
	SetPC(addr uint32)
	WriteRegister(class bamlet.RegClass, index int, value int32)
}

// CommandUnit decodes and applies a fully received command packet's
// payload. Command packets bypass predicate gating entirely — they
// reconfigure the mesh rather than compute a value — so the PE's inbox
// handling (amlet) hands a complete payload here unconditionally once a
// ModeCommand packet's header and length words are all in (§6.4).
type CommandUnit struct {
	mem    *program.Memory
	widths bamlet.CommandWidths
	target CommandTarget
}

// NewCommandUnit builds a command unit over mem and target.
func NewCommandUnit(mem *program.Memory, widths bamlet.CommandWidths, target CommandTarget) *CommandUnit {
	return &CommandUnit{mem: mem, widths: widths, target: target}
}

// Apply decodes payload's first word as a command opcode and applies it.
func (u *CommandUnit) Apply(payload []uint32) error {
	if len(payload) == 0 {
		return nil
	}
	op, operand := bamlet.DecodeFirstWord(payload[0])
	switch op {
	case bamlet.CmdStart:
		u.target.SetPC(operand)
		return nil
	case bamlet.CmdInstructionMemoryWrite:
		return u.applyInstructionMemoryWrite(operand, payload[1:])
	case bamlet.CmdRegisterWrite:
		class, index := bamlet.DecodeRegisterWriteOperand(operand, u.widths)
		if len(payload) > 1 {
			u.target.WriteRegister(class, index, int32(payload[1]))
		}
		return nil
	default:
		return nil
	}
}

func (u *CommandUnit) applyInstructionMemoryWrite(operand uint32, body []uint32) error {
	baseAddr, count := bamlet.DecodeInstructionMemoryWriteOperand(operand, u.widths.InstrAddrWidth)

	bundles := make([]instr.Bundle, 0, count)
	for i := 0; i < int(count); i++ {
		start := i * bundleWordLen
		if start+bundleWordLen > len(body) {
			break
		}
		b, err := instr.Decode(wordsToBytes(body[start : start+bundleWordLen]))
		if err != nil {
			return err
		}
		bundles = append(bundles, b)
	}
	return u.mem.WriteBlock(baseAddr, bundles)
}

func wordsToBytes(words []uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	var b [4]byte
	for _, w := range words {
		binary.LittleEndian.PutUint32(b[:], w)
		out = append(out, b[:]...)
	}
	return out
}
