// Package config holds the parameter set that sizes every other package
// in this module (§6.1). The JSON loader that would populate a ParamSet
// from a file is an external concern (§1); this package only defines the
// struct, its defaults, and validation, the way the teacher's
// config.DeviceBuilder accepts an already-built configuration rather
// than parsing one itself.
package config

import "fmt"

// ParamSet enumerates every compile/elaborate-time parameter of a Bamlet
// mesh, per §6.1.
type ParamSet struct {
	// Data widths.
	Width  uint // D-register and ALU data width, default 32.
	AWidth uint // A-register and ALULite data width, default 16.

	// Register file sizes.
	NDRegs uint
	NARegs uint
	NPRegs uint
	NGRegs uint

	// Rename-tag domain sizes.
	RegTagWidth uint // bits; tag domain is 2^RegTagWidth.
	NPTags      uint // predicate tag domain size (count, not log2).

	// Memory.
	DataMemoryDepth uint

	// Result bus.
	NResultPorts uint

	// Loop nesting.
	NLoopLevels uint

	// Packet header field widths.
	XPosWidth         uint
	YPosWidth         uint
	PacketLengthWidth uint

	// Functional unit pipeline depths (cycles of latency).
	ALULatency          uint
	ALULiteLatency      uint
	ALUPredicateLatency uint

	// Reservation-station depths. NPredicateRSSlots sizes the
	// Predicate-ALU station; §6.1's table enumerates the other five but
	// omits it, so this follows the same typ. 1-4 default the rest use.
	NAluRSSlots           uint
	NAluLiteRSSlots       uint
	NPredicateRSSlots     uint
	NLoadStoreRSSlots     uint
	NSendPacketRSSlots    uint
	NReceivePacketRSSlots uint

	// Network.
	NChannels uint

	// Instruction memory.
	InstrAddrWidth uint

	// Mesh shape.
	Rows    uint
	Columns uint
}

// Default returns the typical parameter set called out across §2-§6.
func Default() ParamSet {
	return ParamSet{
		Width:  32,
		AWidth: 16,

		NDRegs: 16,
		NARegs: 16,
		NPRegs: 16,
		NGRegs: 16,

		RegTagWidth: 2,
		NPTags:      4,

		DataMemoryDepth: 1024,

		NResultPorts: 2,

		NLoopLevels: 4,

		XPosWidth:         4,
		YPosWidth:         4,
		PacketLengthWidth: 8,

		ALULatency:          1,
		ALULiteLatency:      1,
		ALUPredicateLatency: 1,

		NAluRSSlots:           2,
		NAluLiteRSSlots:       2,
		NPredicateRSSlots:     2,
		NLoadStoreRSSlots:     2,
		NSendPacketRSSlots:    2,
		NReceivePacketRSSlots: 2,

		NChannels: 2,

		InstrAddrWidth: 10,

		Rows:    4,
		Columns: 4,
	}
}

// Validate reports whether the parameter set is internally consistent,
// returning a descriptive error for the first problem found rather than
// panicking, per §1's ambient error-handling stack.
func (p ParamSet) Validate() error {
	switch {
	case p.NDRegs == 0 || p.NARegs == 0 || p.NPRegs == 0 || p.NGRegs == 0:
		return fmt.Errorf("config: register file sizes must be non-zero (D=%d A=%d P=%d G=%d)",
			p.NDRegs, p.NARegs, p.NPRegs, p.NGRegs)
	case p.RegTagWidth == 0:
		return fmt.Errorf("config: regTagWidth must be at least 1")
	case p.NResultPorts == 0:
		return fmt.Errorf("config: nResultPorts must be non-zero")
	case p.NLoopLevels == 0:
		return fmt.Errorf("config: nLoopLevels must be non-zero")
	case p.Rows == 0 || p.Columns == 0:
		return fmt.Errorf("config: mesh shape must be non-zero (rows=%d columns=%d)", p.Rows, p.Columns)
	case p.DataMemoryDepth == 0:
		return fmt.Errorf("config: dataMemoryDepth must be non-zero")
	case p.NChannels == 0:
		return fmt.Errorf("config: nChannels must be non-zero")
	case uint(1<<p.XPosWidth) < p.Columns:
		return fmt.Errorf("config: xPosWidth=%d cannot address %d columns", p.XPosWidth, p.Columns)
	case uint(1<<p.YPosWidth) < p.Rows:
		return fmt.Errorf("config: yPosWidth=%d cannot address %d rows", p.YPosWidth, p.Rows)
	default:
		return nil
	}
}

// RegIndexWidth returns max(log2 of the four register file sizes),
// resolving the §9 Open Question about RegisterWrite's index field
// width: the command packet's 2-bit class field is padded with the
// widest index space among the four classes.
func (p ParamSet) RegIndexWidth() uint {
	widest := p.NDRegs
	if p.NARegs > widest {
		widest = p.NARegs
	}
	if p.NPRegs > widest {
		widest = p.NPRegs
	}
	if p.NGRegs > widest {
		widest = p.NGRegs
	}

	width := uint(0)
	for (uint(1) << width) < widest {
		width++
	}
	return width
}

// CommandWidths derives the bit widths a command packet's first payload
// word is packed with (§6.4) from this parameter set.
func (p ParamSet) CommandWidths() (instrAddrWidth, regIndexWidth uint) {
	return p.InstrAddrWidth, p.RegIndexWidth()
}
