// Package program holds the shared instruction memory Bamlet's control
// unit walks, plus a YAML loader for test fixtures, generalized from the
// teacher's per-core YAML program loader (core/program.go) onto a single
// mesh-wide VLIW bundle memory (§2, §6.1 instrAddrWidth, §6.4
// InstructionMemoryWrite).
package program

import (
	"fmt"

	"github.com/sarchlab/bamlet/instr"
)

// Memory is Bamlet's single shared instruction memory: one Base-form
// bundle per address, depth 2^instrAddrWidth (§2).
type Memory struct {
	bundles []instr.Bundle
}

// NewMemory allocates an empty instruction memory of the given depth.
func NewMemory(depth uint) *Memory {
	return &Memory{bundles: make([]instr.Bundle, depth)}
}

// Depth returns the number of addressable bundle slots.
func (m *Memory) Depth() uint {
	return uint(len(m.bundles))
}

// Read returns the bundle stored at addr. Reading out of range is a
// programming error in the caller (the controller never advances PC
// past Depth without a Halt) and panics rather than silently wrapping.
func (m *Memory) Read(addr uint32) instr.Bundle {
	if int(addr) >= len(m.bundles) {
		panic(fmt.Sprintf("program: read address %d out of range (depth %d)", addr, len(m.bundles)))
	}
	return m.bundles[addr]
}

// Write stores a single bundle at addr, as issued by a command packet's
// InstructionMemoryWrite (§6.4) or by a test fixture loader.
func (m *Memory) Write(addr uint32, b instr.Bundle) {
	if int(addr) >= len(m.bundles) {
		panic(fmt.Sprintf("program: write address %d out of range (depth %d)", addr, len(m.bundles)))
	}
	m.bundles[addr] = b
}

// WriteBlock stores consecutive bundles starting at baseAddr, as
// InstructionMemoryWrite's count-many payload words decode into (§6.4).
// It returns an error rather than panicking when the block would run
// past the end of memory, matching §4.7's "IM write overflow" failure
// kind, whose disposition is "reported" rather than fatal.
func (m *Memory) WriteBlock(baseAddr uint32, bundles []instr.Bundle) error {
	if int(baseAddr)+len(bundles) > len(m.bundles) {
		return fmt.Errorf("program: instruction memory write overflow: base=%d count=%d depth=%d",
			baseAddr, len(bundles), len(m.bundles))
	}
	copy(m.bundles[baseAddr:], bundles)
	return nil
}
