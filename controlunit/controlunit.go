// Package controlunit walks the shared instruction memory, expands
// control flow (loop push/pop, halt) and hands Expanded bundles to
// the dependency tracker (§4.1).
package controlunit

import (
	"fmt"

	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/program"
)

// LoopFrame is one entry of the controller's loop stack (§4.1).
type LoopFrame struct {
	HeaderPC    uint32
	BodyLength  int
	Iterations  int // resolved count; -1 while LoopLocal/LoopGlobal is pending.
	CurrentIter int
	Dst         int // A register that receives the current iteration index.
	Op          instr.ControlOp
}

// Resolved reports whether this frame's iteration count is known yet.
func (f LoopFrame) Resolved() bool { return f.Iterations >= 0 }

// Unit is the control unit's state machine. One per Bamlet.
type Unit struct {
	mem  *program.Memory
	pc   uint32
	halt bool

	loops []LoopFrame // LIFO, bounded by nLoopLevels.
	depth uint

	// pendingReports accumulates LoopLocal/LoopGlobal iteration counts
	// reported by PEs for the loop frame currently awaiting resolution,
	// keyed by PE index; nil when no frame is pending.
	pendingReports map[int]int
	pendingPEs     int
}

// New builds a control unit over mem, starting at PC 0, with a loop
// stack bounded to nLoopLevels frames (§6.1).
func New(mem *program.Memory, nLoopLevels uint, numPEs int) *Unit {
	return &Unit{mem: mem, depth: nLoopLevels, pendingPEs: numPEs}
}

// Halted reports whether the control unit has seen Halt; while true it
// issues no bundle, until SetPC (a Start command) clears it (§4.1).
func (u *Unit) Halted() bool { return u.halt }

// AwaitingIteration reports whether the controller is blocked waiting
// for every PE to report a LoopLocal/LoopGlobal iteration count before
// it can issue that loop's body (§3.3, §4.1).
func (u *Unit) AwaitingIteration() bool {
	return len(u.loops) > 0 && !u.loops[len(u.loops)-1].Resolved()
}

// ReportIteration records one PE's resolved iteration count for the
// loop frame currently pending resolution. Once every PE has reported,
// the frame's Iterations is set to the maximum reported value, per the
// spec's Open Question resolution for LoopLocal reconciliation (§9):
// per-PE predicates are expected to mask out unwanted trailing
// iterations on PEs that reported a smaller count.
func (u *Unit) ReportIteration(peIndex, count int) error {
	if !u.AwaitingIteration() {
		return fmt.Errorf("controlunit: no loop frame awaiting an iteration report")
	}
	if u.pendingReports == nil {
		u.pendingReports = make(map[int]int)
	}
	u.pendingReports[peIndex] = count
	if len(u.pendingReports) < u.pendingPEs {
		return nil
	}

	max := 0
	for _, c := range u.pendingReports {
		if c > max {
			max = c
		}
	}
	u.loops[len(u.loops)-1].Iterations = max
	u.pendingReports = nil
	return nil
}

// Step fetches and expands the bundle at the current PC, advancing
// control-flow state, and returns it along with whether a bundle was
// actually produced this cycle (false when halted or stalled awaiting
// a loop iteration report).
func (u *Unit) Step() (instr.ExpandedBundle, bool, error) {
	if u.halt {
		return instr.ExpandedBundle{}, false, nil
	}
	if u.AwaitingIteration() {
		return instr.ExpandedBundle{}, false, nil
	}

	base := u.mem.Read(u.pc)
	expanded := instr.ExpandedBundle(base)

	switch base.Control.Op {
	case instr.CtrlHalt:
		u.halt = true
		return expanded, true, nil

	case instr.CtrlLoopImmediate, instr.CtrlLoopLocal, instr.CtrlLoopGlobal:
		if uint(len(u.loops)) >= u.depth {
			return instr.ExpandedBundle{}, false, fmt.Errorf(
				"controlunit: loop nesting exceeds nLoopLevels=%d", u.depth)
		}
		frame := LoopFrame{
			HeaderPC: u.pc, BodyLength: base.Control.BodyLength, Dst: base.Control.Dst, Op: base.Control.Op,
		}
		if base.Control.Op == instr.CtrlLoopImmediate {
			frame.Iterations = base.Control.IterImm
		} else {
			frame.Iterations = -1 // pending PE/global resolution.
		}
		u.loops = append(u.loops, frame)
		u.pc++
		return expanded, true, nil

	default:
		u.advance()
		return expanded, true, nil
	}
}

// advance moves the PC forward by one bundle and, at the end of the
// active loop's body, either jumps back to the first body bundle or pops
// the frame once its iterations are done (§4.1). It injects no Incr op
// into the following bundle: a loop's Dst register is written only by
// control slots present in the program itself (the loop header, or an
// explicit Incr), so it is not updated on each iteration.
func (u *Unit) advance() {
	u.pc++

	if len(u.loops) == 0 {
		return
	}
	top := &u.loops[len(u.loops)-1]
	bodyEnd := top.HeaderPC + 1 + uint32(top.BodyLength)
	if u.pc < bodyEnd {
		return
	}

	top.CurrentIter++
	if top.CurrentIter >= top.Iterations {
		u.loops = u.loops[:len(u.loops)-1]
		return
	}
	u.pc = top.HeaderPC + 1
}

// PC returns the current program counter, mostly useful for tests and
// trace/dump output.
func (u *Unit) PC() uint32 { return u.pc }

// CurrentIteration returns the active loop frame's iteration index, the
// value mesh threads into every PE's TryIssue call for a Control slot's
// Dst write this cycle (§4.1's "current index"); 0 outside any loop,
// which also serves as the header bundle's own initial index.
func (u *Unit) CurrentIteration() int32 {
	if len(u.loops) == 0 {
		return 0
	}
	return int32(u.loops[len(u.loops)-1].CurrentIter)
}

// SetPC jumps the control unit to addr, as a Start command packet does
// (§6.4). It also clears any loop state, matching a fresh program boot.
func (u *Unit) SetPC(addr uint32) {
	u.pc = addr
	u.halt = false
	u.loops = nil
	u.pendingReports = nil
}
