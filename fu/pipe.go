// Package fu implements the six functional units a reservation station
// hands a Resolved-form instruction to (§4.5): the full ALU, the 16-bit
// ALULite, the Predicate comparator, the LoadStore unit, and the packet
// Send/Receive units. Every unit is driven the same way: Issue accepts
// one Resolved instruction this cycle, Tick advances any in-flight
// latency and returns the result-bus entries instructions completing
// this cycle produce.
package fu

import "github.com/sarchlab/bamlet/instr"

// pipeStage is one in-flight computation waiting out its functional
// unit's latency before its result reaches the bus.
type pipeStage struct {
	remaining uint
	dst       instr.TaggedDest
	value     int32
}

// pipe is the fixed-latency shift register shared by ALU, ALULite and
// the Predicate unit (§4.5, whose depths come from config.ParamSet's
// aluLatency/aluLiteLatency/aluPredicateLatency). Issue enqueues one
// already-computed result; Tick drains whatever finishes this cycle.
type pipe struct {
	latency uint
	stages  []pipeStage
}

func newPipe(latency uint) pipe {
	if latency == 0 {
		latency = 1
	}
	return pipe{latency: latency}
}

func (p *pipe) issue(dst instr.TaggedDest, value int32) {
	p.stages = append(p.stages, pipeStage{remaining: p.latency, dst: dst, value: value})
}

// tick advances every stage by one cycle and removes the ones that
// complete, in place, the way rs.buffer's callers compact entries.
func (p *pipe) tick() []instr.ResultEntry {
	var out []instr.ResultEntry
	kept := p.stages[:0]
	for _, s := range p.stages {
		s.remaining--
		if s.remaining == 0 {
			if !s.dst.None {
				out = append(out, instr.ResultEntry{
					Class: s.dst.Class, Index: s.dst.Index, Tag: s.dst.Tag, Value: s.value,
				})
			}
			continue
		}
		kept = append(kept, s)
	}
	p.stages = kept
	return out
}

func boolInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// forcedDrain builds the forced null-write a masked instruction's
// allocated tag still needs, so a dependent waiting on it observes
// resolution even though this functional unit performed no real work
// (§4.4's masking semantics, deferred here per bullet 3).
func forcedDrain(d instr.TaggedDest) (instr.ResultEntry, bool) {
	if d.None {
		return instr.ResultEntry{}, false
	}
	return instr.ResultEntry{Class: d.Class, Index: d.Index, Tag: d.Tag, Value: 0, Force: true}, true
}
