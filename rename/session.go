package rename

import (
	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/instr"
)

// renameState is the lastTag/pendingTags pair a session tracks while a
// bundle is tentatively being renamed, before it is known whether the
// whole bundle can proceed (§4.3).
type renameState struct {
	LastTag bamlet.Tag
	Pending bamlet.TagSet
}

type regKey struct {
	class bamlet.RegClass
	index int
}

// session renames one bundle against a File. It buffers every touched
// register's tentative lastTag/pendingTags in an overlay so later slots
// in the same bundle see earlier slots' allocations (the fixed chaining
// order in §4.3), while leaving the File itself untouched until commit
// is called. A session that hits a stall is simply discarded.
type session struct {
	file    *File
	overlay map[regKey]renameState
}

func newSession(f *File) *session {
	return &session{file: f, overlay: make(map[regKey]renameState)}
}

func (s *session) state(class bamlet.RegClass, index int) renameState {
	key := regKey{class, index}
	if st, ok := s.overlay[key]; ok {
		return st
	}
	e := s.file.classFileFor(class).entries[index]
	return renameState{LastTag: e.LastTag, Pending: e.Pending}
}

// read produces a TaggedSource for a register, resolved against its
// committed value when no write is in flight (§4.3 step 1).
func (s *session) read(class bamlet.RegClass, index int) instr.TaggedSource {
	cf := s.file.classFileFor(class)
	if cf.isHardwiredRead(index) {
		return instr.TaggedSource{Class: class, Index: index, Resolved: true, Value: cf.zeroValue}
	}
	st := s.state(class, index)
	if st.Pending.Empty() {
		return instr.TaggedSource{
			Class: class, Index: index, Resolved: true,
			Value: cf.entries[index].Value,
		}
	}
	return instr.TaggedSource{Class: class, Index: index, Tag: st.LastTag, Resolved: false}
}

// allocate assigns the next tag for a register write (§4.3 steps 2-3).
// It reports ok=false, touching nothing, if the tag domain is already
// full for that register (a stall). Index 0 of a discard-write class
// (A, P) never allocates: its write has no observable effect other than
// the hardwired value it already reads as.
func (s *session) allocate(class bamlet.RegClass, index int) (bamlet.Tag, bool) {
	cf := s.file.classFileFor(class)
	if cf.discardWrite && index == 0 {
		return 0, true
	}
	st := s.state(class, index)
	newTag := bamlet.NextTag(st.LastTag, cf.tagWidth)
	if st.Pending.Has(newTag) {
		return 0, false
	}
	s.overlay[regKey{class, index}] = renameState{LastTag: newTag, Pending: st.Pending.Set(newTag)}
	return newTag, true
}

// commit durably applies every tentative allocation this session made.
// Called only once the whole bundle has renamed without a stall (§4.3:
// "If any slot signals a stall the entire bundle stalls ... no tags are
// durably allocated").
func (s *session) commit() {
	for key, st := range s.overlay {
		e := &s.file.classFileFor(key.class).entries[key.index]
		e.LastTag = st.LastTag
		e.Pending = st.Pending
	}
}

func operandFromSource(src instr.TaggedSource) instr.Operand {
	return instr.Operand{Source: src}
}

func operandFromASrc(s *session, a instr.ASrc, class bamlet.RegClass) instr.Operand {
	if a.Mode == instr.SrcImmediate {
		return instr.Operand{Immediate: true, Imm: a.Imm}
	}
	return operandFromSource(s.read(class, a.Reg))
}

func operandFromBSrc(s *session, b instr.BSrc) instr.Operand {
	if b.Mode == instr.SrcImmediate {
		return instr.Operand{Immediate: true, Imm: b.Imm}
	}
	return operandFromSource(s.read(b.Reg.Class(), b.Reg.Index()))
}

func taggedDest(class bamlet.RegClass, index int, tag bamlet.Tag) instr.TaggedDest {
	return instr.TaggedDest{Class: class, Index: index, Tag: tag}
}
