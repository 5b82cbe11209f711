// Package rename implements the per-PE register file and rename stage
// (§4.3): it turns one Expanded bundle into one Resolving bundle,
// tagging every source and allocating a tag for every destination, and
// applies result-bus writes that arrive from the reservation stations.
package rename

import (
	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/config"
	"github.com/sarchlab/bamlet/instr"
)

// regEntry is one register's committed value plus its rename state.
type regEntry struct {
	Value   int32
	LastTag bamlet.Tag
	Pending bamlet.TagSet
}

// classFile is one register class's state (A, D, or P; §3.1-§3.2).
type classFile struct {
	class    bamlet.RegClass
	entries  []regEntry
	tagWidth uint

	// zeroValue is the value index 0 always reads as (0 for A/D, 1 for
	// P's hardwired "true"). discardWrite marks a class whose index 0
	// never allocates a tag: true for A and P, false for D, since D0's
	// write is diverted to the packet-emit path but must still carry
	// ordering through a real tag (§4.2, §3.1).
	zeroValue    int32
	discardWrite bool
}

func newClassFile(class bamlet.RegClass, n int, tagWidth uint, zeroValue int32, discardWrite bool) *classFile {
	return &classFile{
		class:        class,
		entries:      make([]regEntry, n),
		tagWidth:     tagWidth,
		zeroValue:    zeroValue,
		discardWrite: discardWrite,
	}
}

func (f *classFile) isHardwiredRead(index int) bool {
	return index == 0
}

// Read returns index's currently committed value, the same value any
// in-flight instruction's rename-time read would have resolved to were
// it already settled. Hardwired index 0 always reads zeroValue,
// regardless of what ApplyResult may have stored there for a class (D)
// whose index-0 writes are not discarded (§3.1, §4.6).
func (f *classFile) Read(index int) int32 {
	if f.isHardwiredRead(index) {
		return f.zeroValue
	}
	return f.entries[index].Value
}

// ApplyResult consumes one result-bus entry for this class. If the tag
// matches the register's current lastTag, or the entry is forced, the
// committed value updates; in either case the tag drains from
// pendingTags. A stale tag still drains without writing (§4.3).
func (f *classFile) ApplyResult(index int, tag bamlet.Tag, value int32, force bool) {
	if f.discardWrite && index == 0 {
		return
	}
	e := &f.entries[index]
	if force || e.LastTag == tag {
		e.Value = value
	}
	e.Pending = e.Pending.Clear(tag)
}

// File holds one PE's A, D, and P register files (§3.1). G is mesh-wide
// and is not rename-tracked; readers needing a global value use the
// ReadGlobal hook on Unit instead.
type File struct {
	A *classFile
	D *classFile
	P *classFile
}

// NewFile builds an empty register file sized per cfg (§6.1). P's tag width
// is derived from NPTags (a tag *count*, not a bit width).
func NewFile(cfg config.ParamSet) *File {
	return &File{
		A: newClassFile(bamlet.ClassA, int(cfg.NARegs), cfg.RegTagWidth, 0, true),
		D: newClassFile(bamlet.ClassD, int(cfg.NDRegs), cfg.RegTagWidth, 0, false),
		P: newClassFile(bamlet.ClassP, int(cfg.NPRegs), log2Ceil(cfg.NPTags), 1, true),
	}
}

func (f *File) classFileFor(class bamlet.RegClass) *classFile {
	switch class {
	case bamlet.ClassA:
		return f.A
	case bamlet.ClassD:
		return f.D
	case bamlet.ClassP:
		return f.P
	default:
		panic("rename: register file has no class file for " + class.String())
	}
}

// Read returns class/index's currently committed value (§3.1); mostly
// useful for tests, trace/dump output, and a host driver collecting
// results once a program halts.
func (f *File) Read(class bamlet.RegClass, index int) int32 {
	return f.classFileFor(class).Read(index)
}

// ApplyResult routes one result-bus entry to the class it names.
func (f *File) ApplyResult(class bamlet.RegClass, index int, tag bamlet.Tag, value int32, force bool) {
	f.classFileFor(class).ApplyResult(index, tag, value, force)
}

// ApplyResultBus consumes every entry the reservation stations produced
// this cycle.
func (f *File) ApplyResultBus(entries []instr.ResultEntry) {
	for _, e := range entries {
		f.ApplyResult(e.Class, e.Index, e.Tag, e.Value, e.Force)
	}
}

// log2Ceil returns the smallest width such that 2^width >= n, mirroring
// config.ParamSet.RegIndexWidth's derivation for a tag-count parameter.
func log2Ceil(n uint) uint {
	width := uint(0)
	for (uint(1) << width) < n {
		width++
	}
	return width
}
