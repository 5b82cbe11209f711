package amlet

import "github.com/sarchlab/bamlet/bamlet"

// commandTarget adapts one PE's mesh-wide and local register state to
// fu.CommandTarget, so a command packet's RegisterWrite can land on
// whichever class it names: G goes to the mesh-wide Globals, A/D/P
// bypass rename's tag matching entirely via a forced write (§6.4 gives
// a command packet unconditional effect, the same way forcedDrain
// bypasses tag matching for a masked functional-unit write).
type commandTarget struct {
	pe *PE
}

func (c *commandTarget) SetPC(addr uint32) {
	c.pe.controller.SetPC(addr)
}

func (c *commandTarget) WriteRegister(class bamlet.RegClass, index int, value int32) {
	if class == bamlet.ClassG {
		c.pe.globals.WriteGlobal(index, value)
		return
	}
	c.pe.file.ApplyResult(class, index, 0, value, true)
}
