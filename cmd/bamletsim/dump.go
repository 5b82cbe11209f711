package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/config"
	"github.com/sarchlab/bamlet/mesh"
)

// titleCaser renders a register class name the way the teacher's
// core/util.go toTitleCase helper lineage formats direction/slot names
// for human-facing dumps, rather than printing bamlet.RegClass's raw
// single-letter String() form.
var titleCaser = cases.Title(language.English)

// dumpState renders every PE's committed A/D/P registers as one table
// per tile, generalizing the teacher's core/util.go PrintState register
// table from a flat 32-register file to Bamlet's per-PE A, D and P
// register classes; the mesh-wide G registers are not shown.
func dumpState(bm *mesh.Bamlet, cfg config.ParamSet) string {
	out := ""
	for y := 0; y < int(cfg.Rows); y++ {
		for x := 0; x < int(cfg.Columns); x++ {
			out += fmt.Sprintf("== PE (%d,%d) ==\n", x, y)
			out += registerTable(bm, y, x, cfg) + "\n"
		}
	}
	return out
}

func registerTable(bm *mesh.Bamlet, row, col int, cfg config.ParamSet) string {
	pe := bm.PE(row, col)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Class", "Index", "Value"})

	classes := []struct {
		class bamlet.RegClass
		n     uint
	}{
		{bamlet.ClassA, cfg.NARegs},
		{bamlet.ClassD, cfg.NDRegs},
		{bamlet.ClassP, cfg.NPRegs},
	}
	for _, c := range classes {
		label := titleCaser.String(fmt.Sprintf("%s register", c.class))
		for i := 0; i < int(c.n); i++ {
			t.AppendRow(table.Row{label, i, pe.Register(c.class, i)})
		}
	}
	return t.Render()
}
