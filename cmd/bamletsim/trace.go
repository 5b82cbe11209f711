package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bamlet/bamlet"
	"github.com/sarchlab/bamlet/config"
	"github.com/sarchlab/bamlet/mesh"
	"github.com/sarchlab/bamlet/program"
)

// levelTrace mirrors the teacher's core/util.go per-cycle logging level,
// one step above Info, reserved for this kind of high-volume simulator
// trace rather than ordinary diagnostic logging.
const levelTrace slog.Level = slog.LevelInfo + 1

func traceCmd() *cobra.Command {
	flags := &commonFlags{}
	cmd := &cobra.Command{
		Use:   "trace <program.yaml>",
		Short: "Run a Bamlet program, logging committed PE state every cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.paramSet()
			mem := program.LoadMemoryFromYAML(args[0], 1<<cfg.InstrAddrWidth)

			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: levelTrace}))

			bm := mesh.NewBuilder().
				WithEngine(sim.NewSerialEngine()).
				WithFreq(1 * sim.GHz).
				WithConfig(cfg).
				WithMemory(mem).
				Build("bamletsim-trace")

			cycles := 0
			for ; cycles < flags.maxCycles && !bm.Halted(); cycles++ {
				bm.Tick(0)
				traceCycle(logger, bm, cfg, cycles)
			}
			if !bm.Halted() {
				return fmt.Errorf("bamletsim: did not halt within %d cycles", flags.maxCycles)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "halted after %d cycles\n", cycles)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// traceCycle logs every PE's D1 register each cycle,
// the smallest slice of state that still shows forward progress without
// dumping the full register file every tick.
func traceCycle(logger *slog.Logger, bm *mesh.Bamlet, cfg config.ParamSet, cycle int) {
	for y := 0; y < int(cfg.Rows); y++ {
		for x := 0; x < int(cfg.Columns); x++ {
			pe := bm.PE(y, x)
			logger.Log(context.Background(), levelTrace, "pe",
				slog.Int("cycle", cycle),
				slog.Int("x", x), slog.Int("y", y),
				slog.Int("d1", int(pe.Register(bamlet.ClassD, 1))))
		}
	}
}
