package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bamlet/mesh"
	"github.com/sarchlab/bamlet/program"
)

func runCmd() *cobra.Command {
	flags := &commonFlags{}
	var dumpStateFlag bool
	cmd := &cobra.Command{
		Use:   "run <program.yaml>",
		Short: "Run a Bamlet program to completion and dump final register state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.paramSet()
			mem := program.LoadMemoryFromYAML(args[0], 1<<cfg.InstrAddrWidth)

			bm := mesh.NewBuilder().
				WithEngine(sim.NewSerialEngine()).
				WithFreq(1 * sim.GHz).
				WithConfig(cfg).
				WithMemory(mem).
				Build("bamletsim")

			cycles := 0
			for ; cycles < flags.maxCycles && !bm.Halted(); cycles++ {
				bm.Tick(0)
			}
			if !bm.Halted() {
				return fmt.Errorf("bamletsim: did not halt within %d cycles", flags.maxCycles)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "halted after %d cycles\n\n", cycles)
			if dumpStateFlag {
				fmt.Fprint(cmd.OutOrStdout(), dumpState(bm, cfg))
			}
			for _, err := range bm.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dumpStateFlag, "dump-state", true, "print every PE's register state after halting")
	flags.register(cmd)
	return cmd
}
