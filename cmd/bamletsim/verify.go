package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bamlet/mesh"
	"github.com/sarchlab/bamlet/program"
)

// verifyCmd runs a program and reports whether it halted cleanly, treating
// any accumulated mesh.Bamlet.Errors as a verification failure the way the
// teacher's verify/cmd/verify-* mains treat a mismatched golden output.
func verifyCmd() *cobra.Command {
	flags := &commonFlags{}
	cmd := &cobra.Command{
		Use:   "verify <program.yaml>",
		Short: "Run a program and report any errors the mesh accumulated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.paramSet()
			mem := program.LoadMemoryFromYAML(args[0], 1<<cfg.InstrAddrWidth)

			bm := mesh.NewBuilder().
				WithEngine(sim.NewSerialEngine()).
				WithFreq(1 * sim.GHz).
				WithConfig(cfg).
				WithMemory(mem).
				Build("bamletsim-verify")

			cycles := 0
			for ; cycles < flags.maxCycles && !bm.Halted(); cycles++ {
				bm.Tick(0)
			}

			if !bm.Halted() {
				return fmt.Errorf("bamletsim: verify: did not halt within %d cycles", flags.maxCycles)
			}

			if len(bm.Errors) > 0 {
				for _, err := range bm.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
				return fmt.Errorf("bamletsim: verify: %d error(s) during execution", len(bm.Errors))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK: halted cleanly after %d cycles\n", cycles)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
