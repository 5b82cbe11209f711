package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/bamlet/config"
)

// commonFlags are the mesh-shape and timing knobs every subcommand that
// builds a Bamlet shares.
type commonFlags struct {
	rows       uint
	columns    uint
	maxCycles  int
	aluLatency uint
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().UintVar(&f.rows, "rows", 0, "mesh rows (0 = config default)")
	cmd.Flags().UintVar(&f.columns, "columns", 0, "mesh columns (0 = config default)")
	cmd.Flags().IntVar(&f.maxCycles, "max-cycles", 10000, "cycle budget before giving up waiting for halt")
	cmd.Flags().UintVar(&f.aluLatency, "alu-latency", 0, "override the ALU pipeline depth (0 = config default)")
}

// paramSet builds a config.ParamSet from the defaults overridden by
// whichever flags the caller actually set.
func (f *commonFlags) paramSet() config.ParamSet {
	cfg := config.Default()
	if f.rows > 0 {
		cfg.Rows = f.rows
	}
	if f.columns > 0 {
		cfg.Columns = f.columns
	}
	if f.aluLatency > 0 {
		cfg.ALULatency = f.aluLatency
	}
	return cfg
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bamletsim",
		Short: "Assemble, run, trace and verify Bamlet mesh programs",
	}

	cmd.AddCommand(runCmd())
	cmd.AddCommand(assembleCmd())
	cmd.AddCommand(traceCmd())
	cmd.AddCommand(verifyCmd())
	return cmd
}
