package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/bamlet/instr"
	"github.com/sarchlab/bamlet/program"
)

// bundleCount peeks at the fixture's bundle list length so assemble only
// emits the program itself, not the padding out to the full address space.
func bundleCount(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var root struct {
		Bundles []yaml.Node `yaml:"bundles"`
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, err
	}
	return len(root.Bundles), nil
}

func assembleCmd() *cobra.Command {
	flags := &commonFlags{}
	cmd := &cobra.Command{
		Use:   "assemble <program.yaml> <out.bin>",
		Short: "Encode a YAML program fixture into raw bundle words",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.paramSet()
			mem := program.LoadMemoryFromYAML(args[0], 1<<cfg.InstrAddrWidth)

			count, err := bundleCount(args[0])
			if err != nil {
				return fmt.Errorf("bamletsim: %s: %w", args[0], err)
			}

			var out []byte
			for addr := uint32(0); addr < uint32(count); addr++ {
				out = append(out, instr.Encode(mem.Read(addr))...)
			}

			if err := os.WriteFile(args[1], out, 0o644); err != nil {
				return fmt.Errorf("bamletsim: write %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes (%d bundles) to %s\n", len(out), count, args[1])
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
