package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-autopilot/internal/autopilot"
)

func newLibraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect autopilot library files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a library file and list its automated parameters",
		Example: `  # Check the library referenced by the default config
  autopilot library check configs/library.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := autopilot.LoadLibrary(args[0])
			if err != nil {
				return err
			}
			return printLibrary(cmd, lib)
		},
	})
	return cmd
}

func printLibrary(cmd *cobra.Command, lib *autopilot.Library) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tPARAMETER\tSCALE\tMIN\tMAX\tRANGE\tPERIOD (s)")
	for _, typ := range lib.Types() {
		pattern, _ := lib.Lookup(typ)
		for _, p := range pattern.Parameters() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%g\t%g-%g\n",
				typ, p.Path(), p.Scale(), p.Min(), p.Max(), p.Range(),
				p.MinPeriodSec(), p.MaxPeriodSec())
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d pattern types OK\n", lib.Len())
	return nil
}
