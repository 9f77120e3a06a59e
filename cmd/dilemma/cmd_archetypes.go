package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cpunion/dilemma-lab/pkg/archetype"
)

func newArchetypesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "archetypes",
		Short: "List the personality archetypes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			all := archetype.All()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}
			for _, a := range all {
				fmt.Fprintf(out, "%-12s %s (%s)\n", a.ID, a.Label, a.Persona)
				fmt.Fprintf(out, "             %s\n", a.Profile.CorePersonality)
				fmt.Fprintf(out, "             biases: %s\n", strings.Join(a.Profile.CognitiveBiases, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print full profiles as JSON")
	return cmd
}
