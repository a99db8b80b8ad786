package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List capabilities and whether a handler is configured",
	Args:  cobra.NoArgs,
	RunE:  runCapabilities,
}

func runCapabilities(cmd *cobra.Command, args []string) error {
	o, err := newOrchestrator(cmd.Context())
	if err != nil {
		return err
	}
	defer o.Close()

	reg := o.Registry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CAPABILITY\tHANDLER\tDESCRIPTION")
	for _, c := range protocol.Capabilities() {
		wired := "-"
		if reg.Has(c) {
			wired = "configured"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c, wired, c.Description())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d capabilities configured\n", len(reg.List()), len(protocol.Capabilities()))
	return nil
}
