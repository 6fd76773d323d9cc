package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"linae/config"
	"linae/provider"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check credentials and reachability of every provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		checks := provider.Doctor(cmd.Context(), cfg)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tMODEL\tKEY\tSTATUS\tLATENCY")
		for _, c := range checks {
			name := c.ProviderID
			if c.Configured {
				name += " *"
			}
			key := "-"
			if config.RequiresAPIKey(c.ProviderID) {
				key = "missing"
				if c.KeyPresent {
					key = "ok"
				}
			}
			status, latency := "ok", c.Latency.Round(time.Millisecond).String()
			if !c.OK() {
				status, latency = c.Err.Error(), "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, c.Model, key, status, latency)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\n* configured provider")
		return nil
	},
}
