package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfatouaki/patchscope/pkg/catalog"
)

// latestCmd implements: patchscope latest
var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the currently required patch per build line",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, err := newHTTPClient(cmd)
		if err != nil {
			return err
		}

		cat, err := fetchCatalog(httpClient)
		if err != nil {
			return err
		}

		policy, err := buildPolicy(cmd)
		if err != nil {
			return err
		}

		latest := catalog.Select(cat, policy, time.Now())
		for _, major := range cat.MajorBuilds {
			sel, ok := latest[major]
			if !ok {
				fmt.Printf("%d\tunselected\n", major)
				continue
			}
			fmt.Printf("%d\t%s\t%s\t%s\t%s\n",
				major, sel.OSVersionFull, sel.OperatingSystem, sel.PatchKey(),
				sel.ReleaseDate.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(latestCmd)
	latestCmd.Flags().String("month", "", "Explicit target month (YYYY-MM); overrides the rolling policy")
	latestCmd.Flags().Int("freshness-days", 20, "Days before the catalog counts as stale")
}
