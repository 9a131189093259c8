package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mfatouaki/patchscope/internal/utils"
	"github.com/mfatouaki/patchscope/pkg/catalog"
	"github.com/mfatouaki/patchscope/pkg/compliance"
	"github.com/mfatouaki/patchscope/pkg/intune"
	"github.com/mfatouaki/patchscope/pkg/report"
	"github.com/mfatouaki/patchscope/pkg/storage"
	"github.com/mfatouaki/patchscope/pkg/whttp"
	"github.com/mfatouaki/patchscope/pkg/wuhistory"
)

// reportCmd implements: patchscope report
//
// Full pipeline: scrape the update-history pages, build the catalog, select
// the latest patch per build line, pull the Intune inventory, evaluate every
// device and write the CSVs (optionally persisting the run to sqlite).
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the catalog, evaluate the fleet and write the compliance report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'patchscope report --help'", args[0])
		}

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

		now := time.Now()
		latest := catalog.Select(cat, policy, now)
		utils.Log.Infof("catalog: %d records across %d build lines, %d selected",
			len(cat.Records), len(cat.MajorBuilds), len(latest))

		devices := fetchDevices(httpClient)

		verdicts, sum := compliance.Evaluate(devices, cat, latest, now)
		utils.Log.Infof("evaluated %d devices: %d compliant, %d non-compliant, %d manual check (%.2f%% compliant)",
			sum.Total, sum.Compliant, sum.NonCompliant, sum.ManualCheck, sum.CompliantPercent())

		output, _ := cmd.Flags().GetString("output")
		summaryPath, _ := cmd.Flags().GetString("summary")
		if err := report.WriteVerdicts(output, verdicts); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		if err := report.WriteSummary(summaryPath, sum); err != nil {
			return fmt.Errorf("writing %s: %w", summaryPath, err)
		}
		utils.Log.Infof("wrote %s and %s", output, summaryPath)

		if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
			db, err := storage.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			runID, err := db.SaveRun(context.Background(), now, verdicts, sum)
			if err != nil {
				return err
			}
			utils.Log.Infof("saved run %d to %s", runID, dbPath)
		}
		return nil
	},
}

func newHTTPClient(cmd *cobra.Command) (*retryablehttp.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	return whttp.NewClient(proxy)
}

// fetchCatalog scrapes the configured update-history pages and builds the
// compliance-relevant catalog.
func fetchCatalog(httpClient *retryablehttp.Client) (catalog.Catalog, error) {
	urls := viper.GetStringSlice("catalog.urls")
	if len(urls) == 0 {
		urls = wuhistory.DefaultPageURLs
	}
	links := wuhistory.FetchLinks(urls, httpClient)
	if len(links) == 0 {
		return catalog.Catalog{}, fmt.Errorf("no announcement links found on any update-history page")
	}
	return catalog.Build(catalog.Parse(links)), nil
}

// buildPolicy resolves the selection policy from flags and config.
func buildPolicy(cmd *cobra.Command) (catalog.Policy, error) {
	monthStr, _ := cmd.Flags().GetString("month")
	if monthStr == "" {
		monthStr = viper.GetString("policy.targetmonth")
	}

	freshness := viper.GetInt("policy.freshnessdays")
	if cmd.Flags().Changed("freshness-days") {
		freshness, _ = cmd.Flags().GetInt("freshness-days")
	}

	policy := catalog.Policy{FreshnessThresholdDays: freshness}
	if monthStr != "" {
		m, err := catalog.ParseMonth(monthStr)
		if err != nil {
			return catalog.Policy{}, err
		}
		policy.TargetMonth = &m
	}
	return policy, nil
}

// fetchDevices pulls the Intune inventory. Upstream failures degrade to an
// empty fleet so the report run still completes.
func fetchDevices(httpClient *retryablehttp.Client) []compliance.Device {
	client, err := intune.NewClient(
		viper.GetString("intune.tenantid"),
		viper.GetString("intune.clientid"),
		viper.GetString("intune.clientsecret"),
		httpClient,
	)
	if err != nil {
		utils.Log.Warnf("Intune unavailable, reporting on an empty fleet: %v", err)
		return nil
	}
	devices, err := client.ListManagedDevices()
	if err != nil {
		utils.Log.Warnf("device listing failed, reporting on an empty fleet: %v", err)
		return nil
	}
	return devices
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("output", "o", "compliance-report.csv", "Verdicts CSV path")
	reportCmd.Flags().String("summary", "compliance-summary.csv", "Summary CSV path")
	reportCmd.Flags().String("db", "", "Also persist the run to this sqlite database")
	reportCmd.Flags().String("month", "", "Explicit target month (YYYY-MM); overrides the rolling policy")
	reportCmd.Flags().Int("freshness-days", 20, "Days before the catalog counts as stale")
}
