package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mfatouaki/patchscope/pkg/storage"
)

// dbCmd groups the run-history queries.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Query the persisted run history",
}

var dbRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored compliance runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRunDB()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background())
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%d\t%s\ttotal=%d compliant=%d noncompliant=%d manualcheck=%d (%.2f%%)\n",
				r.ID, r.RanAt.Format("2006-01-02 15:04"), r.Total, r.Compliant,
				r.NonCompliant, r.ManualCheck, r.CompliantPercent)
		}
		return nil
	},
}

var dbShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the stored verdicts of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}

		db, err := openRunDB()
		if err != nil {
			return err
		}
		defer db.Close()

		verdicts, err := db.RunVerdicts(context.Background(), runID)
		if err != nil {
			return err
		}
		for _, v := range verdicts {
			fmt.Printf("%s\t%s\t%s\t%s\tdays=%s\trequired=%s\n",
				v.DeviceName, v.OSVersion, v.OSVersionLabel, v.Status, v.DaysUnpatched, v.RequiredKBs)
		}
		return nil
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate statistics over the stored runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRunDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("runs: %d\n", stats.Runs)
		fmt.Printf("latest compliant: %.2f%%\n", stats.LatestPercent)
		fmt.Printf("average compliant: %.2f%%\n", stats.AveragePercent)
		return nil
	},
}

func openRunDB() (*storage.DB, error) {
	dbPath, _ := dbCmd.PersistentFlags().GetString("dbpath")
	if dbPath == "" {
		dbPath = "patchscope.sqlite"
	}
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found: %s", dbPath)
		}
		return nil, err
	}
	return storage.Open(dbPath)
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbRunsCmd)
	dbCmd.AddCommand(dbShowCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.PersistentFlags().String("dbpath", "patchscope.sqlite", "Path to the sqlite database")
}
