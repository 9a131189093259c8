// Package report writes compliance verdicts and run summaries as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mfatouaki/patchscope/pkg/compliance"
)

var verdictHeader = []string{
	"DeviceName", "UserPrincipalName", "OperatingSystem", "Model", "JoinType",
	"OSVersion", "OSVersionLabel", "LastSync", "TotalStorageBytes", "FreeStorageBytes",
	"InstalledKBs", "InstalledReleaseDate", "Status", "DaysUnpatched", "RequiredKBs",
}

// WriteVerdicts writes one row per device, keeping input order.
func WriteVerdicts(path string, verdicts []compliance.Verdict) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(verdictHeader); err != nil {
		return err
	}
	for _, v := range verdicts {
		if err := w.Write(VerdictRow(v)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// VerdictRow flattens one verdict into its CSV fields.
func VerdictRow(v compliance.Verdict) []string {
	lastSync := ""
	if !v.Device.LastSync.IsZero() {
		lastSync = v.Device.LastSync.Format(time.RFC3339)
	}
	return []string{
		v.Device.DeviceName,
		v.Device.UserPrincipalName,
		v.Device.OperatingSystem,
		v.Device.Model,
		v.Device.JoinType,
		v.Device.OSVersion,
		v.OSVersionLabel,
		lastSync,
		strconv.FormatInt(v.Device.TotalStorageBytes, 10),
		strconv.FormatInt(v.Device.FreeStorageBytes, 10),
		v.InstalledPatchIDs,
		v.InstalledReleaseDate,
		string(v.Status),
		v.DaysUnpatched,
		v.RequiredPatchIDs,
	}
}

// WriteSummary writes the run counters and compliance percentage as a
// single-row CSV.
func WriteSummary(path string, sum compliance.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Total", "Compliant", "NonCompliant", "ManualCheck", "CompliantPercent"}); err != nil {
		return err
	}
	if err := w.Write([]string{
		strconv.Itoa(sum.Total),
		strconv.Itoa(sum.Compliant),
		strconv.Itoa(sum.NonCompliant),
		strconv.Itoa(sum.ManualCheck),
		fmt.Sprintf("%.2f", sum.CompliantPercent()),
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
