package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mfatouaki/patchscope/pkg/intune"
)

// devicesCmd implements: patchscope devices
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List managed devices from the Intune inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, err := newHTTPClient(cmd)
		if err != nil {
			return err
		}

		client, err := intune.NewClient(
			viper.GetString("intune.tenantid"),
			viper.GetString("intune.clientid"),
			viper.GetString("intune.clientsecret"),
			httpClient,
		)
		if err != nil {
			return err
		}

		devices, err := client.ListManagedDevices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			fmt.Printf("%s\t%s\t%s\t%s\n", d.DeviceName, d.UserPrincipalName, d.OperatingSystem, d.OSVersion)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
