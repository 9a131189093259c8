package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mfatouaki/patchscope/pkg/catalog"
	"github.com/mfatouaki/patchscope/pkg/wuhistory"
)

// catalogCmd implements: patchscope catalog
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Fetch and print the parsed patch catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, err := newHTTPClient(cmd)
		if err != nil {
			return err
		}

		previews, _ := cmd.Flags().GetBool("previews")
		oob, _ := cmd.Flags().GetBool("out-of-band")
		if previews || oob {
			urls := viper.GetStringSlice("catalog.urls")
			if len(urls) == 0 {
				urls = wuhistory.DefaultPageURLs
			}
			links := wuhistory.FetchLinks(urls, httpClient)
			if previews {
				for _, b := range catalog.PreviewBuilds(links) {
					fmt.Println(b)
				}
			}
			if oob {
				for _, b := range catalog.OutOfBandBuilds(links) {
					fmt.Println(b)
				}
			}
			return nil
		}

		cat, err := fetchCatalog(httpClient)
		if err != nil {
			return err
		}
		for _, r := range cat.Records {
			fmt.Printf("%s\t%s\t%s\t%s\n",
				r.Build, r.OperatingSystem, r.PatchKey(), r.ReleaseDate.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().Bool("previews", false, "Print preview build numbers instead (diagnostic)")
	catalogCmd.Flags().Bool("out-of-band", false, "Print out-of-band build numbers instead (diagnostic)")
}
