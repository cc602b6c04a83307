/*
Copyright © 2025 East GLH Bioinformatics
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/eastglh/dias-toolkit/dxpy"
	"github.com/eastglh/dias-toolkit/qccompare"
	"github.com/eastglh/dias-toolkit/utils"
	"github.com/spf13/cobra"
)

// compareBuildsCmd represents the compareBuilds command
var compareBuildsCmd = &cobra.Command{
	Use:   "compareBuilds",
	Short: "Compares QC metrics between GRCh37 and GRCh38 runs",
	Long: `Finds the QC report for each GRCh38 run project and for its sibling
GRCh37 project, joins them by sample and writes a table of all results,
a table of mismatching samples and scatter plots of the discrepancies.

The JSON config must provide assay, search_term, filename,
column_to_compare and sample_column.`,
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile == "" {
			fmt.Println("You must provide a JSON config file with --config")
			return
		}
		outDir, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}

		cfg, err := qccompare.ReadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}

		if err := utils.CheckDeps("dx"); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}

		client := dxpy.NewClient(utils.ExecRunner{})
		if err := qccompare.Run(context.Background(), client, cfg, outDir); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(compareBuildsCmd)
	compareBuildsCmd.Flags().StringP("out", "o", ".", "directory for downloaded reports, tables and plots")
}
