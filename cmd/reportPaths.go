/*
Copyright © 2025 East GLH Bioinformatics
*/
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/eastglh/dias-toolkit/panels"
	"github.com/spf13/cobra"
)

// reportPathsCmd represents the reportPaths command
var reportPathsCmd = &cobra.Command{
	Use:   "reportPaths <reports.csv>",
	Short: "Builds and checks archive paths for issued reports",
	Long: `Reads a CSV of issued reports (file_name, assay, run columns), adds
the archive path for each report and writes the result. With --check
the paths are checked for existence instead, which requires the CSV to
have a path column.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		csvPath := args[0]

		outPath, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}
		check, cErr := cmd.Flags().GetBool("check")
		if cErr != nil {
			log.Fatalf("Error getting check flag: %v", cErr)
		}

		if check {
			if _, err := panels.CheckPaths(csvPath, outPath); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if outPath == "" {
			outPath = "all_data.csv"
		}
		if err := panels.BuildReportPaths(csvPath, outPath); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportPathsCmd)
	reportPathsCmd.Flags().StringP("out", "o", "", "output CSV path")
	reportPathsCmd.Flags().Bool("check", false, "check existing path column instead of building paths")
}
