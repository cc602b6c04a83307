/*
Copyright © 2025 East GLH Bioinformatics
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/eastglh/dias-toolkit/panels"
	"github.com/spf13/cobra"
)

// bedHeaderCmd represents the bedHeader command
var bedHeaderCmd = &cobra.Command{
	Use:   "bedHeader <panel.bed>",
	Short: "Adds a track header to a panel BED file",
	Long: `Validates a panel BED file and writes a copy with a track header line
naming the panel. Every data line must have at least chrom, start and
end with numeric start < end.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bedPath := args[0]

		panelName, pErr := cmd.Flags().GetString("panel-name")
		if pErr != nil {
			log.Fatalf("Error getting panel-name flag: %v", pErr)
		}
		outPath, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}

		if panelName == "" {
			fmt.Println("You must provide a panel name")
			return
		}
		if outPath == "" {
			outPath = strings.TrimSuffix(bedPath, ".bed") + "_with_header.bed"
		}

		if err := panels.AddBedHeader(bedPath, outPath, panelName); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s ..\n", outPath)
	},
}

func init() {
	rootCmd.AddCommand(bedHeaderCmd)
	bedHeaderCmd.Flags().StringP("panel-name", "p", "", "name of the panel for the track line")
	bedHeaderCmd.Flags().StringP("out", "o", "", "output BED path (default: <input>_with_header.bed)")
}
