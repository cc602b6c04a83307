/*
Copyright © 2025 East GLH Bioinformatics
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dias-toolkit",
	Short: "Operational tooling for the clinical genomics service",
	Long: `A toolkit of operational tasks for the clinical genomics service:

1.	findVcfs: locate single-sample VCFs across run projects and build a merge manifest
2.	mergeVcfs: download, normalize, merge and annotate manifest VCFs, then upload the result
3.	compareBuilds: compare QC metrics between GRCh37 and GRCh38 runs
4.	bedHeader: add a track header to a panel BED file
5.	reportPaths: build and check archive paths for issued reports
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file ")
}
