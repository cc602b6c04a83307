/*
Copyright © 2025 East GLH Bioinformatics
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/eastglh/dias-toolkit/discovery"
	"github.com/eastglh/dias-toolkit/dxpy"
	"github.com/eastglh/dias-toolkit/utils"
	"github.com/spf13/cobra"
)

// findVcfsCmd represents the findVcfs command
var findVcfsCmd = &cobra.Command{
	Use:   "findVcfs",
	Short: "Finds single-sample VCFs across run projects and writes a merge manifest",
	Long: `Searches run projects for single-sample VCFs and writes the manifest
consumed by mergeVcfs. Control samples, validation samples, QC failures
and superseded reruns are excluded. If any matching file is archived,
unarchiving is requested instead of writing a manifest.`,
	Run: func(cmd *cobra.Command, args []string) {
		searchTerm, sErr := cmd.Flags().GetString("search-term")
		if sErr != nil {
			log.Fatalf("Error getting search-term flag: %v", sErr)
		}
		start, stErr := cmd.Flags().GetString("start")
		if stErr != nil {
			log.Fatalf("Error getting start flag: %v", stErr)
		}
		end, eErr := cmd.Flags().GetString("end")
		if eErr != nil {
			log.Fatalf("Error getting end flag: %v", eErr)
		}
		filePattern, fErr := cmd.Flags().GetString("file-pattern")
		if fErr != nil {
			log.Fatalf("Error getting file-pattern flag: %v", fErr)
		}
		qcStatus, qErr := cmd.Flags().GetString("qc-status")
		if qErr != nil {
			log.Fatalf("Error getting qc-status flag: %v", qErr)
		}
		outfilePrefix, oErr := cmd.Flags().GetString("outfile-prefix")
		if oErr != nil {
			log.Fatalf("Error getting outfile-prefix flag: %v", oErr)
		}
		jobs, jErr := cmd.Flags().GetInt("jobs")
		if jErr != nil {
			log.Fatalf("Error getting jobs flag: %v", jErr)
		}

		cfg := discovery.Config{
			SearchTerm:    searchTerm,
			Start:         start,
			End:           end,
			FilePattern:   filePattern,
			QCStatusPath:  qcStatus,
			OutfilePrefix: outfilePrefix,
			Jobs:          jobs,
		}

		if cfgFile != "" {
			fileCfg, cErr := utils.ReadConfig(cfgFile)
			if cErr != nil {
				log.Fatalf("Error reading config file: %v", cErr)
			}
			if cfg.SearchTerm == "" {
				cfg.SearchTerm = fileCfg.SearchTerm
			}
			if cfg.Start == "" {
				cfg.Start = fileCfg.Start
			}
			if cfg.End == "" {
				cfg.End = fileCfg.End
			}
			if cfg.FilePattern == "" {
				cfg.FilePattern = fileCfg.FilePattern
			}
			if cfg.QCStatusPath == "" {
				cfg.QCStatusPath = fileCfg.QCStatus
			}
			if cfg.OutfilePrefix == "" {
				cfg.OutfilePrefix = fileCfg.OutfilePrefix
			}
			if cfg.Jobs == 0 {
				cfg.Jobs = fileCfg.Jobs
			}
		}

		if cfg.SearchTerm == "" {
			fmt.Println("You must provide a search term (or a config file with one)")
			return
		}
		if cfg.OutfilePrefix == "" {
			cfg.OutfilePrefix = "vcfs"
		}

		if err := utils.CheckDeps("dx"); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}

		client := dxpy.NewClient(utils.ExecRunner{})
		if err := discovery.Run(context.Background(), client, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(findVcfsCmd)
	findVcfsCmd.Flags().StringP("search-term", "s", "", "glob matching run project names, e.g 002_*_CEN")
	findVcfsCmd.Flags().String("start", "", "only include projects created after this date")
	findVcfsCmd.Flags().String("end", "", "only include projects created before this date")
	findVcfsCmd.Flags().String("file-pattern", "", "glob matching VCF file names")
	findVcfsCmd.Flags().String("qc-status", "", "path to a QC status TSV with Sample and QC_status columns")
	findVcfsCmd.Flags().String("outfile-prefix", "", "prefix for the manifest and report files")
	findVcfsCmd.Flags().IntP("jobs", "j", 0, "maximum parallel project searches")
}
