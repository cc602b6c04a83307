/*
Copyright © 2025 East GLH Bioinformatics
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/eastglh/dias-toolkit/dxpy"
	"github.com/eastglh/dias-toolkit/mergevcf"
	"github.com/eastglh/dias-toolkit/utils"
	"github.com/spf13/cobra"
)

// mergeVcfsCmd represents the mergeVcfs command
var mergeVcfsCmd = &cobra.Command{
	Use:   "mergeVcfs <manifest> <reference>",
	Short: "Merges manifest VCFs into one annotated multi-sample VCF",
	Long: `Runs the following pipeline:

1. Download every VCF listed in the manifest
2. bcftools norm each VCF against the reference
3. bcftools merge into a single multi-sample VCF
4. Recompute cohort INFO tags, sort, compress and index
5. Upload the final VCF and its index`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		manifestPath := args[0]
		referencePath := args[1]

		runID, rErr := cmd.Flags().GetString("run-id")
		if rErr != nil {
			log.Fatalf("Error getting run-id flag: %v", rErr)
		}
		outDir, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}
		workspace, wErr := cmd.Flags().GetString("workspace")
		if wErr != nil {
			log.Fatalf("Error getting workspace flag: %v", wErr)
		}
		jobs, jErr := cmd.Flags().GetInt("jobs")
		if jErr != nil {
			log.Fatalf("Error getting jobs flag: %v", jErr)
		}
		projectCol, pErr := cmd.Flags().GetInt("project-col")
		if pErr != nil {
			log.Fatalf("Error getting project-col flag: %v", pErr)
		}
		fileCol, fErr := cmd.Flags().GetInt("file-col")
		if fErr != nil {
			log.Fatalf("Error getting file-col flag: %v", fErr)
		}
		destProject, dErr := cmd.Flags().GetString("dest-project")
		if dErr != nil {
			log.Fatalf("Error getting dest-project flag: %v", dErr)
		}
		destFolder, dfErr := cmd.Flags().GetString("dest-folder")
		if dfErr != nil {
			log.Fatalf("Error getting dest-folder flag: %v", dfErr)
		}

		if runID == "" {
			runID = os.Getenv("DX_JOB_ID")
		}
		if runID == "" {
			runID = strings.TrimSuffix(filepath.Base(manifestPath), filepath.Ext(manifestPath))
		}

		if err := utils.CheckDeps("dx", "bcftools", "tabix"); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}

		runner := utils.ExecRunner{}
		pipeline := mergevcf.NewPipeline(mergevcf.RunConfig{
			ManifestPath:  manifestPath,
			ReferencePath: referencePath,
			RunID:         runID,
			OutputDir:     outDir,
			WorkspaceDir:  workspace,
			ProjectCol:    projectCol,
			FileCol:       fileCol,
			Jobs:          jobs,
			DestProject:   destProject,
			DestFolder:    destFolder,
		}, dxpy.NewClient(runner), runner)

		if err := pipeline.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mergeVcfsCmd)
	mergeVcfsCmd.Flags().String("run-id", "", "identifier used in output file names (defaults to DX_JOB_ID, then the manifest name)")
	mergeVcfsCmd.Flags().StringP("out", "o", ".", "output directory for run workspaces")
	mergeVcfsCmd.Flags().String("workspace", "", "reuse an existing run workspace to resume a failed run")
	mergeVcfsCmd.Flags().IntP("jobs", "j", 0, "maximum parallel downloads and normalizations (default: number of CPUs)")
	mergeVcfsCmd.Flags().Int("project-col", 3, "1-based manifest column holding the project ID")
	mergeVcfsCmd.Flags().Int("file-col", 4, "1-based manifest column holding the file ID")
	mergeVcfsCmd.Flags().String("dest-project", "", "project to upload the final VCF to")
	mergeVcfsCmd.Flags().String("dest-folder", "/", "folder to upload the final VCF to")
	_ = mergeVcfsCmd.MarkFlagRequired("dest-project")
}
