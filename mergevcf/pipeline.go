// Package mergevcf downloads a manifest of single sample VCFs,
// normalizes them against a reference, merges them into one cohort
// VCF, recomputes INFO tags and publishes the result.
package mergevcf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/eastglh/dias-toolkit/dxpy"
	"github.com/eastglh/dias-toolkit/manifest"
	"github.com/eastglh/dias-toolkit/utils"
	"golang.org/x/sync/errgroup"
)

// fillTags are the INFO tags recomputed across the merged cohort.
const fillTags = "AC,AN,NS,AF,MAF,AC_Hom,AC_Het,AC_Hemi"

type RunConfig struct {
	ManifestPath  string
	ReferencePath string
	RunID         string
	OutputDir     string
	WorkspaceDir  string
	ProjectCol    int
	FileCol       int
	Jobs          int
	DestProject   string
	DestFolder    string
}

type Pipeline struct {
	cfg    RunConfig
	client *dxpy.Client
	runner utils.Runner
	logger *slog.Logger

	done      map[string]struct{}
	workspace string
	inputDir  string
	normDir   string
}

func NewPipeline(cfg RunConfig, client *dxpy.Client, runner utils.Runner) *Pipeline {
	return &Pipeline{cfg: cfg, client: client, runner: runner}
}

// Run executes the whole pipeline. A rerun pointed at the same
// workspace replays the run log and skips completed stages.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.cfg.Jobs <= 0 {
		p.cfg.Jobs = runtime.NumCPU()
	}

	// Validate all inputs before touching the platform.
	if _, err := os.Stat(p.cfg.ReferencePath); err != nil {
		return fmt.Errorf("reference %s: %w", p.cfg.ReferencePath, err)
	}
	entries, err := p.loadManifest()
	if err != nil {
		return err
	}

	if p.cfg.WorkspaceDir != "" {
		p.workspace = p.cfg.WorkspaceDir
		for _, sub := range []string{"inputs", "norm"} {
			if err := os.MkdirAll(filepath.Join(p.workspace, sub), 0755); err != nil {
				return fmt.Errorf("creating run directory: %w", err)
			}
		}
	} else {
		p.workspace, err = createWorkspace(p.cfg.OutputDir)
		if err != nil {
			return err
		}
	}
	p.inputDir = filepath.Join(p.workspace, "inputs")
	p.normDir = filepath.Join(p.workspace, "norm")

	logPath := filepath.Join(p.workspace, "merge_vcf.log")
	logger, logFile, err := utils.NewRunLogger(logPath)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer logFile.Close()
	p.logger = logger

	p.done, err = utils.CompletedStages(logPath)
	if err != nil {
		return fmt.Errorf("replaying run log: %w", err)
	}

	if err := p.fetch(ctx, entries); err != nil {
		return err
	}
	if err := p.normalize(ctx); err != nil {
		return err
	}
	mergedPath, err := p.merge()
	if err != nil {
		return err
	}
	finalPath, err := p.annotate(mergedPath)
	if err != nil {
		return err
	}
	return p.publish(finalPath)
}

func (p *Pipeline) loadManifest() ([]manifest.Entry, error) {
	manifestFile, err := os.Open(p.cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer manifestFile.Close()

	entries, err := manifest.Parse(manifestFile, p.cfg.ProjectCol, p.cfg.FileCol)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", p.cfg.ManifestPath, err)
	}
	fmt.Printf("Manifest lists %d files to merge ..\n", len(entries))
	return entries, nil
}

func (p *Pipeline) stageDone(stage string) bool {
	_, ok := p.done[stage]
	if ok {
		p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "SKIPPED")
	}
	return ok
}

// fetch downloads every manifest entry into the workspace, Jobs at a
// time, stopping on the first failure.
func (p *Pipeline) fetch(ctx context.Context, entries []manifest.Entry) error {
	group, gCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Jobs)

	for _, entry := range entries {
		entry := entry
		stage := fmt.Sprintf("fetch:%s:%s", entry.Project, entry.File)
		if p.stageDone(stage) {
			continue
		}
		group.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "STARTED")
			if err := p.client.Download(entry.Project, entry.File, p.inputDir); err != nil {
				p.logger.Error("MERGE VCF", "STAGE", stage, "STATUS", "FAILED", "error", err.Error())
				return err
			}
			p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "COMPLETED")
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("fetching VCFs: %w", err)
	}
	return nil
}

// inputVCFs lists the downloaded VCFs in lexical order.
func (p *Pipeline) inputVCFs() ([]string, error) {
	vcfs, err := filepath.Glob(filepath.Join(p.inputDir, "*.vcf.gz"))
	if err != nil {
		return nil, err
	}
	if len(vcfs) == 0 {
		return nil, fmt.Errorf("no VCFs found in %s", p.inputDir)
	}
	sort.Strings(vcfs)
	return vcfs, nil
}

// normalize indexes each VCF, splits multiallelic sites and left
// aligns indels against the reference.
func (p *Pipeline) normalize(ctx context.Context) error {
	vcfs, err := p.inputVCFs()
	if err != nil {
		return err
	}

	group, gCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Jobs)

	for _, vcf := range vcfs {
		vcf := vcf
		base := filepath.Base(vcf)
		stage := "normalize:" + base
		if p.stageDone(stage) {
			continue
		}
		group.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "STARTED")
			normPath := filepath.Join(p.normDir, base)
			steps := [][]string{
				{"bcftools", "index", "-t", "-f", vcf},
				{"bcftools", "norm", "-m", "-any", "-f", p.cfg.ReferencePath, "-Oz", "-o", normPath, vcf},
				{"bcftools", "index", "-t", "-f", normPath},
			}
			for _, step := range steps {
				if err := p.runner.Run(step[0], step[1:]...); err != nil {
					p.logger.Error("MERGE VCF", "STAGE", stage, "STATUS", "FAILED", "error", err.Error())
					return fmt.Errorf("normalizing %s: %w", base, err)
				}
			}
			p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "COMPLETED")
			return nil
		})
	}
	return group.Wait()
}

// merge combines the normalized VCFs into a single file. Inputs are
// sorted lexically so the sample column order does not depend on
// directory enumeration.
func (p *Pipeline) merge() (string, error) {
	normVCFs, err := filepath.Glob(filepath.Join(p.normDir, "*.vcf.gz"))
	if err != nil {
		return "", err
	}
	if len(normVCFs) == 0 {
		return "", fmt.Errorf("no normalized VCFs found in %s", p.normDir)
	}
	sort.Strings(normVCFs)

	mergedPath := filepath.Join(p.workspace, fmt.Sprintf("merged_%s.vcf.gz", p.cfg.RunID))
	stage := "merge"
	if p.stageDone(stage) {
		return mergedPath, nil
	}
	p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "STARTED")

	var args []string
	if len(normVCFs) == 1 {
		// bcftools merge refuses a single input.
		args = []string{"view", "-Oz", "-o", mergedPath, normVCFs[0]}
	} else {
		args = append([]string{"merge", "-m", "none", "--missing-to-ref", "-Oz", "-o", mergedPath}, normVCFs...)
	}
	if err := p.runner.Run("bcftools", args...); err != nil {
		p.logger.Error("MERGE VCF", "STAGE", stage, "STATUS", "FAILED", "error", err.Error())
		return "", fmt.Errorf("merging %d VCFs: %w", len(normVCFs), err)
	}
	p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "COMPLETED")
	return mergedPath, nil
}

// annotate renormalizes the merged file, recomputes cohort INFO tags,
// sorts, compresses and indexes the final output.
func (p *Pipeline) annotate(mergedPath string) (string, error) {
	finalPath := filepath.Join(p.workspace, fmt.Sprintf("final_merged_%s.vcf.gz", p.cfg.RunID))
	stage := "annotate"
	if p.stageDone(stage) {
		return finalPath, nil
	}
	p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "STARTED")

	normPath := filepath.Join(p.workspace, fmt.Sprintf("merged_%s_norm.vcf.gz", p.cfg.RunID))
	taggedPath := filepath.Join(p.workspace, fmt.Sprintf("merged_%s_tagged.vcf.gz", p.cfg.RunID))
	steps := [][]string{
		{"bcftools", "norm", "-m", "-any", "-f", p.cfg.ReferencePath, "-Oz", "-o", normPath, mergedPath},
		{"bcftools", "+fill-tags", normPath, "-Oz", "-o", taggedPath, "--", "-t", fillTags},
		{"bcftools", "sort", "-Oz", "-o", finalPath, taggedPath},
		{"tabix", "-f", "-p", "vcf", finalPath},
	}
	for _, step := range steps {
		if err := p.runner.Run(step[0], step[1:]...); err != nil {
			p.logger.Error("MERGE VCF", "STAGE", stage, "STATUS", "FAILED", "error", err.Error())
			return "", fmt.Errorf("finalizing merged VCF: %w", err)
		}
	}

	if err := p.verifyContigOrder(finalPath); err != nil {
		p.logger.Error("MERGE VCF", "STAGE", stage, "STATUS", "FAILED", "error", err.Error())
		return "", err
	}

	p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "COMPLETED")
	return finalPath, nil
}

// verifyContigOrder checks that the final VCF's records follow the
// reference contig order.
func (p *Pipeline) verifyContigOrder(finalPath string) error {
	contigs, err := ReferenceContigs(p.cfg.ReferencePath)
	if err != nil {
		return err
	}
	rank := make(map[string]int, len(contigs))
	for i, contig := range contigs {
		rank[contig] = i
	}

	out, err := p.runner.Output("bcftools", "query", "-f", "%CHROM\n", finalPath)
	if err != nil {
		return fmt.Errorf("reading contigs from %s: %w", finalPath, err)
	}

	last := -1
	lastChrom := ""
	for _, chrom := range strings.Split(strings.TrimSpace(out), "\n") {
		if chrom == "" {
			continue
		}
		r, ok := rank[chrom]
		if !ok {
			return fmt.Errorf("contig %s in %s is not in the reference", chrom, finalPath)
		}
		if r < last {
			return fmt.Errorf("contig %s appears after %s, out of reference order", chrom, lastChrom)
		}
		if r > last {
			last = r
			lastChrom = chrom
		}
	}
	return nil
}

// publish uploads the final VCF and its index, then terminates the
// platform job when running as one.
func (p *Pipeline) publish(finalPath string) error {
	stage := "upload"
	if p.stageDone(stage) {
		return nil
	}
	p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "STARTED")

	fileID, err := p.client.Upload(finalPath, p.cfg.DestProject, p.cfg.DestFolder)
	if err != nil {
		p.logger.Error("MERGE VCF", "STAGE", stage, "STATUS", "FAILED", "error", err.Error())
		return err
	}
	fmt.Printf("Uploaded %s as %s ..\n", filepath.Base(finalPath), fileID)

	indexID, err := p.client.Upload(finalPath+".tbi", p.cfg.DestProject, p.cfg.DestFolder)
	if err != nil {
		p.logger.Error("MERGE VCF", "STAGE", stage, "STATUS", "FAILED", "error", err.Error())
		return fmt.Errorf("final VCF uploaded but its index was not: %w", err)
	}
	fmt.Printf("Uploaded %s as %s ..\n", filepath.Base(finalPath)+".tbi", indexID)

	p.logger.Info("MERGE VCF", "STAGE", stage, "STATUS", "COMPLETED")

	if strings.HasPrefix(p.cfg.RunID, "job-") {
		if err := p.client.TerminateJob(p.cfg.RunID); err != nil {
			return err
		}
	}
	return nil
}
