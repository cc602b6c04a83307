// Package discovery finds single sample VCFs across sequencing run
// projects and writes the manifest consumed by the merge pipeline.
// Control samples, validation samples, QC failures and superseded
// reruns are filtered out along the way.
package discovery

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/eastglh/dias-toolkit/dxpy"
	"github.com/eastglh/dias-toolkit/manifest"
	"github.com/go-gota/gota/dataframe"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const defaultFilePattern = "*_markdup_recalibrated_Haplotyper.vcf.gz"

type Config struct {
	SearchTerm    string
	Start         string
	End           string
	FilePattern   string
	QCStatusPath  string
	OutfilePrefix string
	Jobs          int
}

// Candidate is one VCF found in a run project, keyed by its sample ID.
type Candidate struct {
	Sample        string
	Project       string
	File          string
	Name          string
	Created       int64
	ArchivalState string
}

// Run searches the platform and writes either a merge manifest or,
// when archived files block the merge, an unarchive request list.
func Run(ctx context.Context, client *dxpy.Client, cfg Config) error {
	if cfg.FilePattern == "" {
		cfg.FilePattern = defaultFilePattern
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = 8
	}

	projects, err := client.FindProjects(cfg.SearchTerm, cfg.Start, cfg.End)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		return fmt.Errorf("no projects match %q", cfg.SearchTerm)
	}
	fmt.Printf("Found %d projects matching %s ..\n", len(projects), cfg.SearchTerm)

	candidates, err := collectCandidates(ctx, client, projects, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d VCFs matching %s ..\n", len(candidates), cfg.FilePattern)

	candidates, controls := dropControls(candidates)
	candidates, validation := splitValidation(candidates)
	if len(validation) > 0 {
		validationPath := cfg.OutfilePrefix + "_validation_samples.csv"
		if err := writeCandidates(validationPath, validation); err != nil {
			return err
		}
		fmt.Printf("Wrote %d validation samples to %s ..\n", len(validation), validationPath)
	}

	var failed []string
	if cfg.QCStatusPath != "" {
		records, err := loadQCStatus(cfg.QCStatusPath)
		if err != nil {
			return err
		}
		failed = manifest.FailedSamples(records)
		candidates = dropFailed(candidates, failed)
	}

	candidates = latestPerSample(candidates)

	fmt.Printf("Kept %d samples after excluding %d controls and %d QC failures ..\n",
		len(candidates), len(controls), len(failed))

	archived := notLive(candidates)
	if len(archived) > 0 {
		unarchivePath := cfg.OutfilePrefix + "_to_unarchive.txt"
		if err := writeCandidates(unarchivePath, archived); err != nil {
			return err
		}
		if err := requestUnarchive(client, archived); err != nil {
			return err
		}
		fmt.Printf("%d files are archived; unarchiving was requested.\n"+
			"Re-run once unarchiving finishes to produce the manifest (see %s).\n",
			len(archived), unarchivePath)
		return nil
	}

	manifestPath := cfg.OutfilePrefix + "_files_to_merge.txt"
	if err := writeManifest(manifestPath, candidates); err != nil {
		return err
	}
	fmt.Printf("Wrote manifest of %d files to %s ..\n", len(candidates), manifestPath)
	return nil
}

// collectCandidates fans FindDataObjects out over the projects, Jobs
// at a time, writing into an indexed slice to keep project order.
func collectCandidates(ctx context.Context, client *dxpy.Client, projects []dxpy.Project, cfg Config) ([]Candidate, error) {
	perProject := make([][]Candidate, len(projects))

	group, gCtx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Jobs)
	for i, project := range projects {
		i, project := i, project
		group.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			objects, err := client.FindDataObjects(project.ID, cfg.FilePattern)
			if err != nil {
				return err
			}
			for _, obj := range objects {
				perProject[i] = append(perProject[i], Candidate{
					Sample:        manifest.SampleID(obj.Name),
					Project:       project.ID,
					File:          obj.ID,
					Name:          obj.Name,
					Created:       obj.Created,
					ArchivalState: obj.ArchivalState,
				})
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, found := range perProject {
		candidates = append(candidates, found...)
	}
	return candidates, nil
}

// dropControls removes control samples, identified by a Q in the
// sample ID.
func dropControls(candidates []Candidate) (kept, controls []Candidate) {
	for _, c := range candidates {
		if strings.Contains(c.Sample, "Q") {
			controls = append(controls, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, controls
}

func splitValidation(candidates []Candidate) (kept, validation []Candidate) {
	for _, c := range candidates {
		if manifest.IsValidationSample(c.Sample) {
			validation = append(validation, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, validation
}

func dropFailed(candidates []Candidate, failed []string) []Candidate {
	failedSet := make(map[string]struct{}, len(failed))
	for _, sample := range failed {
		failedSet[sample] = struct{}{}
	}
	var kept []Candidate
	for _, c := range candidates {
		if _, ok := failedSet[c.Sample]; ok {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// latestPerSample keeps the newest VCF per sample so reruns supersede
// earlier runs, returning candidates sorted by sample ID.
func latestPerSample(candidates []Candidate) []Candidate {
	latest := make(map[string]Candidate)
	for _, c := range candidates {
		prev, ok := latest[c.Sample]
		if !ok || c.Created > prev.Created {
			latest[c.Sample] = c
		}
	}
	samples := maps.Keys(latest)
	slices.Sort(samples)

	deduped := make([]Candidate, 0, len(samples))
	for _, sample := range samples {
		deduped = append(deduped, latest[sample])
	}
	return deduped
}

func notLive(candidates []Candidate) []Candidate {
	var archived []Candidate
	for _, c := range candidates {
		if c.ArchivalState != "" && c.ArchivalState != "live" {
			archived = append(archived, c)
		}
	}
	return archived
}

// requestUnarchive batches unarchive requests per project.
func requestUnarchive(client *dxpy.Client, archived []Candidate) error {
	byProject := make(map[string][]string)
	for _, c := range archived {
		byProject[c.Project] = append(byProject[c.Project], c.File)
	}
	projects := maps.Keys(byProject)
	slices.Sort(projects)
	for _, project := range projects {
		if err := client.Unarchive(project, byProject[project]); err != nil {
			return err
		}
	}
	return nil
}

// loadQCStatus reads a QC status export with Sample and QC_status
// columns. A Created column is used for recency when present.
func loadQCStatus(path string) ([]manifest.QCRecord, error) {
	qcFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening QC status file: %w", err)
	}
	defer qcFile.Close()

	df := dataframe.ReadCSV(qcFile, dataframe.WithDelimiter('\t'), dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, fmt.Errorf("reading QC status file: %w", df.Err)
	}

	names := df.Names()
	for _, required := range []string{"Sample", "QC_status"} {
		if !slices.Contains(names, required) {
			return nil, fmt.Errorf("QC status file is missing column %s (has %s)",
				required, strings.Join(names, ", "))
		}
	}

	samples := df.Col("Sample").Records()
	statuses := df.Col("QC_status").Records()
	var created []string
	if slices.Contains(names, "Created") {
		created = df.Col("Created").Records()
	}

	records := make([]manifest.QCRecord, len(samples))
	for i := range samples {
		rec := manifest.QCRecord{Sample: samples[i], Status: statuses[i], Created: int64(i)}
		if created != nil {
			if ts, err := strconv.ParseInt(created[i], 10, 64); err == nil {
				rec.Created = ts
			}
		}
		records[i] = rec
	}
	return records, nil
}

func writeCandidates(path string, candidates []Candidate) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer outFile.Close()

	sorted := append([]Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sample < sorted[j].Sample })

	writer := csv.NewWriter(outFile)
	writer.Comma = '\t'
	for _, c := range sorted {
		if err := writer.Write([]string{c.Sample, c.Project, c.File}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeManifest emits the merge manifest with 1-based row indices in
// the layout the merge pipeline expects.
func writeManifest(path string, candidates []Candidate) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer outFile.Close()

	writer := csv.NewWriter(outFile)
	writer.Comma = '\t'
	for i, c := range candidates {
		row := []string{strconv.Itoa(i + 1), c.Sample, c.Project, c.File}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
