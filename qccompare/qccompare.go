// Package qccompare collects per sample QC reports produced for the
// same sequencing runs on GRCh37 and GRCh38, joins them by sample and
// reports any metrics that disagree between the two builds.
package qccompare

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/eastglh/dias-toolkit/dxpy"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

type Config struct {
	Assay            string     `json:"assay"`
	SearchTerm       string     `json:"search_term"`
	NumberOfProjects int        `json:"number_of_projects"`
	Filename         string     `json:"filename"`
	ColumnToCompare  string     `json:"column_to_compare"`
	SampleColumn     string     `json:"sample_column"`
	VariablesToPlot  [][]string `json:"variables_to_plot"`
}

// ReadConfig loads and validates the JSON comparison config.
func ReadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	for key, value := range map[string]string{
		"assay":             cfg.Assay,
		"search_term":       cfg.SearchTerm,
		"filename":          cfg.Filename,
		"column_to_compare": cfg.ColumnToCompare,
		"sample_column":     cfg.SampleColumn,
	} {
		if value == "" {
			return Config{}, fmt.Errorf("config %s is missing %s", path, key)
		}
	}
	return cfg, nil
}

var runNameRegex = regexp.MustCompile(`\d{6}_[A-Za-z0-9]+_\d{4}_[A-Z0-9]+`)

// runNameFromProject extracts the sequencing run name from a project
// name.
func runNameFromProject(projectName string) (string, error) {
	match := runNameRegex.FindString(projectName)
	if match == "" {
		return "", fmt.Errorf("no sequencing run name in project %q", projectName)
	}
	return match, nil
}

// Run drives the whole comparison, writing TSVs and discrepancy plots
// into workDir.
func Run(ctx context.Context, client *dxpy.Client, cfg Config, workDir string) error {
	b38Projects, err := client.FindProjects(cfg.SearchTerm, "", "")
	if err != nil {
		return err
	}
	if len(b38Projects) == 0 {
		return fmt.Errorf("no projects match %q", cfg.SearchTerm)
	}
	sort.Slice(b38Projects, func(i, j int) bool { return b38Projects[i].Name < b38Projects[j].Name })
	if cfg.NumberOfProjects > 0 && len(b38Projects) > cfg.NumberOfProjects {
		b38Projects = b38Projects[len(b38Projects)-cfg.NumberOfProjects:]
	}
	fmt.Printf("Found %d %s GRCh38 projects:\n", len(b38Projects), cfg.Assay)
	for _, proj := range b38Projects {
		fmt.Println(proj.Name)
	}

	b37Files, b38Files, err := collectFiles(client, b38Projects, cfg)
	if err != nil {
		return err
	}

	archived := notLive(append(append([]dxpy.DataObject{}, b37Files...), b38Files...))
	if len(archived) > 0 {
		if err := requestUnarchive(client, archived); err != nil {
			return err
		}
		fmt.Printf("%d files are archived; unarchiving was requested.\n"+
			"Re-run once files are unarchived.\n", len(archived))
		return nil
	}

	b37DF, err := readReports(client, b37Files, filepath.Join(workDir, "b37"))
	if err != nil {
		return err
	}
	b38DF, err := readReports(client, b38Files, filepath.Join(workDir, "b38"))
	if err != nil {
		return err
	}

	joined, err := joinBuilds(b37DF, b38DF, cfg.SampleColumn)
	if err != nil {
		return err
	}
	records := joined.Records()

	resultsPath := filepath.Join(workDir, cfg.Assay+"_all_results.tsv")
	if err := writeTSV(resultsPath, records); err != nil {
		return err
	}
	fmt.Printf("There are %d samples found for %s\n", len(records)-1, cfg.Assay)

	mismatches, err := mismatchRecords(records, cfg.ColumnToCompare)
	if err != nil {
		return err
	}
	fmt.Printf("There are %d samples with mismatches in %s between GRCh37 and GRCh38\n",
		len(mismatches)-1, cfg.ColumnToCompare)

	mismatchPath := filepath.Join(workDir, cfg.Assay+"_all_mismatches.tsv")
	if err := writeTSV(mismatchPath, mismatches); err != nil {
		return err
	}

	if len(mismatches) <= 1 {
		return nil
	}

	summarizeDeltas(mismatches, cfg.ColumnToCompare)

	if len(cfg.VariablesToPlot) == 0 {
		fmt.Println("No variables to plot in config file")
		return nil
	}
	for i, variables := range cfg.VariablesToPlot {
		plotPath := filepath.Join(workDir, fmt.Sprintf("%s_discrepancies_%d.html", cfg.Assay, i))
		if err := writeDiscrepancyPage(mismatches, variables, cfg.SampleColumn, plotPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s ..\n", plotPath)
	}
	return nil
}

// collectFiles finds the QC report in each GRCh38 project and in its
// sibling GRCh37 project for the same sequencing run.
func collectFiles(client *dxpy.Client, b38Projects []dxpy.Project, cfg Config) (b37Files, b38Files []dxpy.DataObject, err error) {
	for _, proj := range b38Projects {
		files, err := client.FindDataObjects(proj.ID, cfg.Filename)
		if err != nil {
			return nil, nil, err
		}
		b38Files = append(b38Files, files...)

		runName, err := runNameFromProject(proj.Name)
		if err != nil {
			return nil, nil, err
		}
		b37Projects, err := client.FindProjects(fmt.Sprintf("002_%s_%s*", runName, cfg.Assay), "", "")
		if err != nil {
			return nil, nil, err
		}
		if len(b37Projects) == 0 {
			return nil, nil, fmt.Errorf("no GRCh37 project found for run %s", runName)
		}
		sort.Slice(b37Projects, func(i, j int) bool { return b37Projects[i].Name < b37Projects[j].Name })

		files, err = client.FindDataObjects(b37Projects[0].ID, cfg.Filename)
		if err != nil {
			return nil, nil, err
		}
		b37Files = append(b37Files, files...)
	}
	return b37Files, b38Files, nil
}

func notLive(files []dxpy.DataObject) []dxpy.DataObject {
	var archived []dxpy.DataObject
	for _, file := range files {
		if file.ArchivalState != "" && file.ArchivalState != "live" {
			archived = append(archived, file)
		}
	}
	return archived
}

func requestUnarchive(client *dxpy.Client, archived []dxpy.DataObject) error {
	byProject := make(map[string][]string)
	for _, file := range archived {
		byProject[file.Project] = append(byProject[file.Project], file.ID)
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

// readReports downloads each report into a per project directory and
// concatenates them into one dataframe with a project column.
func readReports(client *dxpy.Client, files []dxpy.DataObject, destDir string) (dataframe.DataFrame, error) {
	var combined dataframe.DataFrame
	for i, file := range files {
		projectDir := filepath.Join(destDir, file.Project)
		if err := os.MkdirAll(projectDir, 0755); err != nil {
			return dataframe.DataFrame{}, err
		}
		if err := client.Download(file.Project, file.ID, projectDir); err != nil {
			return dataframe.DataFrame{}, err
		}

		reportFile, err := os.Open(filepath.Join(projectDir, file.Name))
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("opening downloaded report: %w", err)
		}
		df := dataframe.ReadCSV(reportFile, dataframe.WithDelimiter('\t'), dataframe.HasHeader(true))
		reportFile.Close()
		if df.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("reading report %s: %w", file.Name, df.Err)
		}

		projects := make([]string, df.Nrow())
		for j := range projects {
			projects[j] = file.Project
		}
		df = df.Mutate(series.New(projects, series.String, "project"))
		if df.Err != nil {
			return dataframe.DataFrame{}, df.Err
		}

		if i == 0 {
			combined = df
		} else {
			combined = combined.RBind(df)
			if combined.Err != nil {
				return dataframe.DataFrame{}, fmt.Errorf("combining reports: %w", combined.Err)
			}
		}
	}
	if combined.Nrow() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no report rows found")
	}
	return combined, nil
}

// joinBuilds suffixes every non key column with its genome build and
// joins the two frames on the sample column, sample column first.
func joinBuilds(b37DF, b38DF dataframe.DataFrame, sampleCol string) (dataframe.DataFrame, error) {
	suffix := func(df dataframe.DataFrame, build string) dataframe.DataFrame {
		for _, name := range df.Names() {
			if name == sampleCol {
				continue
			}
			df = df.Rename(strings.TrimSpace(name)+"_"+build, name)
		}
		return df
	}
	b37DF = suffix(b37DF, "GRCh37")
	b38DF = suffix(b38DF, "GRCh38")

	joined := b37DF.InnerJoin(b38DF, sampleCol)
	if joined.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("joining GRCh37 and GRCh38 results: %w", joined.Err)
	}

	ordered := []string{}
	for _, name := range joined.Names() {
		if name != sampleCol {
			ordered = append(ordered, name)
		}
	}
	sort.Strings(ordered)
	joined = joined.Select(append([]string{sampleCol}, ordered...))
	if joined.Err != nil {
		return dataframe.DataFrame{}, joined.Err
	}
	return joined, nil
}

// mismatchRecords returns the header plus every row where the compared
// column differs between builds.
func mismatchRecords(records [][]string, column string) ([][]string, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no joined results")
	}
	header := records[0]
	b37Idx := slices.Index(header, column+"_GRCh37")
	b38Idx := slices.Index(header, column+"_GRCh38")
	if b37Idx < 0 || b38Idx < 0 {
		return nil, fmt.Errorf("column %s is not present for both builds", column)
	}

	mismatches := [][]string{header}
	for _, row := range records[1:] {
		if row[b37Idx] != row[b38Idx] {
			mismatches = append(mismatches, row)
		}
	}
	return mismatches, nil
}

// summarizeDeltas prints mean and quartiles of GRCh38 minus GRCh37 for
// the compared column when it is numeric.
func summarizeDeltas(mismatches [][]string, column string) {
	header := mismatches[0]
	b37Idx := slices.Index(header, column+"_GRCh37")
	b38Idx := slices.Index(header, column+"_GRCh38")

	var deltas []float64
	for _, row := range mismatches[1:] {
		b37Val, err37 := strconv.ParseFloat(row[b37Idx], 64)
		b38Val, err38 := strconv.ParseFloat(row[b38Idx], 64)
		if err37 != nil || err38 != nil {
			continue
		}
		deltas = append(deltas, b38Val-b37Val)
	}
	if len(deltas) == 0 {
		return
	}

	mean := stat.Mean(deltas, nil)
	sort.Float64s(deltas)
	q1 := stat.Quantile(0.25, stat.Empirical, deltas, nil)
	median := stat.Quantile(0.5, stat.Empirical, deltas, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, deltas, nil)
	fmt.Printf("%s delta (GRCh38 - GRCh37): mean %.4f, q1 %.4f, median %.4f, q3 %.4f\n",
		column, mean, q1, median, q3)
}

func writeTSV(path string, records [][]string) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer outFile.Close()

	writer := csv.NewWriter(outFile)
	writer.Comma = '\t'
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
