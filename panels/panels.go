// Package panels covers small panel file chores: adding track headers
// to BED files, building archive paths for issued reports and checking
// whether those paths exist on disk.
package panels

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const clingenBase = `/appdata/clingen/cg/Regional Genetics Laboratories/Molecular Genetics/Data archive/Sequencing HT/`

// AddBedHeader copies a BED file, prepending a track line that names
// the panel. Every data line must have at least three tab separated
// fields with numeric start < end. Line numbers in errors are 1-based.
func AddBedHeader(inPath, outPath, panelName string) error {
	inFile, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening BED file: %w", err)
	}
	defer inFile.Close()

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output BED file: %w", err)
	}
	defer outFile.Close()

	writer := bufio.NewWriter(outFile)
	if _, err := fmt.Fprintf(writer, "track name=%q description=%q\n", panelName, panelName); err != nil {
		return err
	}

	scanner := bufio.NewScanner(inFile)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "track") {
			return fmt.Errorf("line %d: input already has a track header", lineNum)
		}
		if strings.HasPrefix(line, "#") {
			if _, err := fmt.Fprintln(writer, line); err != nil {
				return err
			}
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return fmt.Errorf("line %d: expected at least 3 tab separated fields, got %d", lineNum, len(fields))
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: start %q is not numeric", lineNum, fields[1])
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: end %q is not numeric", lineNum, fields[2])
		}
		if start >= end {
			return fmt.Errorf("line %d: start %d is not before end %d", lineNum, start, end)
		}

		if _, err := fmt.Fprintln(writer, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return writer.Flush()
}

// BuildReportPath constructs the archive path for an issued report.
// CEN runs live under a Run folders subdirectory with an escaped
// space; WES runs sit directly under the assay directory.
func BuildReportPath(filename, assay, run string) (string, error) {
	if run == "" {
		return "", fmt.Errorf("run name is empty for %s", filename)
	}
	runWithoutPrefix := strings.TrimPrefix(run, "002_")

	switch assay {
	case "CEN":
		return clingenBase + assay + `/Run\ folders/` + runWithoutPrefix + "/" + filename, nil
	case "WES":
		return clingenBase + assay + "/" + runWithoutPrefix + "/" + filename, nil
	default:
		return "", fmt.Errorf("unknown assay %q for %s", assay, filename)
	}
}

// BuildReportPaths reads a CSV with file_name, assay and run columns
// and writes it back out with an added path column.
func BuildReportPaths(csvPath, outputPath string) error {
	csvFile, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", csvPath, err)
	}
	defer csvFile.Close()

	df := dataframe.ReadCSV(csvFile, dataframe.HasHeader(true))
	if df.Err != nil {
		return fmt.Errorf("reading %s: %w", csvPath, df.Err)
	}

	names := df.Names()
	for _, required := range []string{"file_name", "assay", "run"} {
		found := false
		for _, name := range names {
			if name == required {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s does not contain a %s column", csvPath, required)
		}
	}

	fileNames := df.Col("file_name").Records()
	assays := df.Col("assay").Records()
	runs := df.Col("run").Records()

	paths := make([]string, len(fileNames))
	for i := range fileNames {
		path, err := BuildReportPath(fileNames[i], assays[i], runs[i])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		paths[i] = path
	}

	df = df.Mutate(series.New(paths, series.String, "path"))
	if df.Err != nil {
		return df.Err
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer outFile.Close()
	if err := df.WriteCSV(outFile); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	fmt.Printf("Wrote report paths for %d rows to %s ..\n", len(paths), outputPath)
	return nil
}

// CheckPaths reads a CSV with a path column and appends file_exists
// and directory_exists columns. When outputPath is empty the result is
// only printed.
func CheckPaths(csvPath, outputPath string) (dataframe.DataFrame, error) {
	csvFile, err := os.Open(csvPath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("opening %s: %w", csvPath, err)
	}
	defer csvFile.Close()

	df := dataframe.ReadCSV(csvFile, dataframe.HasHeader(true))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("reading %s: %w", csvPath, df.Err)
	}

	names := df.Names()
	hasPath := false
	for _, name := range names {
		if name == "path" {
			hasPath = true
			break
		}
	}
	if !hasPath {
		return dataframe.DataFrame{}, fmt.Errorf("%s does not contain a path column", csvPath)
	}

	paths := df.Col("path").Records()
	fileExists := make([]bool, len(paths))
	dirExists := make([]bool, len(paths))
	for i, path := range paths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileExists[i] = true
		}
		if info, err := os.Stat(filepath.Dir(path)); err == nil && info.IsDir() {
			dirExists[i] = true
		}
	}

	df = df.Mutate(series.New(fileExists, series.Bool, "file_exists"))
	df = df.Mutate(series.New(dirExists, series.Bool, "directory_exists"))
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}

	fmt.Println(df.Select([]string{"path", "file_exists", "directory_exists"}))

	if outputPath != "" {
		outFile, err := os.Create(outputPath)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("creating %s: %w", outputPath, err)
		}
		defer outFile.Close()
		if err := df.WriteCSV(outFile); err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("writing %s: %w", outputPath, err)
		}
		fmt.Printf("Results saved to %s\n", outputPath)
	}
	return df, nil
}
