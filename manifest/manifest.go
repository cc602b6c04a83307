// Package manifest parses and validates the tab separated file lists
// that drive the merge pipeline, and classifies sample identifiers.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Entry is one file to merge, addressed by platform project and file IDs.
type Entry struct {
	Project string
	File    string
}

// ValidationError reports a malformed manifest row. Line numbers are
// 1-based so they match what an editor shows.
type ValidationError struct {
	Line   int
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s %q %s", e.Line, e.Field, e.Value, e.Reason)
}

var (
	projectIDRegex = regexp.MustCompile(`^project-[A-Za-z0-9]+$`)
	fileIDRegex    = regexp.MustCompile(`^file-[A-Za-z0-9]+$`)
)

// Parse reads a tab separated manifest and returns one Entry per row.
// projectCol and fileCol are 1-based column indices. Fully empty lines
// are skipped; any malformed row aborts the parse.
func Parse(r io.Reader, projectCol, fileCol int) ([]Entry, error) {
	if projectCol < 1 || fileCol < 1 {
		return nil, fmt.Errorf("column indices are 1-based, got project=%d file=%d", projectCol, fileCol)
	}

	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		need := projectCol
		if fileCol > need {
			need = fileCol
		}
		if len(fields) < need {
			return nil, &ValidationError{Line: lineNum, Field: "row", Value: line, Reason: fmt.Sprintf("has %d columns, need %d", len(fields), need)}
		}

		project := strings.TrimSpace(fields[projectCol-1])
		file := strings.TrimSpace(fields[fileCol-1])

		if project == "" {
			return nil, &ValidationError{Line: lineNum, Field: "project ID", Value: project, Reason: "is empty"}
		}
		if !projectIDRegex.MatchString(project) {
			return nil, &ValidationError{Line: lineNum, Field: "project ID", Value: project, Reason: "does not match project-<id>"}
		}
		if file == "" {
			return nil, &ValidationError{Line: lineNum, Field: "file ID", Value: file, Reason: "is empty"}
		}
		if !fileIDRegex.MatchString(file) {
			return nil, &ValidationError{Line: lineNum, Field: "file ID", Value: file, Reason: "does not match file-<id>"}
		}

		entries = append(entries, Entry{Project: project, File: file})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest contains no entries")
	}
	return entries, nil
}

// SampleID extracts the sample identifier from a platform file name,
// which is the first two dash separated fields (instrument-specimen).
func SampleID(fileName string) string {
	fields := strings.Split(fileName, "-")
	if len(fields) < 2 {
		return fileName
	}
	return fields[0] + "-" + fields[1]
}

var (
	instrumentRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\d{9}$`),
		regexp.MustCompile(`(?i)^X\d{6}$`),
	}
	specimenRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^GM\d{6,7}$`),
		regexp.MustCompile(`(?i)^\d{5}R\d{4}$`),
	}
)

// IsValidationSample reports whether a sample ID falls outside the
// instrument-specimen naming of live patient samples. Anything that
// does not match both halves is treated as a validation sample.
func IsValidationSample(sample string) bool {
	fields := strings.Split(sample, "-")
	if len(fields) < 2 {
		return true
	}
	instrumentOK := false
	for _, re := range instrumentRegexes {
		if re.MatchString(fields[0]) {
			instrumentOK = true
			break
		}
	}
	specimenOK := false
	for _, re := range specimenRegexes {
		if re.MatchString(fields[1]) {
			specimenOK = true
			break
		}
	}
	return !(instrumentOK && specimenOK)
}
