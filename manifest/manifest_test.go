package manifest

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := "1\t123456789-GM1234567\tproject-AAA111\tfile-BBB222\n" +
		"2\t123456790-GM1234568\tproject-AAA111\tfile-CCC333\n"
	entries, err := Parse(strings.NewReader(input), 3, 4)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Project != "project-AAA111" || entries[0].File != "file-BBB222" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].File != "file-CCC333" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestParseSkipsEmptyLines(t *testing.T) {
	input := "\n1\ts1\tproject-AAA\tfile-BBB\n\n\n"
	entries, err := Parse(strings.NewReader(input), 3, 4)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestParseBadRows(t *testing.T) {
	cases := []struct {
		name  string
		input string
		line  int
	}{
		{"short row", "1\ts1\tproject-AAA\tfile-BBB\n2\ts2\tproject-CCC\n", 2},
		{"bad project prefix", "1\ts1\tbad-123\tfile-BBB\n", 1},
		{"bad file prefix", "1\ts1\tproject-AAA\tbad-123\n", 1},
		{"empty field", "1\ts1\t\tfile-BBB\n", 1},
		{"blank line offset", "\n\n1\ts1\tnope\tfile-BBB\n", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input), 3, 4)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if vErr.Line != tc.line {
				t.Errorf("expected error on line %d, got %d", tc.line, vErr.Line)
			}
		})
	}
}

func TestParseEmptyManifest(t *testing.T) {
	if _, err := Parse(strings.NewReader(""), 3, 4); err == nil {
		t.Fatal("expected error for empty manifest")
	}
}

func TestParseColumnIndices(t *testing.T) {
	input := "project-AAA\tfile-BBB\n"
	entries, err := Parse(strings.NewReader(input), 1, 2)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if entries[0].Project != "project-AAA" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if _, err := Parse(strings.NewReader(input), 0, 2); err == nil {
		t.Fatal("expected error for zero column index")
	}
}

func TestSampleID(t *testing.T) {
	got := SampleID("123456789-GM1234567-23NGCEN5-9526-F-99347387_markdup_recalibrated_Haplotyper.vcf.gz")
	if got != "123456789-GM1234567" {
		t.Errorf("unexpected sample ID %q", got)
	}
	if SampleID("nodash") != "nodash" {
		t.Errorf("expected passthrough for undelimited name")
	}
}

func TestIsValidationSample(t *testing.T) {
	cases := []struct {
		sample string
		want   bool
	}{
		{"123456789-GM1234567", false},
		{"X123456-GM123456", false},
		{"123456789-12345R6789", false},
		{"x123456-gm1234567", false},
		{"NA12878-NA12878", true},
		{"12345678-GM1234567", true},
		{"123456789-GM12345", true},
		{"Oncospan", true},
	}
	for _, tc := range cases {
		if got := IsValidationSample(tc.sample); got != tc.want {
			t.Errorf("IsValidationSample(%q) = %v, want %v", tc.sample, got, tc.want)
		}
	}
}

func TestLatestByCreation(t *testing.T) {
	records := []QCRecord{
		{Sample: "s1", Status: "FAIL", Created: 10},
		{Sample: "s1", Status: "PASS", Created: 20},
		{Sample: "s2", Status: "PASS", Created: 5},
	}
	latest := LatestByCreation(records)
	if latest["s1"].Status != "PASS" {
		t.Errorf("expected newest s1 record, got %+v", latest["s1"])
	}
	if len(latest) != 2 {
		t.Errorf("expected 2 samples, got %d", len(latest))
	}
}

func TestFailedSamples(t *testing.T) {
	records := []QCRecord{
		{Sample: "s3", Status: " fail ", Created: 1},
		{Sample: "s1", Status: "FAIL", Created: 1},
		{Sample: "s1", Status: "PASS", Created: 2},
		{Sample: "s2", Status: "Fail", Created: 1},
	}
	failed := FailedSamples(records)
	if len(failed) != 2 || failed[0] != "s2" || failed[1] != "s3" {
		t.Errorf("unexpected failed samples: %v", failed)
	}
}
