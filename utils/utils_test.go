package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.txt")
	content := `# merge run settings
SearchTerm: 002_*_CEN
Start: 2024-01-01
QCStatus: /data/qc_status.tsv
OutfilePrefix: cen
Jobs: 4

DestProject: project-AAA
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig returned error: %v", err)
	}
	if cfg.SearchTerm != "002_*_CEN" {
		t.Errorf("unexpected SearchTerm %q", cfg.SearchTerm)
	}
	if cfg.Start != "2024-01-01" || cfg.QCStatus != "/data/qc_status.tsv" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", cfg.Jobs)
	}
	if cfg.DestProject != "project-AAA" {
		t.Errorf("unexpected DestProject %q", cfg.DestProject)
	}
	if cfg.End != "" {
		t.Errorf("End should be empty, got %q", cfg.End)
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	if _, err := ReadConfig(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestCompletedStages(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	logger, logFile, err := NewRunLogger(logPath)
	if err != nil {
		t.Fatalf("NewRunLogger returned error: %v", err)
	}
	logger.Info("MERGE VCF", "STAGE", "fetch:project-A:file-X", "STATUS", "STARTED")
	logger.Info("MERGE VCF", "STAGE", "fetch:project-A:file-X", "STATUS", "COMPLETED")
	logger.Info("MERGE VCF", "STAGE", "merge", "STATUS", "STARTED")
	logger.Error("MERGE VCF", "STAGE", "merge", "STATUS", "FAILED", "error", "boom")
	logFile.Close()

	completed, err := CompletedStages(logPath)
	if err != nil {
		t.Fatalf("CompletedStages returned error: %v", err)
	}
	if _, ok := completed["fetch:project-A:file-X"]; !ok {
		t.Error("completed fetch stage missing")
	}
	if _, ok := completed["merge"]; ok {
		t.Error("failed merge stage should not count as completed")
	}
	if len(completed) != 1 {
		t.Errorf("expected 1 completed stage, got %d", len(completed))
	}
}

func TestCompletedStagesNoLog(t *testing.T) {
	completed, err := CompletedStages(filepath.Join(t.TempDir(), "absent.log"))
	if err != nil {
		t.Fatalf("CompletedStages returned error: %v", err)
	}
	if len(completed) != 0 {
		t.Errorf("expected no completed stages, got %v", completed)
	}
}

func TestCompletedStagesSkipsMalformedLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	content := "not json\n" +
		`{"STAGE":"annotate","STATUS":"COMPLETED"}` + "\n" +
		`{"STATUS":"COMPLETED"}` + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	completed, err := CompletedStages(logPath)
	if err != nil {
		t.Fatalf("CompletedStages returned error: %v", err)
	}
	if _, ok := completed["annotate"]; !ok || len(completed) != 1 {
		t.Errorf("unexpected completed stages: %v", completed)
	}
}

func TestCheckDeps(t *testing.T) {
	// sh is present on any system these tools run on.
	if err := CheckDeps("sh"); err != nil {
		t.Errorf("CheckDeps(sh) returned error: %v", err)
	}
	if err := CheckDeps("definitely-not-a-real-tool-xyz"); err == nil {
		t.Error("expected error for missing tool")
	}
}
