package mergevcf

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func TestReferenceContigs(t *testing.T) {
	refPath := filepath.Join(t.TempDir(), "ref.fa")
	content := ">chr1 primary\nACGTACGT\nACGT\n>chr2\nTTTT\n>chrM\nAC\n"
	if err := os.WriteFile(refPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	contigs, err := ReferenceContigs(refPath)
	if err != nil {
		t.Fatalf("ReferenceContigs returned error: %v", err)
	}
	want := []string{"chr1", "chr2", "chrM"}
	if len(contigs) != len(want) {
		t.Fatalf("expected %d contigs, got %v", len(want), contigs)
	}
	for i := range want {
		if contigs[i] != want[i] {
			t.Errorf("contig %d = %q, want %q", i, contigs[i], want[i])
		}
	}
}

func TestReferenceContigsGzipped(t *testing.T) {
	refPath := filepath.Join(t.TempDir(), "ref.fa.gz")
	refFile, err := os.Create(refPath)
	if err != nil {
		t.Fatal(err)
	}
	gzWriter := gzip.NewWriter(refFile)
	if _, err := gzWriter.Write([]byte(">1\nACGT\n>2\nACGT\n")); err != nil {
		t.Fatal(err)
	}
	if err := gzWriter.Close(); err != nil {
		t.Fatal(err)
	}
	refFile.Close()

	contigs, err := ReferenceContigs(refPath)
	if err != nil {
		t.Fatalf("ReferenceContigs returned error: %v", err)
	}
	if len(contigs) != 2 || contigs[0] != "1" || contigs[1] != "2" {
		t.Errorf("unexpected contigs: %v", contigs)
	}
}

func TestReferenceContigsEmpty(t *testing.T) {
	refPath := filepath.Join(t.TempDir(), "empty.fa")
	if err := os.WriteFile(refPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReferenceContigs(refPath); err == nil {
		t.Fatal("expected error for empty reference")
	}
}
