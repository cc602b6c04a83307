package mergevcf

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// ReferenceContigs returns the contig names of a FASTA reference in
// file order. Gzipped references are handled transparently.
func ReferenceContigs(referencePath string) ([]string, error) {
	refFile, err := os.Open(referencePath)
	if err != nil {
		return nil, fmt.Errorf("opening reference: %w", err)
	}
	defer refFile.Close()

	var reader io.Reader = refFile
	if strings.HasSuffix(referencePath, ".gz") {
		gzReader, err := gzip.NewReader(refFile)
		if err != nil {
			return nil, fmt.Errorf("opening gzipped reference: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	r := fasta.NewReader(reader, linear.NewSeq("", nil, alphabet.DNA))
	sc := seqio.NewScanner(r)

	var contigs []string
	for sc.Next() {
		seq := sc.Seq().(*linear.Seq)
		contigs = append(contigs, seq.ID)
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("reading reference: %w", err)
	}
	if len(contigs) == 0 {
		return nil, fmt.Errorf("reference %s contains no sequences", referencePath)
	}
	return contigs, nil
}
