package manifest

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// QCRecord is one row of a QC status export.
type QCRecord struct {
	Sample  string
	Status  string
	Created int64
}

// LatestByCreation keeps only the newest record per sample, so reruns
// supersede the QC verdict of earlier runs.
func LatestByCreation(records []QCRecord) map[string]QCRecord {
	latest := make(map[string]QCRecord)
	for _, rec := range records {
		prev, ok := latest[rec.Sample]
		if !ok || rec.Created > prev.Created {
			latest[rec.Sample] = rec
		}
	}
	return latest
}

// FailedSamples returns the sorted sample IDs whose newest QC status
// is FAIL, case insensitively.
func FailedSamples(records []QCRecord) []string {
	latest := LatestByCreation(records)
	failed := make(map[string]struct{})
	for sample, rec := range latest {
		if strings.EqualFold(strings.TrimSpace(rec.Status), "fail") {
			failed[sample] = struct{}{}
		}
	}
	samples := maps.Keys(failed)
	slices.Sort(samples)
	return samples
}
