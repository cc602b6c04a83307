package qccompare

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"golang.org/x/exp/slices"
)

// writeDiscrepancyPage renders one scatter chart per variable, with a
// GRCh37 and a GRCh38 series over the mismatching samples.
func writeDiscrepancyPage(mismatches [][]string, variables []string, sampleCol, outputHTML string) error {
	header := mismatches[0]
	sampleIdx := slices.Index(header, sampleCol)
	if sampleIdx < 0 {
		return fmt.Errorf("sample column %s is not in the joined results", sampleCol)
	}

	samples := make([]string, 0, len(mismatches)-1)
	for _, row := range mismatches[1:] {
		samples = append(samples, shortSampleID(row[sampleIdx]))
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	for _, variable := range variables {
		b37Idx := slices.Index(header, variable+"_GRCh37")
		b38Idx := slices.Index(header, variable+"_GRCh38")
		if b37Idx < 0 || b38Idx < 0 {
			return fmt.Errorf("variable %s is not present for both builds", variable)
		}

		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
			charts.WithTitleOpts(opts.Title{Title: variable}),
			charts.WithYAxisOpts(opts.YAxis{Name: variable}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Sample"}),
		)

		var b37Data, b38Data []opts.ScatterData
		for _, row := range mismatches[1:] {
			b37Data = append(b37Data, opts.ScatterData{Value: scatterValue(row[b37Idx])})
			b38Data = append(b38Data, opts.ScatterData{Value: scatterValue(row[b38Idx])})
		}
		scatter.SetXAxis(samples).
			AddSeries("GRCh37", b37Data).
			AddSeries("GRCh38", b38Data)

		page.AddCharts(scatter)
	}

	f, err := os.Create(outputHTML)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

// shortSampleID trims a full sample name down to instrument-specimen.
func shortSampleID(sample string) string {
	fields := strings.Split(sample, "-")
	if len(fields) < 2 {
		return sample
	}
	return fields[0] + "-" + fields[1]
}

func scatterValue(raw string) any {
	if value, err := strconv.ParseFloat(raw, 64); err == nil {
		return value
	}
	return raw
}
