// Package excel exports issue results as a spreadsheet.
package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"resultsdash/domain/results"
)

// Sheet names of the issues workbook
const (
	SummarySheet = "Issues"
	DetailSheet  = "Results"
)

var (
	summaryHeaders = []interface{}{"Rank", "Issue", "Total votes", "Leading party", "Share (%)"}
	detailHeaders  = []interface{}{"Issue", "Party", "Votes", "Share (%)"}
)

// WriteIssues formats issues (totals, percentages, ordering) and writes them as an xlsx workbook
// with a summary sheet and a per-party detail sheet.
func WriteIssues(w io.Writer, issues []results.Issue) error {
	f, err := BuildIssues(issues)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildIssues builds the workbook WriteIssues writes
func BuildIssues(issues []results.Issue) (*excelize.File, error) {
	formatted := results.FormatIssues(issues)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(DetailSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create detail sheet: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, summaryHeaders); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRow(f, DetailSheet, 1, detailHeaders); err != nil {
		f.Close()
		return nil, err
	}

	detailRow := 2
	for i, issue := range formatted {
		leader, share := leading(issue.Results)
		row := []interface{}{i + 1, issue.Name, issue.Total, leader, share}
		if err := writeRow(f, SummarySheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}

		for _, r := range issue.Results {
			row := []interface{}{issue.Name, r.Party, int(r.Votes), results.Round(r.Percent)}
			if err := writeRow(f, DetailSheet, detailRow, row); err != nil {
				f.Close()
				return nil, err
			}
			detailRow++
		}
	}

	if err := styleHeaders(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func leading(rs []results.PartyResult) (string, float64) {
	best := -1
	for i := range rs {
		if best < 0 || rs[i].Votes > rs[best].Votes {
			best = i
		}
	}
	if best < 0 {
		return "", 0
	}
	return rs[best].Party, results.Round(rs[best].Percent)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	for sheet, n := range map[string]int{SummarySheet: len(summaryHeaders), DetailSheet: len(detailHeaders)} {
		last, _ := excelize.CoordinatesToCellName(n, 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return err
		}
	}
	return nil
}
