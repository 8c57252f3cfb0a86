package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"moodlog/internal/model"
)

const exportSheet = "Weekly Reports"

// ExportReports renders report history as an xlsx workbook, one row per week.
func ExportReports(reports []model.WeeklyReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"Week start", "Week end"}
	for _, k := range model.EmotionKeys {
		header = append(header, strings.ToUpper(k[:1])+k[1:])
	}
	header = append(header, "Themes", "Continue", "Explore", "Consider", "Highlights", "Lowlights", "Created at")
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range reports {
		p := r.Payload()
		row := []interface{}{r.StartDate().String(), r.EndDate().String()}
		for _, k := range model.EmotionKeys {
			row = append(row, p.EmotionScores.Get(k))
		}
		row = append(row,
			strings.Join(p.Themes, "; "),
			p.Recommendations.Continue,
			p.Recommendations.Explore,
			p.Recommendations.Consider,
			strings.Join(p.Highlights, "\n"),
			strings.Join(p.Lowlights, "\n"),
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.WriteToBuffer()
}
