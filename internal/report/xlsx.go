package report

import (
	"fmt"
	"io"
	"time"

	"drink-rating/internal/model"

	"github.com/xuri/excelize/v2"
)

const dashboardSheet = "Dashboard"

var dashboardHeaders = []string{"ID", "Name", "Image URL", "Created At", "Ratings", "Average Rating"}

// WriteDashboardXLSX renders the dashboard as a workbook with one row per
// drink followed by a totals row.
func WriteDashboardXLSX(w io.Writer, dashboard *model.Dashboard) error {
	f, err := buildDashboardWorkbook(dashboard)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildDashboardWorkbook(dashboard *model.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", dashboardSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for colIdx, header := range dashboardHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err := f.SetCellValue(dashboardSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	if err == nil {
		_ = f.SetCellStyle(dashboardSheet, "A1", "F1", headerStyle)
	}

	row := 2
	for _, d := range dashboard.Drinks {
		imageURL := ""
		if d.ImageURL != nil {
			imageURL = *d.ImageURL
		}

		values := []any{d.ID, d.Name, imageURL, d.CreatedAt.UTC().Format(time.RFC3339), d.RatingCount, d.AverageRating}
		if err := setRow(f, row, values); err != nil {
			f.Close()
			return nil, err
		}
		row++
	}

	totals := []any{"Total", dashboard.Stats.TotalDrinks, "", "", dashboard.Stats.TotalRatings, ""}
	if err := setRow(f, row, totals); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(dashboardSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
