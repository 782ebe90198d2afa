package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/seedandbeyond/snb-harvest/internal/domain/audit"
)

// CallLog renders the local call log as an xlsx workbook and writes it to
// path. The workbook is grouped by submission id, so a partially failed
// submission can be reconciled against the remote log entity row by row.
func CallLog(ctx context.Context, repo *audit.Repo, path string) (string, error) {
	rows, err := repo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("load call log: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"submission_id",
		"logged_at",
		"username",
		"method",
		"url",
		"status",
		"response",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	rowIdx := 2
	for _, r := range rows {
		excelRow := []interface{}{
			r.SubmissionID,
			r.LoggedAt,
			r.Username,
			r.Method,
			r.URL,
			r.Status,
			r.Response,
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return "", fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
		rowIdx++
	}

	if path == "" {
		path = fmt.Sprintf("call_log_%s.xlsx", time.Now().Format("20060102_150405"))
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}
