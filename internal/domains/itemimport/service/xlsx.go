package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/xuri/excelize/v2"
)

// File formats được chấp nhận
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DetectFormat dựa trên extension của tên file.
// .xls (binary cũ) bị từ chối với hướng dẫn rõ ràng.
func DetectFormat(fileName string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch ext {
	case "csv", "txt":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "xls":
		return "", model.ErrLegacyExcel
	default:
		return "", fmt.Errorf("%w: .%s (use CSV or XLSX)", model.ErrUnsupportedFile, ext)
	}
}

// XLSXToCSV chuyển sheet đầu tiên của workbook thành CSV (dấu ',') để
// đi qua cùng engine. Row ngắn hơn header được pad ô rỗng ở cuối, vì
// excelize cắt bỏ các ô trống phía sau.
func XLSXToCSV(r io.Reader) (*bytes.Reader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", model.ErrIngestFailure, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", model.ErrIngestFailure)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", model.ErrIngestFailure, sheet, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	for _, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("%w: convert sheet: %v", model.ErrIngestFailure, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: convert sheet: %v", model.ErrIngestFailure, err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}
