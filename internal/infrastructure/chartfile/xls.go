package chartfile

import (
	"bytes"
	"errors"
	"io"
	"strings"

	xls "github.com/extrame/xls"
)

// xlsProbeCols bounds how far right a legacy sheet is scanned; Row.LastCol is unreliable
const xlsProbeCols = 64

// readXLS returns the first sheet's rows of a legacy Excel workbook
func readXLS(r io.Reader) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var (
		wb      *xls.WorkBook
		lastErr error
	)
	for _, charset := range []string{"utf-8", "windows-1252"} {
		wb, lastErr = xls.OpenReader(bytes.NewReader(b), charset)
		if lastErr == nil && wb != nil {
			break
		}
	}
	if wb == nil {
		if lastErr == nil {
			lastErr = errors.New("failed to open workbook")
		}
		return nil, lastErr
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}

	width := sheetWidth(sheet)
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		cols := make([]string, width)
		if row := sheet.Row(i); row != nil {
			for j := 0; j < width; j++ {
				cols[j] = strings.TrimSpace(row.Col(j))
			}
		}
		rows = append(rows, cols)
	}
	return rows, nil
}

func sheetWidth(sheet *xls.WorkSheet) int {
	width := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		for j := width; j < xlsProbeCols; j++ {
			if strings.TrimSpace(row.Col(j)) != "" {
				width = j + 1
			}
		}
	}
	if width == 0 {
		width = 1
	}
	return width
}
