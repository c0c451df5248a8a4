package chartfile

import (
	"errors"
	"io"

	excelize "github.com/xuri/excelize/v2"
)

// readXLSX returns the first sheet's rows
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheet)
}
