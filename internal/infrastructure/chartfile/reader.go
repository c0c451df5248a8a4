// Package chartfile reads size charts exported by merchants as spreadsheets or CSV files.
package chartfile

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taylorfit/backend/internal/domain"
)

// Reader implements domain.ChartFileReader for .xlsx, .xls and .csv files
type Reader struct {
	logger zerolog.Logger
}

// NewReader creates a chart file reader
func NewReader(logger zerolog.Logger) *Reader {
	return &Reader{logger: logger.With().Str("component", "chartfile").Logger()}
}

// ReadChart picks a parser by extension and returns the sheet as a raw size chart.
// headerRow is 1-based; values below 1 mean the first row. The first column holds size labels.
func (rd *Reader) ReadChart(r io.Reader, filename string, headerRow int) (*domain.RawSizeChart, error) {
	if headerRow < 1 {
		headerRow = 1
	}

	var (
		grid [][]string
		err  error
	)
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		grid, err = readXLSX(r)
	case ".xls":
		grid, err = readXLS(r)
	case ".csv":
		grid, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParse, filename, err)
	}

	chart, err := gridToChart(grid, headerRow)
	if err != nil {
		return nil, err
	}
	chart.Title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	rd.logger.Debug().
		Str("file", filename).
		Int("headers", len(chart.Headers)).
		Int("sizes", len(chart.Sizes)).
		Msg("[IMPORT] chart file read")
	return chart, nil
}

// gridToChart turns rows of cells into a chart using headerRow as the header line.
// Empty headers become "Column N", repeated ones get a "#N" suffix, blank rows are skipped.
func gridToChart(grid [][]string, headerRow int) (*domain.RawSizeChart, error) {
	idx := headerRow - 1
	if idx >= len(grid) {
		return nil, fmt.Errorf("%w: header row %d not found (%d rows)", domain.ErrInvalidChart, headerRow, len(grid))
	}

	headers := pickHeaders(grid[idx])
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: header row %d is empty", domain.ErrInvalidChart, headerRow)
	}

	chart := &domain.RawSizeChart{Headers: headers}
	for _, rec := range grid[idx+1:] {
		if blank(rec) {
			continue
		}
		row := make(domain.SizeRow, len(headers))
		for c, h := range headers {
			var v string
			if c < len(rec) {
				v = strings.TrimSpace(rec[c])
			}
			row[h] = domain.CellText(v)
		}
		chart.Sizes = append(chart.Sizes, row)
	}
	if len(chart.Sizes) == 0 {
		return nil, fmt.Errorf("%w: no size rows below header row %d", domain.ErrInvalidChart, headerRow)
	}
	return chart, nil
}

func pickHeaders(rec []string) []string {
	// trailing empty cells are formatting, not columns
	n := len(rec)
	for n > 0 && strings.TrimSpace(rec[n-1]) == "" {
		n--
	}

	out := make([]string, n)
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		h := strings.TrimSpace(rec[i])
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		seen[h]++
		if k := seen[h]; k > 1 {
			h = fmt.Sprintf("%s #%d", h, k)
		}
		out[i] = h
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
