package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CellText is a raw chart cell. Scrapers send either strings or numbers.
type CellText string

// UnmarshalJSON accepts a JSON string, number or null
func (c *CellText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CellText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cell must be a string or number: %w", err)
	}
	*c = CellText(n.String())
	return nil
}

// SizeRow maps each header to its raw cell
type SizeRow map[string]CellText

// RawSizeChart is a size chart as extracted from a product page.
// Headers[0] is the size-label column.
type RawSizeChart struct {
	Title   string    `json:"title,omitempty"`
	Headers []string  `json:"headers"`
	Sizes   []SizeRow `json:"sizes"`
}

// Validate checks the structural invariants the normalizer relies on
func (c *RawSizeChart) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: chart is missing", ErrInvalidChart)
	}
	if len(c.Headers) == 0 {
		return fmt.Errorf("%w: no headers", ErrInvalidChart)
	}
	if len(c.Sizes) == 0 {
		return fmt.Errorf("%w: no size rows", ErrInvalidChart)
	}

	seen := make(map[string]bool, len(c.Headers))
	for _, h := range c.Headers {
		if seen[h] {
			return fmt.Errorf("%w: duplicate header %q", ErrInvalidChart, h)
		}
		seen[h] = true
	}

	for i, row := range c.Sizes {
		if len(row) != len(c.Headers) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidChart, i, len(row), len(c.Headers))
		}
		for _, h := range c.Headers {
			if _, ok := row[h]; !ok {
				return fmt.Errorf("%w: row %d is missing %q", ErrInvalidChart, i, h)
			}
		}
	}
	return nil
}

// Confidence is the qualitative strength of a header-to-measurement mapping
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// MeasurementMatch is the classification of one chart header
type MeasurementMatch struct {
	Canonical  CanonicalMeasurement `json:"standardName"`
	Confidence Confidence           `json:"confidence"`
	Reason     string               `json:"reason"`
	Header     string               `json:"header,omitempty"` // normalized label used by the size rows
}

// ClassificationReport summarizes which chart headers were understood.
// Matched is keyed by the original header text.
type ClassificationReport struct {
	Matched        map[string]MeasurementMatch `json:"matchedMeasurements"`
	Unmatched      []string                    `json:"unmatchedMeasurements"`
	TotalHeaders   int                         `json:"totalHeaders"`
	MatchedCount   int                         `json:"matchedCount"`
	UnmatchedCount int                         `json:"unmatchedCount"`
}

// ChartColumn describes one chart column after normalization
type ChartColumn struct {
	OriginalHeader string            `json:"originalHeader"`
	Header         string            `json:"header"`
	Unit           string            `json:"originalUnit,omitempty"`
	Match          *MeasurementMatch `json:"match,omitempty"`
}

// Cell is a normalized chart cell. Value is nil when the text could not be parsed.
type Cell struct {
	Text  string
	Value *MeasurementValue
}

// MarshalJSON renders the converted value, or the original text when unparsed
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.Value != nil {
		return c.Value.MarshalJSON()
	}
	return json.Marshal(c.Text)
}

// NormalizedRow is one size of a normalized chart
type NormalizedRow struct {
	Size  string          `json:"size"`
	Cells map[string]Cell `json:"values"`
}

// WarningKind classifies a non-fatal normalization problem
type WarningKind string

const (
	WarningParseError    WarningKind = "parse_error"
	WarningInvertedRange WarningKind = "inverted_range"
)

// ChartWarning records a per-cell problem that did not abort normalization
type ChartWarning struct {
	Header  string      `json:"header"`
	Size    string      `json:"size"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// ChartMetadata carries bookkeeping about a normalization run
type ChartMetadata struct {
	ProcessedAt   time.Time         `json:"processedAt"`
	TotalSizes    int               `json:"totalSizes"`
	OriginalUnits map[string]string `json:"originalUnits"`
	ConvertedToCm bool              `json:"convertedToCm"`
}

// NormalizedSizeChart is a chart with canonical headers, centimeter values and a classification report
type NormalizedSizeChart struct {
	Title    string               `json:"title"`
	Headers  []string             `json:"headers"`
	Columns  []ChartColumn        `json:"columns"`
	Sizes    []NormalizedRow      `json:"sizes"`
	Report   ClassificationReport `json:"measurementMatches"`
	Warnings []ChartWarning       `json:"warnings,omitempty"`
	Metadata ChartMetadata        `json:"metadata"`
}

// MatchedColumns returns the classified columns in header order
func (c *NormalizedSizeChart) MatchedColumns() []ChartColumn {
	var out []ChartColumn
	for _, col := range c.Columns {
		if col.Match != nil {
			out = append(out, col)
		}
	}
	return out
}

// UnmarshalJSON accepts the MarshalJSON forms: a number or a "lo - hi" string
func (v *MeasurementValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		lo, hi, found := strings.Cut(s, " - ")
		if !found {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrParse, s)
			}
			*v = SingleValue(f)
			return nil
		}
		l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrParse, s)
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrParse, s)
		}
		*v = RangeValue(l, h)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = SingleValue(f)
	return nil
}
