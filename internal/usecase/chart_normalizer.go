package usecase

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taylorfit/backend/internal/domain"
)

// defaultChartTitle is used when the scraper found no caption
const defaultChartTitle = "Size Chart"

// ChartNormalizer converts raw size charts to centimeters and classifies their columns
type ChartNormalizer struct {
	classifier *MeasurementClassifier
	logger     zerolog.Logger
	now        func() time.Time
}

// NewChartNormalizer creates a normalizer that classifies columns with classifier
func NewChartNormalizer(classifier *MeasurementClassifier, logger zerolog.Logger) *ChartNormalizer {
	return &ChartNormalizer{
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
	}
}

// columnPlan is the per-header decision made before rows are converted
type columnPlan struct {
	original string
	label    string
	unit     Unit
	token    string
}

// Normalize rewrites unit-bearing headers to "(cm)", converts every measurement
// cell to centimeters and classifies each measurement column once, using the
// first row's value as the sample. Cells that fail to parse and headers that
// cannot be classified are reported, never fatal.
func (n *ChartNormalizer) Normalize(raw *domain.RawSizeChart) (*domain.NormalizedSizeChart, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	title := CleanCellText(raw.Title)
	if title == "" {
		title = defaultChartTitle
	}

	sizeHeader := raw.Headers[0]
	plans := planColumns(raw.Headers[1:], sizeHeader)

	chart := &domain.NormalizedSizeChart{
		Title:   title,
		Headers: make([]string, 0, len(raw.Headers)),
		Columns: make([]domain.ChartColumn, 0, len(raw.Headers)),
		Sizes:   make([]domain.NormalizedRow, 0, len(raw.Sizes)),
		Report: domain.ClassificationReport{
			Matched:      make(map[string]domain.MeasurementMatch),
			Unmatched:    []string{},
			TotalHeaders: len(raw.Headers) - 1,
		},
		Metadata: domain.ChartMetadata{
			ProcessedAt:   n.now().UTC(),
			TotalSizes:    len(raw.Sizes),
			OriginalUnits: make(map[string]string),
			ConvertedToCm: true,
		},
	}

	chart.Headers = append(chart.Headers, sizeHeader)
	chart.Columns = append(chart.Columns, domain.ChartColumn{OriginalHeader: sizeHeader, Header: sizeHeader})
	for _, p := range plans {
		chart.Headers = append(chart.Headers, p.label)
		if p.token != "" {
			chart.Metadata.OriginalUnits[p.original] = p.token
		}
	}

	for _, row := range raw.Sizes {
		size := CleanCellText(string(row[sizeHeader]))
		normalized := domain.NormalizedRow{
			Size:  size,
			Cells: make(map[string]domain.Cell, len(plans)),
		}
		for _, p := range plans {
			cell, warning := convertCell(string(row[p.original]), p.unit)
			normalized.Cells[p.label] = cell
			if warning != nil {
				warning.Header = p.original
				warning.Size = size
				chart.Warnings = append(chart.Warnings, *warning)
			}
		}
		chart.Sizes = append(chart.Sizes, normalized)
	}

	first := chart.Sizes[0]
	for _, p := range plans {
		column := domain.ChartColumn{
			OriginalHeader: p.original,
			Header:         p.label,
			Unit:           string(p.unit),
		}

		match := n.classifier.Classify(p.original, first.Cells[p.label].Text)
		if match != nil {
			match.Header = p.label
			column.Match = match
			chart.Report.Matched[p.original] = *match
		} else {
			chart.Report.Unmatched = append(chart.Report.Unmatched, p.original)
		}
		chart.Columns = append(chart.Columns, column)
	}
	chart.Report.MatchedCount = len(chart.Report.Matched)
	chart.Report.UnmatchedCount = len(chart.Report.Unmatched)

	n.logSummary(chart)
	return chart, nil
}

// planColumns decides the output label and source unit of every measurement header.
// A "(cm)" label that would collide with another column gets a "#N" suffix.
func planColumns(headers []string, sizeHeader string) []columnPlan {
	originals := make(map[string]bool, len(headers))
	for _, h := range headers {
		originals[h] = true
	}

	used := map[string]bool{sizeHeader: true}
	plans := make([]columnPlan, 0, len(headers))
	for _, h := range headers {
		name, token := ParseHeaderUnit(h)
		p := columnPlan{original: h, label: h}
		if unit := NormalizeUnit(token); unit != "" {
			p.unit = unit
			p.token = token
			taken := func(label string) bool {
				return used[label] || (label != h && originals[label])
			}
			base := FormatHeader(name, UnitCentimeters)
			p.label = base
			for k := 2; taken(p.label); k++ {
				p.label = fmt.Sprintf("%s #%d", base, k)
			}
		}
		used[p.label] = true
		plans = append(plans, p)
	}
	return plans
}

// convertCell parses one raw cell and converts it from unit to centimeters
func convertCell(text string, unit Unit) (domain.Cell, *domain.ChartWarning) {
	cleaned := CleanCellText(text)
	if cleaned == "" {
		return domain.Cell{}, nil
	}

	v, err := ParseValue(cleaned)
	if err != nil {
		return domain.Cell{Text: cleaned}, &domain.ChartWarning{
			Kind:    domain.WarningParseError,
			Message: err.Error(),
		}
	}

	v = Convert(v, unit, UnitCentimeters)
	cell := domain.Cell{Text: v.String(), Value: &v}
	if v.Inverted() {
		return cell, &domain.ChartWarning{
			Kind:    domain.WarningInvertedRange,
			Message: fmt.Sprintf("range %q has its larger bound first; kept as written", cleaned),
		}
	}
	return cell, nil
}

func (n *ChartNormalizer) logSummary(chart *domain.NormalizedSizeChart) {
	event := n.logger.Debug()
	if !event.Enabled() {
		return
	}
	for _, col := range chart.Columns {
		if col.Match == nil {
			continue
		}
		n.logger.Debug().
			Str("header", col.OriginalHeader).
			Str("measurement", string(col.Match.Canonical)).
			Str("confidence", string(col.Match.Confidence)).
			Str("reason", col.Match.Reason).
			Msg("[NORMALIZE] column matched")
	}
	event.
		Str("title", chart.Title).
		Int("sizes", chart.Metadata.TotalSizes).
		Int("headers", chart.Report.TotalHeaders).
		Int("matched", chart.Report.MatchedCount).
		Int("unmatched", chart.Report.UnmatchedCount).
		Strs("unmatched_headers", chart.Report.Unmatched).
		Int("warnings", len(chart.Warnings)).
		Msg("[NORMALIZE] size chart processed")
}
