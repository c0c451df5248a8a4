package domain

import "io"

// RecommendRequest asks for a size recommendation for one chart.
// When Measurements is nil they are fetched from the measurements service with Token.
type RecommendRequest struct {
	Chart        *RawSizeChart       `json:"chart" binding:"required"`
	Measurements map[string]*float64 `json:"measurements,omitempty"`
	GarmentType  string              `json:"garmentType,omitempty"`
	Token        string              `json:"-"`
}

// RecommendResult is what the extension renders. Recommendation is never nil on success;
// check Recommendation.Actionable before presenting it as a match.
type RecommendResult struct {
	Recommendation *Recommendation      `json:"recommendation"`
	Report         ClassificationReport `json:"measurementMatches"`
	Warnings       []ChartWarning       `json:"warnings,omitempty"`
	Source         string               `json:"source"` // "Engine" or "Cache"
}

// ImportRequest describes an uploaded size chart file
type ImportRequest struct {
	Filename  string
	HeaderRow int // 1-based
	Title     string
	Body      io.Reader
}

// ChartFileReader turns a spreadsheet or CSV export into a raw size chart
type ChartFileReader interface {
	ReadChart(r io.Reader, filename string, headerRow int) (*RawSizeChart, error)
}
