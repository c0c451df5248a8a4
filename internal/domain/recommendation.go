package domain

import (
	"encoding/json"
	"math"
)

// MeasurementCost is the distance between one user measurement and one chart cell
type MeasurementCost struct {
	Measurement CanonicalMeasurement `json:"measurement"`
	Header      string               `json:"header"`
	UserValue   float64              `json:"userValue"`
	ChartValue  MeasurementValue     `json:"chartValue"`
	Cost        float64              `json:"cost"`
	Fallback    bool                 `json:"fallback,omitempty"`
}

// SizeCost is the scoring of one size row.
// AverageCost is +Inf when nothing was compared.
type SizeCost struct {
	Size                 string
	Costs                []MeasurementCost
	TotalCost            float64
	AverageCost          float64
	ComparedMeasurements int
}

// Comparable reports whether at least one measurement was compared for this size
func (s SizeCost) Comparable() bool {
	return s.ComparedMeasurements > 0
}

// sizeCostJSON is the wire shape; an infinite average is sent as null
type sizeCostJSON struct {
	Size                 string            `json:"size"`
	Costs                []MeasurementCost `json:"costs"`
	TotalCost            float64           `json:"totalCost"`
	AverageCost          *float64          `json:"averageCost"`
	ComparedMeasurements int               `json:"comparedMeasurements"`
}

func (s SizeCost) MarshalJSON() ([]byte, error) {
	return json.Marshal(sizeCostJSON{
		Size:                 s.Size,
		Costs:                s.Costs,
		TotalCost:            s.TotalCost,
		AverageCost:          finiteOrNil(s.AverageCost),
		ComparedMeasurements: s.ComparedMeasurements,
	})
}

func (s *SizeCost) UnmarshalJSON(data []byte) error {
	var w sizeCostJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = SizeCost{
		Size:                 w.Size,
		Costs:                w.Costs,
		TotalCost:            w.TotalCost,
		AverageCost:          nilToInf(w.AverageCost),
		ComparedMeasurements: w.ComparedMeasurements,
	}
	return nil
}

// Recommendation is the best-fit size for a shopper.
// When Actionable is false no measurement could be compared and the size must not be shown as a match.
type Recommendation struct {
	Size                 string
	AverageCost          float64
	TotalCost            float64
	ComparedMeasurements int
	Actionable           bool
	Sizes                []SizeCost
}

type recommendationJSON struct {
	Size                 string     `json:"size"`
	AverageCost          *float64   `json:"averageCost"`
	TotalCost            float64    `json:"totalCost"`
	ComparedMeasurements int        `json:"comparedMeasurements"`
	Actionable           bool       `json:"actionable"`
	Sizes                []SizeCost `json:"sizes"`
}

func (r Recommendation) MarshalJSON() ([]byte, error) {
	return json.Marshal(recommendationJSON{
		Size:                 r.Size,
		AverageCost:          finiteOrNil(r.AverageCost),
		TotalCost:            r.TotalCost,
		ComparedMeasurements: r.ComparedMeasurements,
		Actionable:           r.Actionable,
		Sizes:                r.Sizes,
	})
}

func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var w recommendationJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Recommendation{
		Size:                 w.Size,
		AverageCost:          nilToInf(w.AverageCost),
		TotalCost:            w.TotalCost,
		ComparedMeasurements: w.ComparedMeasurements,
		Actionable:           w.Actionable,
		Sizes:                w.Sizes,
	}
	return nil
}

func finiteOrNil(f float64) *float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

func nilToInf(f *float64) float64 {
	if f == nil {
		return math.Inf(1)
	}
	return *f
}
