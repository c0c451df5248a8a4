package usecase

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/taylorfit/backend/internal/domain"
)

// FallbackStrategy scores a size row for which no matched column could be
// compared. It returns the cost used instead, or false when it has nothing to offer.
type FallbackStrategy func(chart *domain.NormalizedSizeChart, row domain.NormalizedRow, user domain.UserMeasurements) (domain.MeasurementCost, bool)

// Fallback strategy names accepted by ParseFallbackStrategy
const (
	FallbackChestAround = "chest_around"
	FallbackNone        = "none"
)

// ChestAroundFallback compares the user's chest circumference against the first
// column classified as chestAround. Chest circumference is the measurement
// shoppers most often have, so a sparse chart still gets one comparison.
func ChestAroundFallback(chart *domain.NormalizedSizeChart, row domain.NormalizedRow, user domain.UserMeasurements) (domain.MeasurementCost, bool) {
	userValue, ok := user.Get(domain.ChestAround)
	if !ok {
		return domain.MeasurementCost{}, false
	}
	for _, col := range chart.MatchedColumns() {
		if col.Match.Canonical != domain.ChestAround {
			continue
		}
		cell := row.Cells[col.Header]
		cost, ok := Cost(userValue, cell.Value)
		if !ok {
			return domain.MeasurementCost{}, false
		}
		return domain.MeasurementCost{
			Measurement: domain.ChestAround,
			Header:      col.Header,
			UserValue:   userValue,
			ChartValue:  *cell.Value,
			Cost:        cost,
			Fallback:    true,
		}, true
	}
	return domain.MeasurementCost{}, false
}

// NoFallback leaves rows without comparisons unscored
func NoFallback(*domain.NormalizedSizeChart, domain.NormalizedRow, domain.UserMeasurements) (domain.MeasurementCost, bool) {
	return domain.MeasurementCost{}, false
}

// ParseFallbackStrategy resolves a configured strategy name; unknown names use the chest fallback
func ParseFallbackStrategy(name string) FallbackStrategy {
	if name == FallbackNone {
		return NoFallback
	}
	return ChestAroundFallback
}

// RecommendationEngine picks the best-fitting size of a normalized chart
type RecommendationEngine struct {
	fallback           FallbackStrategy
	logger             zerolog.Logger
	enableDebugLogging bool
}

// NewRecommendationEngine creates an engine. A nil fallback means ChestAroundFallback.
func NewRecommendationEngine(fallback FallbackStrategy, logger zerolog.Logger, enableDebugLogging bool) *RecommendationEngine {
	if fallback == nil {
		fallback = ChestAroundFallback
	}
	return &RecommendationEngine{
		fallback:           fallback,
		logger:             logger,
		enableDebugLogging: enableDebugLogging,
	}
}

// Cost is the distance in centimeters between a user measurement and a chart value.
// Inside a range the cost is zero; outside it is the distance to the nearer bound.
// The cost is undefined when either operand is unavailable.
func Cost(userValue float64, chartValue *domain.MeasurementValue) (float64, bool) {
	if userValue <= 0 || chartValue == nil {
		return 0, false
	}
	if !chartValue.IsRange {
		return math.Abs(userValue - chartValue.Lo), true
	}
	switch {
	case userValue < chartValue.Lo:
		return chartValue.Lo - userValue, true
	case userValue > chartValue.Hi:
		return userValue - chartValue.Hi, true
	default:
		return 0, true
	}
}

// Recommend scores every size and returns the one with the lowest average cost.
// Ties go to the earlier size. It returns nil when the user has no measurements
// or the chart has no sizes. When no size could be compared the first size is
// returned with Actionable=false.
func (e *RecommendationEngine) Recommend(chart *domain.NormalizedSizeChart, user domain.UserMeasurements) *domain.Recommendation {
	if chart == nil || len(chart.Sizes) == 0 || user.Available() == 0 {
		return nil
	}

	columns := chart.MatchedColumns()
	costs := make([]domain.SizeCost, 0, len(chart.Sizes))
	for _, row := range chart.Sizes {
		costs = append(costs, e.scoreRow(chart, columns, row, user))
	}

	best := costs[0]
	for _, c := range costs[1:] {
		if c.AverageCost < best.AverageCost {
			best = c
		}
	}

	rec := &domain.Recommendation{
		Size:                 best.Size,
		AverageCost:          best.AverageCost,
		TotalCost:            best.TotalCost,
		ComparedMeasurements: best.ComparedMeasurements,
		Actionable:           best.Comparable(),
		Sizes:                costs,
	}

	if e.enableDebugLogging {
		e.logger.Debug().
			Str("size", rec.Size).
			Float64("total_cost", rec.TotalCost).
			Int("compared", rec.ComparedMeasurements).
			Bool("actionable", rec.Actionable).
			Msg("[RECOMMEND] best fit")
	}
	return rec
}

func (e *RecommendationEngine) scoreRow(chart *domain.NormalizedSizeChart, columns []domain.ChartColumn, row domain.NormalizedRow, user domain.UserMeasurements) domain.SizeCost {
	sc := domain.SizeCost{Size: row.Size, Costs: []domain.MeasurementCost{}}

	for _, col := range columns {
		userValue, ok := user.Get(col.Match.Canonical)
		if !ok {
			continue
		}
		cell := row.Cells[col.Header]
		cost, ok := Cost(userValue, cell.Value)
		if !ok {
			continue
		}
		sc.Costs = append(sc.Costs, domain.MeasurementCost{
			Measurement: col.Match.Canonical,
			Header:      col.Header,
			UserValue:   userValue,
			ChartValue:  *cell.Value,
			Cost:        cost,
		})
	}

	if len(sc.Costs) == 0 {
		if mc, ok := e.fallback(chart, row, user); ok {
			sc.Costs = append(sc.Costs, mc)
		}
	}

	sc.ComparedMeasurements = len(sc.Costs)
	for _, c := range sc.Costs {
		sc.TotalCost += c.Cost
	}
	if sc.ComparedMeasurements > 0 {
		sc.AverageCost = sc.TotalCost / float64(sc.ComparedMeasurements)
	} else {
		sc.AverageCost = math.Inf(1)
	}

	if e.enableDebugLogging {
		e.logger.Debug().
			Str("size", sc.Size).
			Int("compared", sc.ComparedMeasurements).
			Float64("total_cost", sc.TotalCost).
			Msg("[RECOMMEND] size scored")
	}
	return sc
}
