package usecase

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taylorfit/backend/internal/domain"
)

// Classification reasons reported back to the extension
const (
	ReasonExplicitName   = "explicit name match"
	ReasonNameMatch      = "name match"
	ReasonAmbiguousChest = "value range match for ambiguous chest measurement"
)

// phrases that name the chest measurement type outright
var explicitChestPhrases = []string{"pit to pit", "around"}

var parentheticalPattern = regexp.MustCompile(`\(([^()]*)\)`)

// MeasurementClassifier maps raw size-chart headers to canonical measurements
type MeasurementClassifier struct {
	logger             zerolog.Logger
	enableDebugLogging bool
}

// NewMeasurementClassifier creates a classifier. Debug logging traces every decision.
func NewMeasurementClassifier(logger zerolog.Logger, enableDebugLogging bool) *MeasurementClassifier {
	return &MeasurementClassifier{
		logger:             logger,
		enableDebugLogging: enableDebugLogging,
	}
}

// Classify maps a header to a canonical measurement. sample is a value from the
// same column and is only consulted for a bare "chest" header.
// Returns nil when the header names no known measurement.
func (c *MeasurementClassifier) Classify(header, sample string) *domain.MeasurementMatch {
	clean := CleanMeasurementName(header)
	match := classifyClean(clean, sample)

	if c.enableDebugLogging {
		if match != nil {
			c.logger.Debug().
				Str("header", header).
				Str("clean", clean).
				Str("sample", sample).
				Str("measurement", string(match.Canonical)).
				Str("confidence", string(match.Confidence)).
				Msg("[CLASSIFY] matched")
		} else {
			c.logger.Debug().
				Str("header", header).
				Str("clean", clean).
				Str("sample", sample).
				Msg("[CLASSIFY] unmatched")
		}
	}
	return match
}

func classifyClean(clean, sample string) *domain.MeasurementMatch {
	for _, def := range domain.StandardMeasurements {
		if !containsAny(clean, def.Aliases) {
			continue
		}
		if !def.ID.IsChest() {
			return &domain.MeasurementMatch{
				Canonical:  def.ID,
				Confidence: domain.ConfidenceHigh,
				Reason:     ReasonNameMatch,
			}
		}
		if containsAny(clean, explicitChestPhrases) {
			return &domain.MeasurementMatch{
				Canonical:  def.ID,
				Confidence: domain.ConfidenceHigh,
				Reason:     ReasonExplicitName,
			}
		}
		return ambiguousChestMatch(sample)
	}

	// only reachable if "chest" stops being an alias
	if strings.Contains(clean, "chest") {
		return ambiguousChestMatch(sample)
	}
	return nil
}

func ambiguousChestMatch(sample string) *domain.MeasurementMatch {
	id, ok := ClassifyAmbiguousChest(sample)
	if !ok {
		return nil
	}
	return &domain.MeasurementMatch{
		Canonical:  id,
		Confidence: domain.ConfidenceMedium,
		Reason:     ReasonAmbiguousChest,
	}
}

// ClassifyAmbiguousChest decides whether a bare "chest" column holds pit-to-pit
// widths or circumferences from a sample value in centimeters. Both bounds of
// the sample must fall inside a measurement's plausible range; pit-to-pit is
// tried first.
func ClassifyAmbiguousChest(sample string) (domain.CanonicalMeasurement, bool) {
	v, err := ParseValue(sample)
	if err != nil {
		return "", false
	}
	for _, id := range []domain.CanonicalMeasurement{domain.ChestPitToPit, domain.ChestAround} {
		def, ok := domain.LookupMeasurement(id)
		if !ok || def.Range == nil {
			continue
		}
		if def.Range.Contains(v.Lo) && def.Range.Contains(v.Hi) {
			return id, true
		}
	}
	return "", false
}

// CleanMeasurementName lower-cases a header, drops unit parentheticals such as
// "(in)" and unwraps descriptive ones such as "(Pit to Pit)".
func CleanMeasurementName(name string) string {
	name = strings.ToLower(name)
	name = parentheticalPattern.ReplaceAllStringFunc(name, func(group string) string {
		inner := group[1 : len(group)-1]
		if NormalizeUnit(inner) != "" {
			return " "
		}
		return " " + inner + " "
	})
	name = whitespacePattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
