package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taylorfit/backend/internal/domain"
)

// Unit is a length unit understood by the converter
type Unit string

const (
	UnitInches      Unit = "in"
	UnitCentimeters Unit = "cm"
)

// cmPerInch is exact by definition
var cmPerInch = decimal.RequireFromString("2.54")

// convertedPlaces is the precision charts are rounded to after conversion
const convertedPlaces = 2

var (
	// trailing "(...)" group of a header, e.g. "Chest (in)"
	headerUnitPattern = regexp.MustCompile(`\(([^()]*)\)\s*$`)

	// two numeric tokens separated by a hyphen or dash, e.g. "36 - 38", "86–91"
	rangePattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?|[.,]\d+)\s*[-\x{2010}\x{2011}\x{2013}\x{2014}]\s*(\d+(?:[.,]\d+)?|[.,]\d+)`)

	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?|[.,]\d+`)

	// a leading minus sign or a Unicode minus anywhere; body measurements are never negative
	negativePattern = regexp.MustCompile(`^[-\x{2212}]\s*[.,]?\d|\x{2212}`)

	// exponent notation, as JSON numbers such as 1e2 arrive
	exponentPattern = regexp.MustCompile(`^[+]?(?:\d+(?:\.\d*)?|\.\d+)[eE][+-]?\d+$`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// unitAliases maps lower-cased header unit tokens to their canonical unit
var unitAliases = map[string]Unit{
	"in":          UnitInches,
	"in.":         UnitInches,
	"inch":        UnitInches,
	"inches":      UnitInches,
	`"`:           UnitInches,
	"cm":          UnitCentimeters,
	"cms":         UnitCentimeters,
	"centimeter":  UnitCentimeters,
	"centimeters": UnitCentimeters,
	"centimetre":  UnitCentimeters,
	"centimetres": UnitCentimeters,
}

// ParseHeaderUnit splits a header like "Chest (in)" into its bare name and
// lower-cased unit token. A header without a trailing parenthetical has no unit.
func ParseHeaderUnit(header string) (string, string) {
	loc := headerUnitPattern.FindStringSubmatchIndex(header)
	if loc == nil {
		return strings.TrimSpace(header), ""
	}
	unit := strings.ToLower(strings.TrimSpace(header[loc[2]:loc[3]]))
	return strings.TrimSpace(header[:loc[0]]), unit
}

// NormalizeUnit resolves a header unit token to a known length unit.
// Unknown tokens (including descriptive parentheticals like "pit to pit") return "".
func NormalizeUnit(token string) Unit {
	return unitAliases[strings.ToLower(strings.TrimSpace(token))]
}

// FormatHeader renders a measurement name with its unit, e.g. "Chest (cm)"
func FormatHeader(name string, unit Unit) string {
	return fmt.Sprintf("%s (%s)", name, unit)
}

// CleanCellText removes non-breaking spaces and collapses whitespace
func CleanCellText(text string) string {
	text = strings.NewReplacer("\u00a0", "", "\u202f", "").Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ParseValue parses a chart cell into a single value or a range.
// Range bounds keep their textual order: "91-86" yields Lo=91, Hi=86.
func ParseValue(text string) (domain.MeasurementValue, error) {
	cleaned := CleanCellText(text)

	if negativePattern.MatchString(cleaned) {
		return domain.MeasurementValue{}, fmt.Errorf("%w: negative value %q", domain.ErrParse, text)
	}
	if exponentPattern.MatchString(cleaned) {
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return domain.MeasurementValue{}, fmt.Errorf("%w: %q", domain.ErrParse, text)
		}
		return domain.SingleValue(v), nil
	}

	if m := rangePattern.FindStringSubmatch(cleaned); m != nil {
		lo, errLo := parseNumber(m[1])
		hi, errHi := parseNumber(m[2])
		if errLo == nil && errHi == nil {
			return domain.RangeValue(lo, hi), nil
		}
	}

	token := numberPattern.FindString(cleaned)
	if token == "" {
		return domain.MeasurementValue{}, fmt.Errorf("%w: %q", domain.ErrParse, text)
	}
	v, err := parseNumber(token)
	if err != nil {
		return domain.MeasurementValue{}, fmt.Errorf("%w: %q", domain.ErrParse, text)
	}
	return domain.SingleValue(v), nil
}

func parseNumber(token string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(token, ",", "."), 64)
}

// Convert converts a value between length units, rounding to two decimals.
// It is the identity when the units match or the source unit is unknown,
// and leaves any pair without a defined conversion untouched.
func Convert(value domain.MeasurementValue, from, to Unit) domain.MeasurementValue {
	if from == "" || from == to {
		return value
	}

	var convert func(float64) float64
	switch {
	case from == UnitInches && to == UnitCentimeters:
		convert = inchesToCentimeters
	case from == UnitCentimeters && to == UnitInches:
		convert = centimetersToInches
	default:
		return value
	}

	if value.IsRange {
		return domain.RangeValue(convert(value.Lo), convert(value.Hi))
	}
	return domain.SingleValue(convert(value.Lo))
}

func inchesToCentimeters(in float64) float64 {
	f, _ := decimal.NewFromFloat(in).Mul(cmPerInch).Round(convertedPlaces).Float64()
	return f
}

func centimetersToInches(cm float64) float64 {
	f, _ := decimal.NewFromFloat(cm).Div(cmPerInch).Round(convertedPlaces).Float64()
	return f
}
