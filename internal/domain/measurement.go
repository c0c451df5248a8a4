package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CanonicalMeasurement identifies a body measurement independent of how a merchant labels it
type CanonicalMeasurement string

const (
	ChestPitToPit CanonicalMeasurement = "chestPitToPit"
	ChestAround   CanonicalMeasurement = "chestAround"
	ShoulderToHem CanonicalMeasurement = "shoulderToHem"
	Waist         CanonicalMeasurement = "waist"
	Hip           CanonicalMeasurement = "hip"
)

// ValueRange is a plausible [Min, Max] interval in centimeters
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the closed interval
func (r ValueRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// MeasurementDefinition describes one canonical measurement and the header phrases that name it.
// Range is only set for measurements that need value-based disambiguation.
type MeasurementDefinition struct {
	ID      CanonicalMeasurement
	Aliases []string
	Range   *ValueRange
}

// StandardMeasurements is walked in order when classifying headers; the first
// definition with a matching alias wins.
var StandardMeasurements = []MeasurementDefinition{
	{
		ID:      ChestPitToPit,
		Aliases: []string{"chest pit to pit", "pit to pit", "chest width", "chest (pit to pit)"},
		Range:   &ValueRange{Min: 45, Max: 60},
	},
	{
		ID:      ChestAround,
		Aliases: []string{"chest", "chest around", "chest circumference", "chest (around)"},
		Range:   &ValueRange{Min: 70, Max: 150},
	},
	{
		ID:      ShoulderToHem,
		Aliases: []string{"shoulder to hem", "length (shoulder to hem)", "total length"},
	},
	{
		ID:      Waist,
		Aliases: []string{"waist", "waist around", "waist circumference"},
	},
	{
		ID:      Hip,
		Aliases: []string{"hip", "hip around", "hip circumference"},
	},
}

// LookupMeasurement returns the definition for id
func LookupMeasurement(id CanonicalMeasurement) (MeasurementDefinition, bool) {
	for _, def := range StandardMeasurements {
		if def.ID == id {
			return def, true
		}
	}
	return MeasurementDefinition{}, false
}

// IsChest reports whether id is one of the two chest measurements that share the bare "chest" label
func (id CanonicalMeasurement) IsChest() bool {
	return id == ChestPitToPit || id == ChestAround
}

// Valid reports whether id is one of the standard measurements
func (id CanonicalMeasurement) Valid() bool {
	_, ok := LookupMeasurement(id)
	return ok
}

// MeasurementValue is either a single number or a closed range, in the chart's unit.
// Lo and Hi keep the order in which they appeared in the source text.
type MeasurementValue struct {
	Lo      float64
	Hi      float64
	IsRange bool
}

// SingleValue builds a non-range value
func SingleValue(v float64) MeasurementValue {
	return MeasurementValue{Lo: v, Hi: v}
}

// RangeValue builds a range value without reordering its bounds
func RangeValue(lo, hi float64) MeasurementValue {
	return MeasurementValue{Lo: lo, Hi: hi, IsRange: true}
}

// Inverted reports a range whose left bound is larger than its right bound (e.g. "91-86")
func (v MeasurementValue) Inverted() bool {
	return v.IsRange && v.Lo > v.Hi
}

// String renders a single value as a plain number and a range as "lo - hi"
func (v MeasurementValue) String() string {
	if v.IsRange {
		return formatNumber(v.Lo) + " - " + formatNumber(v.Hi)
	}
	return formatNumber(v.Lo)
}

// MarshalJSON renders single values as JSON numbers and ranges as "lo - hi" strings
func (v MeasurementValue) MarshalJSON() ([]byte, error) {
	if v.IsRange {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Lo)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// UserMeasurements holds a shopper's measurements in centimeters.
// Absent or non-positive entries are unavailable, never zero.
type UserMeasurements map[CanonicalMeasurement]float64

// Get returns the measurement for id when it is available
func (u UserMeasurements) Get(id CanonicalMeasurement) (float64, bool) {
	v, ok := u[id]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Available returns the number of usable measurements
func (u UserMeasurements) Available() int {
	n := 0
	for id := range u {
		if _, ok := u.Get(id); ok {
			n++
		}
	}
	return n
}

// MeasurementsFromNullable converts a wire map (null allowed) into UserMeasurements,
// dropping nulls, unknown names and non-positive values.
func MeasurementsFromNullable(raw map[string]*float64) UserMeasurements {
	out := make(UserMeasurements, len(raw))
	for name, v := range raw {
		id := CanonicalMeasurement(name)
		if v == nil || *v <= 0 || !id.Valid() {
			continue
		}
		out[id] = *v
	}
	return out
}

// StoredMeasurements is the measurement document returned by the measurements service
type StoredMeasurements struct {
	GarmentType  string              `json:"garmentType"`
	Unit         string              `json:"unit"`
	Measurements map[string]*float64 `json:"measurements"`
}

// String is used in debug logs
func (s StoredMeasurements) String() string {
	return fmt.Sprintf("%s (%s, %d values)", s.GarmentType, s.Unit, len(s.Measurements))
}
