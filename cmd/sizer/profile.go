package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/taylorfit/backend/internal/domain"
	"github.com/taylorfit/backend/internal/usecase"
)

// profile is a shopper's measurement file:
//
//	unit = "in"
//	[measurements]
//	chestAround = 37
//	waist = 32
type profile struct {
	Unit         string             `toml:"unit"`
	Measurements map[string]float64 `toml:"measurements"`
}

// loadProfile reads a TOML profile and returns its measurements in centimeters
func loadProfile(path string) (domain.UserMeasurements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	unit := usecase.UnitCentimeters
	if p.Unit != "" {
		unit = usecase.NormalizeUnit(p.Unit)
		if unit == "" {
			return nil, fmt.Errorf("profile %s: unknown unit %q", path, p.Unit)
		}
	}

	user := domain.UserMeasurements{}
	for name, v := range p.Measurements {
		id := domain.CanonicalMeasurement(name)
		if !id.Valid() {
			return nil, fmt.Errorf("profile %s: unknown measurement %q", path, name)
		}
		if v <= 0 {
			continue
		}
		user[id] = usecase.Convert(domain.SingleValue(v), unit, usecase.UnitCentimeters).Lo
	}
	return user, nil
}
