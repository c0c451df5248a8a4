package usecase

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taylorfit/backend/internal/domain"
)

func TestCleanMeasurementName(t *testing.T) {
	tests := map[string]string{
		"Chest (in)":               "chest",
		"Chest (Pit to Pit)":       "chest pit to pit",
		"  CHEST   Around (cm) ":   "chest around",
		"Length (Shoulder to Hem)": "length shoulder to hem",
		"Hip":                      "hip",
		"Chest (Pit to Pit) (in.)": "chest pit to pit",
	}
	for header, want := range tests {
		t.Run(header, func(t *testing.T) {
			assert.Equal(t, want, CleanMeasurementName(header))
		})
	}
}

func TestMeasurementClassifier_Classify(t *testing.T) {
	classifier := NewMeasurementClassifier(zerolog.Nop(), true)

	tests := []struct {
		name           string
		header         string
		sample         string
		wantMatch      bool
		wantCanonical  domain.CanonicalMeasurement
		wantConfidence domain.Confidence
		wantReason     string
	}{
		{"explicit pit to pit", "Chest (Pit to Pit)", "95", true, domain.ChestPitToPit, domain.ConfidenceHigh, ReasonExplicitName},
		{"explicit pit to pit ignores sample", "Chest (Pit to Pit)", "not a number", true, domain.ChestPitToPit, domain.ConfidenceHigh, ReasonExplicitName},
		{"explicit around", "Chest Around (cm)", "20", true, domain.ChestAround, domain.ConfidenceHigh, ReasonExplicitName},
		{"pit to pit without chest", "Pit to Pit", "50", true, domain.ChestPitToPit, domain.ConfidenceHigh, ReasonExplicitName},
		{"bare chest circumference sample", "Chest", "95", true, domain.ChestAround, domain.ConfidenceMedium, ReasonAmbiguousChest},
		{"bare chest width sample", "Chest", "52", true, domain.ChestPitToPit, domain.ConfidenceMedium, ReasonAmbiguousChest},
		{"bare chest range sample", "Chest (cm)", "91.44 - 96.52", true, domain.ChestAround, domain.ConfidenceMedium, ReasonAmbiguousChest},
		{"bare chest outside both ranges", "Chest", "40", false, "", "", ""},
		{"range straddling a bound", "Chest", "58 - 72", false, "", "", ""},
		{"bare chest unparseable sample", "Chest", "", false, "", "", ""},
		{"waist", "Waist (in)", "30", true, domain.Waist, domain.ConfidenceHigh, ReasonNameMatch},
		{"hip circumference", "Hip Circumference", "", true, domain.Hip, domain.ConfidenceHigh, ReasonNameMatch},
		{"shoulder to hem", "Length (Shoulder to Hem)", "70", true, domain.ShoulderToHem, domain.ConfidenceHigh, ReasonNameMatch},
		{"total length", "Total Length", "70", true, domain.ShoulderToHem, domain.ConfidenceHigh, ReasonNameMatch},
		{"unknown header", "Sleeve", "60", false, "", "", ""},
		{"bare length is not shoulder to hem", "Length", "70", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.header, tt.sample)
			if !tt.wantMatch {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCanonical, got.Canonical)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestClassifyAmbiguousChest(t *testing.T) {
	tests := []struct {
		sample string
		want   domain.CanonicalMeasurement
		ok     bool
	}{
		{"45", domain.ChestPitToPit, true},
		{"60", domain.ChestPitToPit, true},
		{"48 - 52", domain.ChestPitToPit, true},
		{"70", domain.ChestAround, true},
		{"150", domain.ChestAround, true},
		{"86-91", domain.ChestAround, true},
		{"61", "", false},
		{"151", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.sample, func(t *testing.T) {
			got, ok := ClassifyAmbiguousChest(tt.sample)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandardMeasurements_Order(t *testing.T) {
	// first match wins, so pit-to-pit must be declared before chestAround
	ids := make([]domain.CanonicalMeasurement, 0, len(domain.StandardMeasurements))
	for _, def := range domain.StandardMeasurements {
		ids = append(ids, def.ID)
	}
	assert.Equal(t, []domain.CanonicalMeasurement{
		domain.ChestPitToPit, domain.ChestAround, domain.ShoulderToHem, domain.Waist, domain.Hip,
	}, ids)
}
