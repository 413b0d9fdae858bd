package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_MassiveFireIsHighRisk(t *testing.T) {
	c := NewKeywordClassifier()

	a := c.Classify("Massive fire at 4th street", "")

	assert.Equal(t, CategoryFire, a.Category)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.InDelta(t, 4.5, a.Score, 0.001)
}

func TestClassify_MinorFloodingIsLowRisk(t *testing.T) {
	c := NewKeywordClassifier()

	a := c.Classify("Minor street flooding", "")

	assert.Equal(t, CategoryFlood, a.Category)
	assert.Equal(t, SeverityLow, a.Severity)
	assert.Less(t, a.Score, 4.0)
}

func TestClassify_CategoryNormalization(t *testing.T) {
	c := NewKeywordClassifier()

	cases := []struct {
		description string
		category    string
	}{
		{"Fire reported downtown", CategoryFire},
		{"Flash flooding near the river", CategoryFlood},
		{"Gas smell in the basement", CategoryGasLeak},
		{"Traffic accident on highway", CategoryAccident},
		{"Explosion at the factory", CategoryAccident},
		{"Earthquake tremors felt", CategoryEarthquake},
		{"Strange noise in the park", CategoryUnknown},
	}

	for _, tc := range cases {
		a := c.Classify(tc.description, "")
		assert.Equal(t, tc.category, a.Category, "description: %s", tc.description)
	}
}

func TestClassify_ScoreIsClampedToFive(t *testing.T) {
	c := NewKeywordClassifier()

	// Critical(4) * Earthquake(2.0) = 8.0 -> обрезается до 5
	a := c.Classify("Catastrophic earthquake in the city center", "")

	assert.Equal(t, SeverityCritical, a.Severity)
	assert.Equal(t, 5.0, a.Score)
}

func TestClassify_IsDeterministic(t *testing.T) {
	c := NewKeywordClassifier()

	first := c.Classify("Severe gas leak at the refinery", "Chennai")
	second := c.Classify("Severe gas leak at the refinery", "Chennai")

	assert.Equal(t, first, second)
}
