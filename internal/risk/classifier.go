package risk

import (
	"math"
	"strings"
)

// Категории кризисов, известные классификатору
const (
	CategoryFire       = "Fire"
	CategoryFlood      = "Flood"
	CategoryGasLeak    = "Gas Leak"
	CategoryAccident   = "Accident"
	CategoryEarthquake = "Earthquake"
	CategoryUnknown    = "Unknown"
)

// Уровни серьёзности
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Assessment - результат оценки сообщения о кризисе
type Assessment struct {
	Score    float64
	Category string
	Severity string
}

// Classifier - подключаемая способность оценки риска.
// Оркестратор зависит только от интерфейса, что позволяет подставлять
// детерминированный дубль в тестах.
type Classifier interface {
	Classify(description, location string) Assessment
}

// severityValues - базовые значения уровней серьёзности
var severityValues = map[string]float64{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// categoryMultipliers - множители категорий кризиса
var categoryMultipliers = map[string]float64{
	CategoryFire:       1.5,
	CategoryFlood:      1.3,
	CategoryGasLeak:    1.7,
	CategoryAccident:   1.2,
	CategoryEarthquake: 2.0,
}

// KeywordClassifier - детерминированный классификатор по ключевым словам.
// Без побочных эффектов и без обращения к разделяемому состоянию.
type KeywordClassifier struct{}

// NewKeywordClassifier создает классификатор по ключевым словам
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify оценивает описание кризиса: категория по ключевым словам,
// серьёзность по формулировке, итоговый балл в диапазоне [0,5]
func (c *KeywordClassifier) Classify(description, location string) Assessment {
	category := normalizeCategory(description)
	severity := deriveSeverity(description)

	multiplier, ok := categoryMultipliers[category]
	if !ok {
		multiplier = 1.0
	}

	score := severityValues[severity] * multiplier
	score = math.Round(score*100) / 100
	if score > 5 {
		score = 5
	}

	return Assessment{
		Score:    score,
		Category: category,
		Severity: severity,
	}
}

// normalizeCategory приводит свободный текст к одной из известных категорий
func normalizeCategory(description string) string {
	text := strings.ToLower(description)

	switch {
	case strings.Contains(text, "fire"):
		return CategoryFire
	case strings.Contains(text, "flood"):
		return CategoryFlood
	case strings.Contains(text, "gas"):
		return CategoryGasLeak
	case strings.Contains(text, "accident"), strings.Contains(text, "explosion"):
		return CategoryAccident
	case strings.Contains(text, "earthquake"):
		return CategoryEarthquake
	}
	return CategoryUnknown
}

var (
	criticalWords = []string{"critical", "catastrophic", "devastating"}
	highWords     = []string{"massive", "major", "severe", "huge", "large"}
	lowWords      = []string{"minor", "small", "slight", "light"}
)

// deriveSeverity выводит серьёзность из формулировки описания
func deriveSeverity(description string) string {
	text := strings.ToLower(description)

	for _, w := range criticalWords {
		if strings.Contains(text, w) {
			return SeverityCritical
		}
	}
	for _, w := range highWords {
		if strings.Contains(text, w) {
			return SeverityHigh
		}
	}
	for _, w := range lowWords {
		if strings.Contains(text, w) {
			return SeverityLow
		}
	}
	return SeverityMedium
}
