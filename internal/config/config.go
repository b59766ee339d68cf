package config

import (
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"

	"github.com/wikireviews/backend/internal/scoring"
)

// Scoring loads the score-calculator weights and thresholds from the
// environment. Defaults match the production tuning; nothing here is
// hardcoded into the calculator itself.
func Scoring() scoring.Params {
	return scoring.Params{
		VerificationWeight:  envFloat("SCORE_VERIFY_WEIGHT", 0.5),
		RecencyWeight:       envFloat("SCORE_RECENCY_WEIGHT", 0.3),
		HalfLifeDays:        envFloat("SCORE_RECENCY_HALF_LIFE_DAYS", 30),
		StaleThresholdDays:  envFloat("SCORE_STALE_THRESHOLD_DAYS", 180),
		StalePenalty:        envFloat("SCORE_STALE_PENALTY", 0.5),
		ConfidenceThreshold: envInt("SCORE_CONFIDENCE_THRESHOLD", 10),
		ConfidenceWeight:    envFloat("SCORE_CONFIDENCE_WEIGHT", 0.1),
		PendingThreshold:    envInt("SCORE_PENDING_THRESHOLD", 3),
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
