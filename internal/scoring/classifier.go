package scoring

import (
	"fmt"

	"github.com/mr1hm/go-risk-alerts/internal/config"
	"github.com/mr1hm/go-risk-alerts/internal/models"
)

// Classification is the result of classifying one risk snapshot.
type Classification struct {
	Level          models.AlertLevel
	Recommendation string
	LandslideTier  models.Tier
	FloodTier      models.Tier
	RainfallTier   models.Tier
}

// recommendations is the fixed guidance table keyed by alert level.
var recommendations = map[models.AlertLevel]string{
	models.AlertLevelGreen:  "Conditions are stable. Keep emergency supplies accessible and stay informed through local disaster management channels.",
	models.AlertLevelYellow: "Elevated risk. Identify evacuation routes and monitor for warning signs such as ground cracks, tilting structures, or sudden changes in water flow.",
	models.AlertLevelRed:    "Evacuate to higher, stable ground immediately. Avoid valleys, drainage paths, and steep slopes. Alert local authorities and neighbors.",
}

// Recommendation returns the guidance text for a level.
func Recommendation(level models.AlertLevel) string {
	return recommendations[level]
}

// TierFor places a signal value in its severity band. Floors are
// inclusive, so a value sitting exactly on a boundary takes the more
// severe tier.
func TierFor(value float64, band config.Band) models.Tier {
	switch {
	case value >= band.Emergency:
		return models.TierEmergency
	case value >= band.Warning:
		return models.TierWarning
	case value >= band.Watch:
		return models.TierWatch
	default:
		return models.TierNone
	}
}

// Classify maps the three risk signals to a combined alert level and
// recommendation. It is pure and total for in-range inputs; out-of-range
// inputs are a caller error, since clamping already happened in the
// scorer.
func Classify(landslideRisk, floodRisk int, rainfallMM float64, bands config.BandsConfig) (Classification, error) {
	if landslideRisk < 0 || landslideRisk > 100 {
		return Classification{}, fmt.Errorf("%w: landslide risk %d out of range [0,100]", models.ErrInvalidInput, landslideRisk)
	}
	if floodRisk < 0 || floodRisk > 100 {
		return Classification{}, fmt.Errorf("%w: flood risk %d out of range [0,100]", models.ErrInvalidInput, floodRisk)
	}
	if rainfallMM < 0 {
		return Classification{}, fmt.Errorf("%w: rainfall %v must be non-negative", models.ErrInvalidInput, rainfallMM)
	}

	c := Classification{
		LandslideTier: TierFor(float64(landslideRisk), bands.Landslide),
		FloodTier:     TierFor(float64(floodRisk), bands.Flood),
		RainfallTier:  TierFor(rainfallMM, bands.Rainfall),
	}

	worst := c.LandslideTier
	if c.FloodTier > worst {
		worst = c.FloodTier
	}
	if c.RainfallTier > worst {
		worst = c.RainfallTier
	}

	c.Level = worst.Level()
	c.Recommendation = recommendations[c.Level]
	return c, nil
}

// BandsForProfile returns the system bands with each signal's Watch
// floor replaced by the profile's threshold. Warning and Emergency
// floors stay at the system values.
func BandsForProfile(bands config.BandsConfig, p *models.AlertProfile) config.BandsConfig {
	out := bands
	out.Landslide.Watch = float64(p.LandslideThreshold)
	out.Flood.Watch = float64(p.FloodThreshold)
	out.Rainfall.Watch = p.RainfallThreshold
	return out
}
