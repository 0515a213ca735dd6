package models

// AlertLevel is the combined severity of a risk snapshot.
type AlertLevel string

const (
	AlertLevelGreen  AlertLevel = "GREEN"
	AlertLevelYellow AlertLevel = "YELLOW"
	AlertLevelRed    AlertLevel = "RED"
)

// Tier is the per-signal severity band. Tiers are ordered so the
// combined level can take the worst of the three signals.
type Tier int

const (
	TierNone Tier = iota
	TierWatch
	TierWarning
	TierEmergency
)

func (t Tier) String() string {
	switch t {
	case TierWatch:
		return "WATCH"
	case TierWarning:
		return "WARNING"
	case TierEmergency:
		return "EMERGENCY"
	default:
		return "NONE"
	}
}

// Level maps a tier to the user-facing alert level.
func (t Tier) Level() AlertLevel {
	switch t {
	case TierEmergency:
		return AlertLevelRed
	case TierWatch, TierWarning:
		return AlertLevelYellow
	default:
		return AlertLevelGreen
	}
}

// SimulationInput is one simulation request. Optional terrain fields
// default to zero and are derived from elevation data when absent.
type SimulationInput struct {
	Lat               float64 `json:"lat"`
	Lon               float64 `json:"lon"`
	RainfallIntensity float64 `json:"rainfall_intensity"` // mm/hr
	DurationHours     int     `json:"duration_hours"`
	SoilMoisture      float64 `json:"soil_moisture"` // fraction 0..1
	SlopeAngle        float64 `json:"slope_angle"`   // degrees, 0 = derive
	Elevation         float64 `json:"elevation"`     // meters, 0 = derive
	DrainageDensity   float64 `json:"drainage_density"`
	UseLiveWeather    bool    `json:"use_live_weather"`
}

// FeatureVector is the normalized scorer input produced by fusion.
type FeatureVector struct {
	Lat               float64
	Lon               float64
	RainfallIntensity float64 // mm/hr, possibly overridden by live weather
	DurationHours     int
	SoilMoisture      float64
	SlopeAngle        float64 // degrees
	Elevation         float64 // meters
	DrainageDensity   float64
}

// RiskSnapshot is the ephemeral result of one simulation. The alert
// level is always computed from the numeric fields, never set directly.
type RiskSnapshot struct {
	LandslideRisk    int        `json:"landslide_risk"` // 0-100
	FloodRisk        int        `json:"flood_risk"`     // 0-100
	SlopeDeg         float64    `json:"slope_deg"`
	RainfallMM       float64    `json:"rainfall_mm"`
	AlertLevel       AlertLevel `json:"alert_level"`
	Recommendation   string     `json:"recommendation"`
	ElevationProfile []float64  `json:"elevation_profile,omitempty"`
	SlopeMeasured    bool       `json:"slope_measured"`
}
