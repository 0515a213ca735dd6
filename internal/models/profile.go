package models

import "time"

// Location is a monitored point with a human-readable label.
type Location struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// AlertProfile is a user's persisted monitoring configuration.
type AlertProfile struct {
	UserID             string    `json:"user_id"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	EnableEmail        bool      `json:"enable_email"`
	EnableSMS          bool      `json:"enable_sms"`
	LandslideThreshold int       `json:"landslide_threshold"` // 0-100
	FloodThreshold     int       `json:"flood_threshold"`     // 0-100
	RainfallThreshold  float64   `json:"rainfall_threshold"`  // mm
	Location           *Location `json:"location,omitempty"`
	PhoneVerified      bool      `json:"phone_verified"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Default profile thresholds.
const (
	DefaultLandslideThreshold = 70
	DefaultFloodThreshold     = 60
	DefaultRainfallThreshold  = 100.0
)

// DefaultProfile returns the profile a user has before their first save.
func DefaultProfile(userID string) *AlertProfile {
	return &AlertProfile{
		UserID:             userID,
		LandslideThreshold: DefaultLandslideThreshold,
		FloodThreshold:     DefaultFloodThreshold,
		RainfallThreshold:  DefaultRainfallThreshold,
	}
}

// ProfileUpdate is a partial profile change. Nil fields are left as-is
// when merged onto the stored profile.
type ProfileUpdate struct {
	Email              *string   `json:"email"`
	Phone              *string   `json:"phone"`
	EnableEmail        *bool     `json:"enable_email"`
	EnableSMS          *bool     `json:"enable_sms"`
	LandslideThreshold *int      `json:"landslide_threshold"`
	FloodThreshold     *int      `json:"flood_threshold"`
	RainfallThreshold  *float64  `json:"rainfall_threshold"`
	Location           *Location `json:"location"`
	ClearLocation      *bool     `json:"clear_location"`
}
