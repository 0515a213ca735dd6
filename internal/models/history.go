package models

import "time"

// AlertType identifies which signal crossed its threshold.
type AlertType string

const (
	AlertTypeLandslide AlertType = "Landslide"
	AlertTypeFlood     AlertType = "Flood"
	AlertTypeRainfall  AlertType = "Rainfall"
)

// TriggeredAlert is one threshold crossing found by a check call.
type TriggeredAlert struct {
	Type      AlertType  `json:"type"`
	Value     float64    `json:"value"`
	Threshold float64    `json:"threshold"`
	Tier      Tier       `json:"-"`
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	EmailSent bool       `json:"email_sent"`
	SMSSent   bool       `json:"sms_sent"`
}

// AlertHistoryEntry is the append-only record of a triggered alert.
// Entries are immutable once written; deletion is bulk only.
type AlertHistoryEntry struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      AlertType  `json:"type"`
	Value     float64    `json:"value"`
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	Location  string     `json:"location"`
	EmailSent bool       `json:"email_sent"`
	SMSSent   bool       `json:"sms_sent"`
	CreatedAt time.Time  `json:"created_at"`
}
