package models

import (
	"testing"
	"time"
)

func TestTierLevel(t *testing.T) {
	cases := []struct {
		tier Tier
		want AlertLevel
	}{
		{TierNone, AlertLevelGreen},
		{TierWatch, AlertLevelYellow},
		{TierWarning, AlertLevelYellow},
		{TierEmergency, AlertLevelRed},
	}
	for _, tt := range cases {
		if got := tt.tier.Level(); got != tt.want {
			t.Errorf("%s.Level() = %s, want %s", tt.tier, got, tt.want)
		}
	}
}

func TestVerificationRequestActive(t *testing.T) {
	issued := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	req := VerificationRequest{
		IssuedAt:  issued,
		ExpiresAt: issued.Add(10 * time.Minute),
	}

	if !req.Active(issued.Add(5 * time.Minute)) {
		t.Error("request should be active before expiry")
	}
	if req.Active(issued.Add(10 * time.Minute)) {
		t.Error("request must expire exactly at the deadline")
	}

	req.Consumed = true
	if req.Active(issued.Add(5 * time.Minute)) {
		t.Error("consumed request must never be active")
	}
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile("u1")
	if p.UserID != "u1" {
		t.Errorf("user id = %q", p.UserID)
	}
	if p.LandslideThreshold != DefaultLandslideThreshold ||
		p.FloodThreshold != DefaultFloodThreshold ||
		p.RainfallThreshold != DefaultRainfallThreshold {
		t.Errorf("default thresholds mismatch: %+v", p)
	}
	if p.EnableEmail || p.EnableSMS || p.PhoneVerified || p.Location != nil {
		t.Errorf("defaults must start fully disabled: %+v", p)
	}
}
