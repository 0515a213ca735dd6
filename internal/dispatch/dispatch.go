// Package dispatch evaluates risk snapshots against user thresholds and
// delivers notifications through the user's enabled channels.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-risk-alerts/internal/config"
	"github.com/mr1hm/go-risk-alerts/internal/models"
	"github.com/mr1hm/go-risk-alerts/internal/observability"
	"github.com/mr1hm/go-risk-alerts/internal/repository"
	"github.com/mr1hm/go-risk-alerts/internal/scoring"
	"github.com/mr1hm/go-risk-alerts/internal/transport"
)

// Simulator runs the live pipeline for monitored-location checks.
type Simulator interface {
	Simulate(ctx context.Context, in models.SimulationInput) (models.RiskSnapshot, error)
}

// CheckInput is the risk snapshot a check call evaluates. It can come
// from a live simulation or be injected directly; both paths share the
// same evaluation code.
type CheckInput struct {
	LandslideRisk int     `json:"landslide_risk"`
	FloodRisk     int     `json:"flood_risk"`
	RainfallMM    float64 `json:"rainfall_mm"`
	Location      string  `json:"location"`
}

// Defaults for live-location simulations, matching the saved-location
// check the settings UI exposes.
const (
	liveDurationHours   = 24
	liveSoilMoisture    = 0.5
	liveDrainageDensity = 1.5
)

type Dispatcher struct {
	profiles  repository.ProfileRepository
	history   repository.HistoryRepository
	email     transport.EmailSender
	sms       transport.SMSSender
	simulator Simulator
	bands     config.BandsConfig
	clock     clockwork.Clock
	metrics   *observability.Metrics
}

func NewDispatcher(profiles repository.ProfileRepository, history repository.HistoryRepository,
	email transport.EmailSender, sms transport.SMSSender, simulator Simulator,
	bands config.BandsConfig, clock clockwork.Clock, metrics *observability.Metrics) *Dispatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Dispatcher{
		profiles:  profiles,
		history:   history,
		email:     email,
		sms:       sms,
		simulator: simulator,
		bands:     bands,
		clock:     clock,
		metrics:   metrics,
	}
}

// Check evaluates the snapshot against the user's thresholds. Each of
// the three signals is tested independently; each crossing produces one
// TriggeredAlert and exactly one history entry. Transport failures are
// recorded on the alert, never raised: Check fails only for structural
// errors such as a missing profile.
func (d *Dispatcher) Check(ctx context.Context, userID string, in CheckInput) ([]models.TriggeredAlert, error) {
	if in.LandslideRisk < 0 || in.LandslideRisk > 100 || in.FloodRisk < 0 || in.FloodRisk > 100 || in.RainfallMM < 0 {
		return nil, fmt.Errorf("%w: risk values out of range", models.ErrInvalidInput)
	}

	p, err := d.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.ErrProfileNotFound
	}

	location := in.Location
	if location == "" && p.Location != nil {
		location = p.Location.Label
	}

	bands := scoring.BandsForProfile(d.bands, p)

	var triggered []models.TriggeredAlert
	signals := []struct {
		crossed   bool
		alertType models.AlertType
		value     float64
		threshold float64
		band      config.Band
		unit      string
	}{
		{in.LandslideRisk >= p.LandslideThreshold, models.AlertTypeLandslide,
			float64(in.LandslideRisk), float64(p.LandslideThreshold), bands.Landslide, "%"},
		{in.FloodRisk >= p.FloodThreshold, models.AlertTypeFlood,
			float64(in.FloodRisk), float64(p.FloodThreshold), bands.Flood, "%"},
		{in.RainfallMM >= p.RainfallThreshold, models.AlertTypeRainfall,
			in.RainfallMM, p.RainfallThreshold, bands.Rainfall, "mm"},
	}

	for _, sig := range signals {
		if !sig.crossed {
			continue
		}
		tier := scoring.TierFor(sig.value, sig.band)
		alert := models.TriggeredAlert{
			Type:      sig.alertType,
			Value:     sig.value,
			Threshold: sig.threshold,
			Tier:      tier,
			Level:     tier.Level(),
			Message: fmt.Sprintf("%s risk at %v%s exceeds your threshold of %v%s",
				sig.alertType, sig.value, sig.unit, sig.threshold, sig.unit),
		}

		d.deliver(ctx, p, &alert)
		d.metrics.IncAlertTriggered(string(alert.Type), string(alert.Level))

		if err := d.record(ctx, p.UserID, location, alert); err != nil {
			return nil, err
		}

		triggered = append(triggered, alert)
	}

	return triggered, nil
}

// CheckLocation runs a live simulation for the user's monitored
// location and evaluates the result. This is the production path the
// background monitor uses; injected-snapshot checks share its
// evaluation via Check.
func (d *Dispatcher) CheckLocation(ctx context.Context, userID string) ([]models.TriggeredAlert, error) {
	p, err := d.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.ErrProfileNotFound
	}
	if p.Location == nil {
		return nil, models.ErrNoMonitoredLocation
	}

	snap, err := d.simulator.Simulate(ctx, models.SimulationInput{
		Lat:             p.Location.Lat,
		Lon:             p.Location.Lon,
		DurationHours:   liveDurationHours,
		SoilMoisture:    liveSoilMoisture,
		DrainageDensity: liveDrainageDensity,
		UseLiveWeather:  true,
	})
	if err != nil {
		return nil, err
	}

	return d.Check(ctx, userID, CheckInput{
		LandslideRisk: snap.LandslideRisk,
		FloodRisk:     snap.FloodRisk,
		RainfallMM:    snap.RainfallMM,
		Location:      p.Location.Label,
	})
}

// deliver attempts each eligible channel independently. SMS is refused
// without a verified phone regardless of the stored enable flag.
func (d *Dispatcher) deliver(ctx context.Context, p *models.AlertProfile, alert *models.TriggeredAlert) {
	if p.EnableEmail && p.Email != "" {
		if err := d.email.SendEmail(ctx, p.Email, emailSubject(alert), emailPlain(alert), emailHTML(alert)); err != nil {
			slog.Warn("email delivery failed", "user_id", p.UserID, "type", alert.Type, "error", err)
		} else {
			alert.EmailSent = true
		}
		d.metrics.IncNotification("email", alert.EmailSent)
	}

	if p.EnableSMS && p.PhoneVerified && p.Phone != "" {
		if err := d.sms.SendSMS(ctx, p.Phone, smsBody(alert)); err != nil {
			slog.Warn("sms delivery failed", "user_id", p.UserID, "type", alert.Type, "error", err)
		} else {
			alert.SMSSent = true
		}
		d.metrics.IncNotification("sms", alert.SMSSent)
	}
}

// record persists the history entry. The write survives cancellation of
// the surrounding check: a send that already happened must never be
// missing from history.
func (d *Dispatcher) record(ctx context.Context, userID, location string, alert models.TriggeredAlert) error {
	entry := &models.AlertHistoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      alert.Type,
		Value:     alert.Value,
		Level:     alert.Level,
		Message:   alert.Message,
		Location:  location,
		EmailSent: alert.EmailSent,
		SMSSent:   alert.SMSSent,
		CreatedAt: d.clock.Now().UTC(),
	}
	return d.history.AppendHistory(context.WithoutCancel(ctx), entry)
}

func emailSubject(a *models.TriggeredAlert) string {
	return fmt.Sprintf("%s alert: %s risk", a.Level, a.Type)
}

func emailPlain(a *models.TriggeredAlert) string {
	return fmt.Sprintf("%s\n\nSeverity: %s (%s)\n\n%s",
		a.Message, a.Level, a.Tier, scoring.Recommendation(a.Level))
}

func emailHTML(a *models.TriggeredAlert) string {
	return fmt.Sprintf(
		"<p><strong>%s alert: %s risk</strong></p><p>%s</p><p>Severity: %s (%s)</p><p>%s</p>",
		a.Level, a.Type, a.Message, a.Level, a.Tier, scoring.Recommendation(a.Level))
}

func smsBody(a *models.TriggeredAlert) string {
	return fmt.Sprintf("%s ALERT: %s. %s", a.Level, a.Message, scoring.Recommendation(a.Level))
}
