package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-risk-alerts/internal/config"
	"github.com/mr1hm/go-risk-alerts/internal/models"
	"github.com/mr1hm/go-risk-alerts/internal/observability"
)

type memProfiles struct {
	profiles map[string]models.AlertProfile
}

func (m *memProfiles) SaveProfile(ctx context.Context, p *models.AlertProfile) error {
	m.profiles[p.UserID] = *p
	return nil
}

func (m *memProfiles) GetProfile(ctx context.Context, userID string) (*models.AlertProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (m *memProfiles) ListMonitoredProfiles(ctx context.Context) ([]models.AlertProfile, error) {
	return nil, nil
}

func (m *memProfiles) DeleteProfile(ctx context.Context, userID string) error {
	delete(m.profiles, userID)
	return nil
}

type memHistory struct {
	entries   []models.AlertHistoryEntry
	appendErr error
}

func (m *memHistory) AppendHistory(ctx context.Context, e *models.AlertHistoryEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memHistory) ListHistory(ctx context.Context, userID string, limit int) ([]models.AlertHistoryEntry, error) {
	return m.entries, nil
}

func (m *memHistory) ClearHistory(ctx context.Context, userID string) (int64, error) {
	n := int64(len(m.entries))
	m.entries = nil
	return n, nil
}

type mockEmail struct {
	sent []string
	err  error
}

func (m *mockEmail) SendEmail(ctx context.Context, to, subject, plainText, htmlContent string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type mockSMS struct {
	sent []string
	err  error
}

func (m *mockSMS) SendSMS(ctx context.Context, to, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type mockSimulator struct {
	snap models.RiskSnapshot
	err  error

	gotInput models.SimulationInput
}

func (m *mockSimulator) Simulate(ctx context.Context, in models.SimulationInput) (models.RiskSnapshot, error) {
	m.gotInput = in
	return m.snap, m.err
}

func testBands() config.BandsConfig {
	return config.BandsConfig{
		Landslide: config.Band{Watch: 70, Warning: 85, Emergency: 95},
		Flood:     config.Band{Watch: 60, Warning: 80, Emergency: 90},
		Rainfall:  config.Band{Watch: 100, Warning: 150, Emergency: 200},
	}
}

type fixture struct {
	dispatcher *Dispatcher
	profiles   *memProfiles
	history    *memHistory
	email      *mockEmail
	sms        *mockSMS
	simulator  *mockSimulator
}

func newFixture() *fixture {
	f := &fixture{
		profiles:  &memProfiles{profiles: make(map[string]models.AlertProfile)},
		history:   &memHistory{},
		email:     &mockEmail{},
		sms:       &mockSMS{},
		simulator: &mockSimulator{},
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC))
	f.dispatcher = NewDispatcher(f.profiles, f.history, f.email, f.sms, f.simulator,
		testBands(), clock, observability.NewMetricsForTesting())
	return f
}

func emailProfile(userID string) models.AlertProfile {
	return models.AlertProfile{
		UserID:             userID,
		Email:              "user@example.com",
		EnableEmail:        true,
		LandslideThreshold: 70,
		FloodThreshold:     60,
		RainfallThreshold:  100,
	}
}

func TestCheck_NoCrossingsNoAlerts(t *testing.T) {
	f := newFixture()
	f.profiles.profiles["u1"] = emailProfile("u1")

	alerts, err := f.dispatcher.Check(context.Background(), "u1", CheckInput{
		LandslideRisk: 10, FloodRisk: 10, RainfallMM: 5,
	})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %+v", alerts)
	}
	if len(f.history.entries) != 0 {
		t.Errorf("no history should be written, got %+v", f.history.entries)
	}
	if len(f.email.sent) != 0 {
		t.Errorf("no email should be sent, got %v", f.email.sent)
	}
}

func TestCheck_SingleCrossing(t *testing.T) {
	f := newFixture()
	f.profiles.profiles["u1"] = emailProfile("u1")

	alerts, err := f.dispatcher.Check(context.Background(), "u1", CheckInput{
		LandslideRisk: 85, FloodRisk: 40, RainfallMM: 50, Location: "Hillside Village",
	})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}

	a := alerts[0]
	if a.Type != models.AlertTypeLandslide {
		t.Errorf("type = %s, want Landslide", a.Type)
	}
	if a.Level != models.AlertLevelYellow {
		t.Errorf("85 sits in the warning band, so level = %s, want YELLOW", a.Level)
	}
	if a.Value != 85 || a.Threshold != 70 {
		t.Errorf("value/threshold mismatch: %+v", a)
	}
	if !a.EmailSent {
		t.Error("email channel enabled, expected EmailSent")
	}
	if a.SMSSent {
		t.Error("SMS not enabled, must not send")
	}

	if len(f.history.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(f.history.entries))
	}
	e := f.history.entries[0]
	if e.Type != models.AlertTypeLandslide || e.Location != "Hillside Village" || !e.EmailSent {
		t.Errorf("history entry mismatch: %+v", e)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("entry missing id or timestamp: %+v", e)
	}
}

func TestCheck_AllThreeCross(t *testing.T) {
	f := newFixture()
	f.profiles.profiles["u1"] = emailProfile("u1")

	alerts, err := f.dispatcher.Check(context.Background(), "u1", CheckInput{
		LandslideRisk: 96, FloodRisk: 91, RainfallMM: 210,
	})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts))
	}
	for _, a := range alerts {
		if a.Level != models.AlertLevelRed {
			t.Errorf("%s alert level = %s, want RED", a.Type, a.Level)
		}
	}
	if len(f.history.entries) != 3 {
		t.Errorf("expected one history entry per alert, got %d", len(f.history.entries))
	}
	if len(f.email.sent) != 3 {
		t.Errorf("expected one email per alert, got %d", len(f.email.sent))
	}
}

func TestCheck_CustomThresholdBelowWatchBand(t *testing.T) {
	f := newFixture()
	p := emailProfile("u1")
	p.LandslideThreshold = 40
	f.profiles.profiles["u1"] = p

	alerts, err := f.dispatcher.Check(context.Background(), "u1", CheckInput{LandslideRisk: 45})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert for a crossed custom threshold, got %d", len(alerts))
	}
	if alerts[0].Tier != models.TierWatch || alerts[0].Level != models.AlertLevelYellow {
		t.Errorf("custom threshold crossing must be at least a watch: %+v", alerts[0])
	}
}

func TestCheck_EmailFailureStillRecordsHistory(t *testing.T) {
	f := newFixture()
	f.profiles.profiles["u1"] = emailProfile("u1")
	f.email.err = errors.New("smtp refused")

	alerts, err := f.dispatcher.Check(context.Background(), "u1", CheckInput{LandslideRisk: 85})
	if err != nil {
		t.Fatalf("transport failure must not fail the check: %v", err)
	}
	if len(alerts) != 1 || alerts[0].EmailSent {
		t.Errorf("expected alert with EmailSent=false, got %+v", alerts)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].EmailSent {
		t.Errorf("history must record the failed send: %+v", f.history.entries)
	}
}

func TestCheck_SMSRequiresVerifiedPhone(t *testing.T) {
	f := newFixture()
	p := emailProfile("u1")
	p.EnableEmail = false
	p.EnableSMS = true
	p.Phone = "+15551234567"
	p.PhoneVerified = false // stale flag, e.g. written before a phone change
	f.profiles.profiles["u1"] = p

	alerts, err := f.dispatcher.Check(context.Background(), "u1", CheckInput{LandslideRisk: 85})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(f.sms.sent) != 0 {
		t.Errorf("unverified phone must never receive SMS, sent to %v", f.sms.sent)
	}
	if alerts[0].SMSSent {
		t.Error("SMSSent must be false for an unverified phone")
	}
}

func TestCheck_SMSSentWhenVerified(t *testing.T) {
	f := newFixture()
	p := emailProfile("u1")
	p.EnableSMS = true
	p.Phone = "+15551234567"
	p.PhoneVerified = true
	f.profiles.profiles["u1"] = p

	alerts, err := f.dispatcher.Check(context.Background(), "u1", CheckInput{LandslideRisk: 85})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(f.sms.sent) != 1 || f.sms.sent[0] != "+15551234567" {
		t.Errorf("expected one SMS, got %v", f.sms.sent)
	}
	if !alerts[0].SMSSent || !alerts[0].EmailSent {
		t.Errorf("both channels should have delivered: %+v", alerts[0])
	}
	if !f.history.entries[0].SMSSent {
		t.Errorf("history must record the SMS send: %+v", f.history.entries[0])
	}
}

func TestCheck_MissingProfile(t *testing.T) {
	f := newFixture()

	_, err := f.dispatcher.Check(context.Background(), "stranger", CheckInput{LandslideRisk: 85})
	if !errors.Is(err, models.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestCheck_OutOfRangeInput(t *testing.T) {
	f := newFixture()
	f.profiles.profiles["u1"] = emailProfile("u1")

	cases := []CheckInput{
		{LandslideRisk: -1},
		{LandslideRisk: 101},
		{FloodRisk: 120},
		{RainfallMM: -5},
	}
	for _, in := range cases {
		if _, err := f.dispatcher.Check(context.Background(), "u1", in); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestCheck_HistoryFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.profiles.profiles["u1"] = emailProfile("u1")
	f.history.appendErr = errors.New("disk full")

	if _, err := f.dispatcher.Check(context.Background(), "u1", CheckInput{LandslideRisk: 85}); err == nil {
		t.Error("a failed history write must surface as an error")
	}
}

func TestCheckLocation(t *testing.T) {
	f := newFixture()
	p := emailProfile("u1")
	p.Location = &models.Location{Label: "Riverside", Lat: 35.1, Lon: 128.9}
	f.profiles.profiles["u1"] = p
	f.simulator.snap = models.RiskSnapshot{LandslideRisk: 85, FloodRisk: 10, RainfallMM: 20}

	alerts, err := f.dispatcher.CheckLocation(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CheckLocation failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Type != models.AlertTypeLandslide {
		t.Fatalf("expected one landslide alert, got %+v", alerts)
	}

	in := f.simulator.gotInput
	if in.Lat != 35.1 || in.Lon != 128.9 || !in.UseLiveWeather {
		t.Errorf("simulation input mismatch: %+v", in)
	}
	if in.DurationHours != liveDurationHours || in.SoilMoisture != liveSoilMoisture {
		t.Errorf("live defaults not applied: %+v", in)
	}
	if f.history.entries[0].Location != "Riverside" {
		t.Errorf("history must carry the monitored location label: %+v", f.history.entries[0])
	}
}

func TestCheckLocation_NoLocation(t *testing.T) {
	f := newFixture()
	f.profiles.profiles["u1"] = emailProfile("u1")

	if _, err := f.dispatcher.CheckLocation(context.Background(), "u1"); !errors.Is(err, models.ErrNoMonitoredLocation) {
		t.Errorf("expected ErrNoMonitoredLocation, got %v", err)
	}
}

func TestCheckLocation_MissingProfile(t *testing.T) {
	f := newFixture()

	if _, err := f.dispatcher.CheckLocation(context.Background(), "stranger"); !errors.Is(err, models.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestCheckLocation_SimulationFailure(t *testing.T) {
	f := newFixture()
	p := emailProfile("u1")
	p.Location = &models.Location{Label: "Riverside", Lat: 35.1, Lon: 128.9}
	f.profiles.profiles["u1"] = p
	f.simulator.err = errors.New("predictor offline")

	if _, err := f.dispatcher.CheckLocation(context.Background(), "u1"); err == nil {
		t.Error("simulation failure must surface")
	}
	if len(f.history.entries) != 0 {
		t.Errorf("no history on a failed simulation, got %+v", f.history.entries)
	}
}
