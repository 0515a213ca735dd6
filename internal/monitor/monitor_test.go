package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/go-risk-alerts/internal/config"
	"github.com/mr1hm/go-risk-alerts/internal/models"
	"github.com/mr1hm/go-risk-alerts/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProfiles struct {
	profiles []models.AlertProfile
	err      error
}

func (f *fakeProfiles) SaveProfile(ctx context.Context, p *models.AlertProfile) error { return nil }

func (f *fakeProfiles) GetProfile(ctx context.Context, userID string) (*models.AlertProfile, error) {
	return nil, nil
}

func (f *fakeProfiles) ListMonitoredProfiles(ctx context.Context) ([]models.AlertProfile, error) {
	return f.profiles, f.err
}

func (f *fakeProfiles) DeleteProfile(ctx context.Context, userID string) error { return nil }

type fakeChecker struct {
	mu      sync.Mutex
	checked []string
	err     error
	done    chan struct{}
	want    int
}

func newFakeChecker(want int) *fakeChecker {
	return &fakeChecker{done: make(chan struct{}), want: want}
}

func (f *fakeChecker) CheckLocation(ctx context.Context, userID string) ([]models.TriggeredAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, userID)
	if len(f.checked) == f.want {
		close(f.done)
	}
	return nil, f.err
}

func (f *fakeChecker) users() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.checked...)
}

func monitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		Enabled:    true,
		Interval:   time.Hour,
		Count:      2,
		BufferSize: 8,
	}
}

func monitoredProfile(userID string) models.AlertProfile {
	return models.AlertProfile{
		UserID:   userID,
		Location: &models.Location{Label: "Hillside", Lat: 37.5, Lon: 127.0},
	}
}

func TestManager_SweepChecksEveryMonitoredProfile(t *testing.T) {
	profiles := &fakeProfiles{profiles: []models.AlertProfile{
		monitoredProfile("u1"),
		monitoredProfile("u2"),
		monitoredProfile("u3"),
	}}
	checker := newFakeChecker(3)

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(monitorConfig(), profiles, checker, observability.NewMetricsForTesting())
	m.Start(ctx)

	select {
	case <-checker.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the initial sweep")
	}

	cancel()
	m.Stop()

	users := checker.users()
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		seen[u] = true
	}
	for _, want := range []string{"u1", "u2", "u3"} {
		if !seen[want] {
			t.Errorf("profile %s never checked; checked: %v", want, users)
		}
	}
}

func TestManager_CheckerErrorsDoNotStopSweep(t *testing.T) {
	profiles := &fakeProfiles{profiles: []models.AlertProfile{
		monitoredProfile("u1"),
		monitoredProfile("u2"),
	}}
	checker := newFakeChecker(2)
	checker.err = errors.New("upstream down")

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(monitorConfig(), profiles, checker, observability.NewMetricsForTesting())
	m.Start(ctx)

	select {
	case <-checker.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the sweep")
	}

	cancel()
	m.Stop()

	if len(checker.users()) < 2 {
		t.Errorf("an erroring check must not stop the sweep: %v", checker.users())
	}
}

func TestManager_StopIsClean(t *testing.T) {
	profiles := &fakeProfiles{}

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(monitorConfig(), profiles, newFakeChecker(1), observability.NewMetricsForTesting())
	m.Start(ctx)

	cancel()
	m.Stop()
	// goleak in TestMain verifies no worker goroutines survive.
}

func TestManager_ListFailureIsSoft(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("database locked")}

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(monitorConfig(), profiles, newFakeChecker(1), observability.NewMetricsForTesting())
	m.Start(ctx)

	// Give the initial sweep a moment to hit the failing list call.
	time.Sleep(50 * time.Millisecond)

	cancel()
	m.Stop()
}
