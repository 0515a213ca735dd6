// Package monitor periodically re-evaluates every profile with a
// monitored location, so users get notified without opening the app.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/go-risk-alerts/internal/config"
	"github.com/mr1hm/go-risk-alerts/internal/models"
	"github.com/mr1hm/go-risk-alerts/internal/observability"
	"github.com/mr1hm/go-risk-alerts/internal/repository"
)

// Checker runs the live-location check for one user.
type Checker interface {
	CheckLocation(ctx context.Context, userID string) ([]models.TriggeredAlert, error)
}

type Manager struct {
	cfg      config.MonitorConfig
	profiles repository.ProfileRepository
	checker  Checker
	metrics  *observability.Metrics
	pool     *checkPool
	wg       sync.WaitGroup
}

func NewManager(cfg config.MonitorConfig, profiles repository.ProfileRepository,
	checker Checker, metrics *observability.Metrics) *Manager {
	return &Manager{
		cfg:      cfg,
		profiles: profiles,
		checker:  checker,
		metrics:  metrics,
	}
}

func (m *Manager) Start(ctx context.Context) {
	process := func(ctx context.Context, profile models.AlertProfile) {
		triggered, err := m.checker.CheckLocation(ctx, profile.UserID)
		if err != nil {
			// Profiles can lose their location between the sweep and
			// the check; that is not worth an error.
			if errors.Is(err, models.ErrNoMonitoredLocation) || errors.Is(err, models.ErrProfileNotFound) {
				return
			}
			slog.Error("monitored check failed", "user_id", profile.UserID, "error", err)
			return
		}
		if len(triggered) > 0 {
			slog.Info("monitored check triggered alerts", "user_id", profile.UserID, "count", len(triggered))
		}
	}

	m.pool = newCheckPool(m.cfg.Count, m.cfg.BufferSize, process)
	m.pool.Start(ctx)

	m.wg.Add(1)
	go m.run(ctx)
	m.metrics.SetMonitorRunning(true)
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	slog.Info("starting location monitor", "interval", m.cfg.Interval)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("location monitor shutting down")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	profiles, err := m.profiles.ListMonitoredProfiles(ctx)
	if err != nil {
		slog.Error("listing monitored profiles failed", "error", err)
		return
	}

	for _, p := range profiles {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.pool.Submit(p)
	}

	slog.Debug("monitor sweep complete", "count", len(profiles))
}

func (m *Manager) Stop() {
	m.wg.Wait()
	m.pool.Stop()
	m.metrics.SetMonitorRunning(false)
	slog.Info("location monitor stopped")
}
