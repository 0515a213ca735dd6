// Package risk runs the fusion -> scorer -> classifier pipeline that
// turns one simulation request into a risk snapshot.
package risk

import (
	"context"
	"errors"

	"github.com/mr1hm/go-risk-alerts/internal/config"
	"github.com/mr1hm/go-risk-alerts/internal/fusion"
	"github.com/mr1hm/go-risk-alerts/internal/models"
	"github.com/mr1hm/go-risk-alerts/internal/observability"
	"github.com/mr1hm/go-risk-alerts/internal/scoring"
)

type Engine struct {
	fuser   *fusion.Fuser
	scorer  *scoring.Scorer
	bands   config.BandsConfig
	metrics *observability.Metrics
}

func NewEngine(fuser *fusion.Fuser, scorer *scoring.Scorer, bands config.BandsConfig, metrics *observability.Metrics) *Engine {
	return &Engine{
		fuser:   fuser,
		scorer:  scorer,
		bands:   bands,
		metrics: metrics,
	}
}

// Simulate produces one ephemeral risk snapshot. The snapshot's alert
// level is always derived from its numeric fields against the system
// default bands. Scorer failure is fatal: no risk number is fabricated.
func (e *Engine) Simulate(ctx context.Context, in models.SimulationInput) (models.RiskSnapshot, error) {
	fused, err := e.fuser.Fuse(ctx, in)
	if err != nil {
		e.metrics.IncSimulation(outcomeFor(err))
		return models.RiskSnapshot{}, err
	}

	landslide, flood, err := e.scorer.Score(ctx, fused.Features)
	if err != nil {
		e.metrics.IncSimulation(outcomeFor(err))
		return models.RiskSnapshot{}, err
	}

	rainfall := fused.Features.RainfallIntensity
	c, err := scoring.Classify(landslide, flood, rainfall, e.bands)
	if err != nil {
		e.metrics.IncSimulation(outcomeFor(err))
		return models.RiskSnapshot{}, err
	}

	e.metrics.IncSimulation("success")
	return models.RiskSnapshot{
		LandslideRisk:    landslide,
		FloodRisk:        flood,
		SlopeDeg:         fused.Features.SlopeAngle,
		RainfallMM:       rainfall,
		AlertLevel:       c.Level,
		Recommendation:   c.Recommendation,
		ElevationProfile: fused.ElevationProfile,
		SlopeMeasured:    fused.SlopeMeasured,
	}, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_error"
	default:
		return "error"
	}
}
