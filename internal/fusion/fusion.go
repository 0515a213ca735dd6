// Package fusion normalizes terrain, weather, and client-supplied
// simulation inputs into a feature vector for the risk scorer, plus an
// elevation profile for display.
package fusion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mr1hm/go-risk-alerts/internal/models"
)

// ElevationSource derives slope and profile data for a coordinate.
type ElevationSource interface {
	SlopeAndElevation(ctx context.Context, lat, lon float64) (slopeDeg, elevationM float64, err error)
	Profile(ctx context.Context, lat, lon float64) ([]float64, error)
}

// WeatherSource supplies a live weather reading for a coordinate.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (Reading, error)
}

// Result is the fused scorer input. SlopeMeasured is false when neither
// the client nor the elevation source could supply a slope, so a zero
// slope is never mistaken for confirmed flat terrain.
type Result struct {
	Features         models.FeatureVector
	ElevationProfile []float64
	SlopeMeasured    bool
	LiveWeatherUsed  bool
}

// Fuser combines client inputs with terrain and weather providers.
type Fuser struct {
	elevation ElevationSource
	weather   WeatherSource
}

func NewFuser(elevation ElevationSource, weather WeatherSource) *Fuser {
	return &Fuser{
		elevation: elevation,
		weather:   weather,
	}
}

// Fuse validates the simulation input and produces the feature vector.
// Weather and elevation provider failures degrade gracefully and never
// abort the request; only malformed input is an error.
func (f *Fuser) Fuse(ctx context.Context, in models.SimulationInput) (Result, error) {
	if err := validateInput(in); err != nil {
		return Result{}, err
	}

	res := Result{
		Features: models.FeatureVector{
			Lat:               in.Lat,
			Lon:               in.Lon,
			RainfallIntensity: in.RainfallIntensity,
			DurationHours:     in.DurationHours,
			SoilMoisture:      in.SoilMoisture,
			SlopeAngle:        in.SlopeAngle,
			Elevation:         in.Elevation,
			DrainageDensity:   in.DrainageDensity,
		},
	}

	if in.UseLiveWeather {
		reading, err := f.weather.Current(ctx, in.Lat, in.Lon)
		if err != nil {
			slog.Warn("live weather unavailable, using client rainfall",
				"lat", in.Lat, "lon", in.Lon, "error", err)
		} else {
			res.Features.RainfallIntensity = reading.RainfallMM
			res.LiveWeatherUsed = true
		}
	}

	profile, err := f.elevation.Profile(ctx, in.Lat, in.Lon)
	if err != nil {
		slog.Warn("elevation profile unavailable", "lat", in.Lat, "lon", in.Lon, "error", err)
	} else {
		res.ElevationProfile = profile
	}

	if in.SlopeAngle > 0 {
		res.SlopeMeasured = true
	} else {
		slope, elev, err := f.elevation.SlopeAndElevation(ctx, in.Lat, in.Lon)
		if err != nil {
			// No measurement anywhere: slope stays 0 and the caller is
			// told it is unmeasured.
			slog.Warn("slope derivation unavailable", "lat", in.Lat, "lon", in.Lon, "error", err)
		} else {
			res.Features.SlopeAngle = slope
			if in.Elevation == 0 {
				res.Features.Elevation = elev
			}
			res.SlopeMeasured = true
		}
	}

	return res, nil
}

func validateInput(in models.SimulationInput) error {
	if in.Lat < -90 || in.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90,90]", models.ErrInvalidInput, in.Lat)
	}
	if in.Lon < -180 || in.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180,180]", models.ErrInvalidInput, in.Lon)
	}
	if in.RainfallIntensity < 0 {
		return fmt.Errorf("%w: rainfall intensity %v must be non-negative", models.ErrInvalidInput, in.RainfallIntensity)
	}
	if in.DurationHours < 0 {
		return fmt.Errorf("%w: duration %d must be non-negative", models.ErrInvalidInput, in.DurationHours)
	}
	if in.SoilMoisture < 0 || in.SoilMoisture > 1 {
		return fmt.Errorf("%w: soil moisture %v out of range [0,1]", models.ErrInvalidInput, in.SoilMoisture)
	}
	if in.SlopeAngle < 0 {
		return fmt.Errorf("%w: slope angle %v must be non-negative", models.ErrInvalidInput, in.SlopeAngle)
	}
	if in.DrainageDensity < 0 {
		return fmt.Errorf("%w: drainage density %v must be non-negative", models.ErrInvalidInput, in.DrainageDensity)
	}
	return nil
}
