package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/mr1hm/go-risk-alerts/internal/models"
)

// LandslidePredictor produces a landslide probability in [0,1] for a
// feature vector. Implementations are opaque; swapping one out must not
// change classifier behavior.
type LandslidePredictor interface {
	PredictProbability(ctx context.Context, fv models.FeatureVector) (float64, error)
}

// FloodPredictor produces a flood depth estimate in centimeters.
type FloodPredictor interface {
	PredictDepthCM(ctx context.Context, fv models.FeatureVector) (float64, error)
}

// Scorer converts the two predictor outputs into 0-100 risk
// percentages. The two scores are independent; coupling happens only in
// the classifier.
type Scorer struct {
	landslide        LandslidePredictor
	flood            FloodPredictor
	referenceDepthCM float64
}

func NewScorer(landslide LandslidePredictor, flood FloodPredictor, referenceDepthCM float64) *Scorer {
	return &Scorer{
		landslide:        landslide,
		flood:            flood,
		referenceDepthCM: referenceDepthCM,
	}
}

// Score runs both predictors. A predictor failure is fatal: no risk
// number can be fabricated.
func (s *Scorer) Score(ctx context.Context, fv models.FeatureVector) (landslideRisk, floodRisk int, err error) {
	prob, err := s.landslide.PredictProbability(ctx, fv)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: landslide predictor: %v", models.ErrUpstreamUnavailable, err)
	}
	depth, err := s.flood.PredictDepthCM(ctx, fv)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: flood predictor: %v", models.ErrUpstreamUnavailable, err)
	}

	landslideRisk = clampPercent(int(math.Round(prob * 100)))

	// Fixed saturation curve: depth at or beyond the reference depth is
	// 100% risk.
	floodRisk = clampPercent(int(math.Round(depth / s.referenceDepthCM * 100)))

	return landslideRisk, floodRisk, nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
