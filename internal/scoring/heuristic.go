package scoring

import (
	"context"

	"github.com/mr1hm/go-risk-alerts/internal/models"
)

// HeuristicLandslidePredictor is a rule-based stand-in for a trained
// classifier: steep slopes and intense rainfall dominate, with wet soil
// pushing the estimate up. It lets the engine run without model files.
type HeuristicLandslidePredictor struct{}

func (HeuristicLandslidePredictor) PredictProbability(_ context.Context, fv models.FeatureVector) (float64, error) {
	score := fv.SlopeAngle*2 + fv.RainfallIntensity/2
	score += fv.SoilMoisture * 10
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score / 100, nil
}

// HeuristicFloodPredictor estimates ponding depth from accumulated
// rainfall discounted by drainage. Runoff grows with soil saturation.
type HeuristicFloodPredictor struct{}

func (HeuristicFloodPredictor) PredictDepthCM(_ context.Context, fv models.FeatureVector) (float64, error) {
	drainage := fv.DrainageDensity
	if drainage < 0.1 {
		drainage = 0.1
	}
	runoff := 0.3 + 0.5*fv.SoilMoisture

	accumulated := fv.RainfallIntensity * float64(fv.DurationHours) // mm
	depth := accumulated * runoff / (drainage * 10)                 // cm
	if depth < 0 {
		depth = 0
	}
	return depth, nil
}
