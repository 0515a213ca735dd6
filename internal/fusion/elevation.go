package fusion

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// stencilDelta is the coordinate offset of the four slope sample points
// around the center, roughly 90 m at the equator.
const (
	stencilDelta      = 0.0008
	stencilSpacingM   = 90.0
	profileSamples    = 10
	profileStepDeg    = 0.001
	defaultHTTPWindow = 10 * time.Second
)

// ElevationClient fetches terrain elevations from an open-meteo style
// elevation API.
type ElevationClient struct {
	baseURL string
	client  *http.Client
}

func NewElevationClient(baseURL string, timeout time.Duration) *ElevationClient {
	if timeout <= 0 {
		timeout = defaultHTTPWindow
	}
	return &ElevationClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type elevationResponse struct {
	Elevation []float64 `json:"elevation"`
}

// SlopeAndElevation derives the terrain slope at (lat, lon) from a
// five-point stencil: center plus north/south/east/west samples, with
// rise/run taken over the stencil spacing. Returns the slope in degrees
// and the center elevation in meters.
func (c *ElevationClient) SlopeAndElevation(ctx context.Context, lat, lon float64) (float64, float64, error) {
	lats := []float64{lat, lat + stencilDelta, lat - stencilDelta, lat, lat}
	lons := []float64{lon, lon, lon, lon + stencilDelta, lon - stencilDelta}

	elevs, err := c.fetch(ctx, lats, lons)
	if err != nil {
		return 0, 0, err
	}
	if len(elevs) != 5 {
		return 0, 0, fmt.Errorf("expected 5 elevation samples, got %d", len(elevs))
	}

	center, north, south, east, west := elevs[0], elevs[1], elevs[2], elevs[3], elevs[4]
	dzdx := (east - west) / (2 * stencilSpacingM)
	dzdy := (north - south) / (2 * stencilSpacingM)
	slope := math.Atan(math.Sqrt(dzdx*dzdx+dzdy*dzdy)) * 180 / math.Pi

	return math.Round(slope*100) / 100, center, nil
}

// Profile samples a north-south transect through (lat, lon) for the
// terrain chart. Display only, never a scoring input.
func (c *ElevationClient) Profile(ctx context.Context, lat, lon float64) ([]float64, error) {
	lats := make([]float64, 0, profileSamples)
	lons := make([]float64, 0, profileSamples)
	for i := -profileSamples / 2; i < profileSamples/2; i++ {
		lats = append(lats, lat+float64(i)*profileStepDeg)
		lons = append(lons, lon)
	}
	return c.fetch(ctx, lats, lons)
}

func (c *ElevationClient) fetch(ctx context.Context, lats, lons []float64) ([]float64, error) {
	q := url.Values{}
	q.Set("latitude", joinFloats(lats))
	q.Set("longitude", joinFloats(lons))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data elevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	return data.Elevation, nil
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
