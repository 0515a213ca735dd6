package fusion

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Reading is one hourly weather observation.
type Reading struct {
	Hour        int     `json:"hour"`
	Time        string  `json:"time"`
	RainfallMM  float64 `json:"rainfall"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Forecast is a 24-hour hourly forecast with rainfall aggregates.
type Forecast struct {
	Hours   []Reading       `json:"forecast"`
	Summary ForecastSummary `json:"summary"`
}

type ForecastSummary struct {
	TotalRainfall float64 `json:"total_rainfall"`
	MaxRainfall   float64 `json:"max_rainfall"`
	AvgRainfall   float64 `json:"avg_rainfall"`
}

// WeatherClient fetches hourly forecasts from an open-meteo style
// forecast API.
type WeatherClient struct {
	baseURL string
	client  *http.Client
}

func NewWeatherClient(baseURL string, timeout time.Duration) *WeatherClient {
	if timeout <= 0 {
		timeout = defaultHTTPWindow
	}
	return &WeatherClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type forecastResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Precipitation []float64 `json:"precipitation"`
		Temperature   []float64 `json:"temperature_2m"`
		Humidity      []float64 `json:"relative_humidity_2m"`
		WindSpeed     []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// Current returns the first hour of the forecast, used as the live
// reading when a simulation requests it.
func (c *WeatherClient) Current(ctx context.Context, lat, lon float64) (Reading, error) {
	fc, err := c.Forecast(ctx, lat, lon)
	if err != nil {
		return Reading{}, err
	}
	if len(fc.Hours) == 0 {
		return Reading{}, fmt.Errorf("forecast returned no hours")
	}
	return fc.Hours[0], nil
}

// Forecast fetches up to 24 hourly readings for (lat, lon).
func (c *WeatherClient) Forecast(ctx context.Context, lat, lon float64) (Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", "precipitation,temperature_2m,relative_humidity_2m,wind_speed_10m")
	q.Set("forecast_days", "1")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Forecast{}, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Forecast{}, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	n := len(data.Hourly.Time)
	if n > 24 {
		n = 24
	}

	fc := Forecast{Hours: make([]Reading, 0, n)}
	for i := 0; i < n; i++ {
		r := Reading{Hour: i, Time: data.Hourly.Time[i]}
		if i < len(data.Hourly.Precipitation) {
			r.RainfallMM = data.Hourly.Precipitation[i]
		}
		if i < len(data.Hourly.Temperature) {
			r.Temperature = data.Hourly.Temperature[i]
		}
		if i < len(data.Hourly.Humidity) {
			r.Humidity = data.Hourly.Humidity[i]
		}
		if i < len(data.Hourly.WindSpeed) {
			r.WindSpeed = data.Hourly.WindSpeed[i]
		}
		fc.Hours = append(fc.Hours, r)
		fc.Summary.TotalRainfall += r.RainfallMM
		if r.RainfallMM > fc.Summary.MaxRainfall {
			fc.Summary.MaxRainfall = r.RainfallMM
		}
	}
	if len(fc.Hours) > 0 {
		fc.Summary.AvgRainfall = fc.Summary.TotalRainfall / float64(len(fc.Hours))
	}
	fc.Summary.TotalRainfall = round2(fc.Summary.TotalRainfall)
	fc.Summary.MaxRainfall = round2(fc.Summary.MaxRainfall)
	fc.Summary.AvgRainfall = round2(fc.Summary.AvgRainfall)

	return fc, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
