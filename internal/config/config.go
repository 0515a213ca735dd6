package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	DB           DatabaseConfig
	Logging      LoggingConfig
	Scoring      ScoringConfig
	Bands        BandsConfig
	Weather      WeatherConfig
	Verification VerificationConfig
	Email        EmailConfig
	SMS          SMSConfig
	Monitor      MonitorConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	RateLimit int // requests per second, global
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

type ScoringConfig struct {
	// ReferenceDepthCM is the flood depth treated as 100% risk. The
	// regressor's depth estimate is scaled against it and saturates at
	// 100. Changing it rescales every flood risk number, so it must
	// stay stable across releases.
	ReferenceDepthCM float64
}

// Band holds the per-signal severity floors. A value below Watch is in
// no tier; floors must be ascending.
type Band struct {
	Watch     float64
	Warning   float64
	Emergency float64
}

type BandsConfig struct {
	Landslide Band // percent
	Flood     Band // percent
	Rainfall  Band // mm
}

type WeatherConfig struct {
	ElevationURL string
	ForecastURL  string
	Timeout      time.Duration
}

type VerificationConfig struct {
	TTL time.Duration
}

type EmailConfig struct {
	SendGridAPIKey string
	FromName       string
	FromEmail      string
}

type SMSConfig struct {
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
}

type MonitorConfig struct {
	Enabled    bool
	Interval   time.Duration
	Count      int
	BufferSize int
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateLimit: getEnvInt("RATE_LIMIT_RPS", 10),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/risk-alerts.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Scoring: ScoringConfig{
			ReferenceDepthCM: getEnvFloat("REFERENCE_DEPTH_CM", 250),
		},
		Bands: BandsConfig{
			Landslide: Band{
				Watch:     getEnvFloat("BAND_LANDSLIDE_WATCH", 70),
				Warning:   getEnvFloat("BAND_LANDSLIDE_WARNING", 85),
				Emergency: getEnvFloat("BAND_LANDSLIDE_EMERGENCY", 95),
			},
			Flood: Band{
				Watch:     getEnvFloat("BAND_FLOOD_WATCH", 60),
				Warning:   getEnvFloat("BAND_FLOOD_WARNING", 80),
				Emergency: getEnvFloat("BAND_FLOOD_EMERGENCY", 90),
			},
			Rainfall: Band{
				Watch:     getEnvFloat("BAND_RAINFALL_WATCH", 100),
				Warning:   getEnvFloat("BAND_RAINFALL_WARNING", 150),
				Emergency: getEnvFloat("BAND_RAINFALL_EMERGENCY", 200),
			},
		},
		Weather: WeatherConfig{
			ElevationURL: getEnv("ELEVATION_URL", "https://api.open-meteo.com/v1/elevation"),
			ForecastURL:  getEnv("FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
			Timeout:      getEnvDuration("WEATHER_TIMEOUT", 10*time.Second),
		},
		Verification: VerificationConfig{
			TTL: getEnvDuration("VERIFICATION_TTL", 10*time.Minute),
		},
		Email: EmailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromName:       getEnv("SENDGRID_FROM_NAME", "Risk Alerts"),
			FromEmail:      getEnv("SENDGRID_FROM_EMAIL", ""),
		},
		SMS: SMSConfig{
			TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			TwilioFromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		},
		Monitor: MonitorConfig{
			Enabled:    getEnvBool("MONITOR_ENABLED", false),
			Interval:   getEnvDuration("MONITOR_INTERVAL", 15*time.Minute),
			Count:      getEnvInt("MONITOR_WORKER_COUNT", 2),
			BufferSize: getEnvInt("MONITOR_BUFFER_SIZE", 50),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Scoring.ReferenceDepthCM <= 0 {
		return fmt.Errorf("reference depth must be positive, got %v", c.Scoring.ReferenceDepthCM)
	}

	bands := []struct {
		name string
		band Band
	}{
		{"landslide", c.Bands.Landslide},
		{"flood", c.Bands.Flood},
		{"rainfall", c.Bands.Rainfall},
	}
	for _, b := range bands {
		if b.band.Watch >= b.band.Warning || b.band.Warning >= b.band.Emergency {
			return fmt.Errorf("%s bands must be ascending: watch=%v warning=%v emergency=%v",
				b.name, b.band.Watch, b.band.Warning, b.band.Emergency)
		}
		if b.band.Watch < 0 {
			return fmt.Errorf("%s watch floor must be non-negative", b.name)
		}
	}

	if c.Verification.TTL < time.Minute {
		return fmt.Errorf("verification TTL must be at least 1 minute")
	}
	if c.Monitor.Interval < time.Minute {
		return fmt.Errorf("monitor interval must be at least 1 minute")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
