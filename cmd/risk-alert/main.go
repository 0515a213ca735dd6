package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-risk-alerts/internal/api"
	"github.com/mr1hm/go-risk-alerts/internal/config"
	"github.com/mr1hm/go-risk-alerts/internal/dispatch"
	"github.com/mr1hm/go-risk-alerts/internal/fusion"
	"github.com/mr1hm/go-risk-alerts/internal/logging"
	"github.com/mr1hm/go-risk-alerts/internal/monitor"
	"github.com/mr1hm/go-risk-alerts/internal/observability"
	"github.com/mr1hm/go-risk-alerts/internal/repository"
	"github.com/mr1hm/go-risk-alerts/internal/risk"
	"github.com/mr1hm/go-risk-alerts/internal/scoring"
	"github.com/mr1hm/go-risk-alerts/internal/settings"
	"github.com/mr1hm/go-risk-alerts/internal/transport"
	"github.com/mr1hm/go-risk-alerts/internal/verify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Outbound channels degrade to always-failing senders when their
	// provider credentials are absent; deliveries are then recorded as
	// failed instead of crashing the engine.
	var email transport.EmailSender = transport.Disabled{Channel: "email"}
	if cfg.Email.SendGridAPIKey != "" && cfg.Email.FromEmail != "" {
		email = transport.NewSendGridMailer(cfg.Email.SendGridAPIKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}
	var sms transport.SMSSender = transport.Disabled{Channel: "sms"}
	if cfg.SMS.TwilioAccountSID != "" && cfg.SMS.TwilioAuthToken != "" && cfg.SMS.TwilioFromNumber != "" {
		sms = transport.NewTwilioSender(cfg.SMS.TwilioAccountSID, cfg.SMS.TwilioAuthToken, cfg.SMS.TwilioFromNumber)
	}

	elevation := fusion.NewElevationClient(cfg.Weather.ElevationURL, cfg.Weather.Timeout)
	weather := fusion.NewWeatherClient(cfg.Weather.ForecastURL, cfg.Weather.Timeout)
	fuser := fusion.NewFuser(elevation, weather)

	scorer := scoring.NewScorer(
		scoring.HeuristicLandslidePredictor{},
		scoring.HeuristicFloodPredictor{},
		cfg.Scoring.ReferenceDepthCM,
	)

	engine := risk.NewEngine(fuser, scorer, cfg.Bands, metrics)
	settingsSvc := settings.NewService(db, clock)
	verifier := verify.NewService(db, db, sms, cfg.Verification.TTL, clock, metrics)
	dispatcher := dispatch.NewDispatcher(db, db, email, sms, engine, cfg.Bands, clock, metrics)

	var mgr *monitor.Manager
	if cfg.Monitor.Enabled {
		mgr = monitor.NewManager(cfg.Monitor, db, dispatcher, metrics)
		mgr.Start(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit))

	handler := api.NewHandler(engine, dispatcher, settingsSvc, verifier, weather, db)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	if mgr != nil {
		mgr.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
