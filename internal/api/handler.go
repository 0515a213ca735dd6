package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-risk-alerts/internal/dispatch"
	"github.com/mr1hm/go-risk-alerts/internal/fusion"
	"github.com/mr1hm/go-risk-alerts/internal/models"
	"github.com/mr1hm/go-risk-alerts/internal/repository"
)

// Simulator runs one simulation request.
type Simulator interface {
	Simulate(ctx context.Context, in models.SimulationInput) (models.RiskSnapshot, error)
}

// Checker evaluates risk snapshots against a user's thresholds.
type Checker interface {
	Check(ctx context.Context, userID string, in dispatch.CheckInput) ([]models.TriggeredAlert, error)
	CheckLocation(ctx context.Context, userID string) ([]models.TriggeredAlert, error)
}

// SettingsService saves and loads alert profiles.
type SettingsService interface {
	Save(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.AlertProfile, error)
	Load(ctx context.Context, userID string) (*models.AlertProfile, error)
}

// Verifier drives the phone verification flow.
type Verifier interface {
	Start(ctx context.Context, userID, phone string) error
	Confirm(ctx context.Context, userID, code string) error
	Status(ctx context.Context, userID string) (verified bool, phone string, err error)
}

// Forecaster fetches hourly weather forecasts.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64) (fusion.Forecast, error)
}

type Handler struct {
	simulator  Simulator
	checker    Checker
	settings   SettingsService
	verifier   Verifier
	forecaster Forecaster
	history    repository.HistoryRepository
}

func NewHandler(simulator Simulator, checker Checker, settings SettingsService,
	verifier Verifier, forecaster Forecaster, history repository.HistoryRepository) *Handler {
	return &Handler{
		simulator:  simulator,
		checker:    checker,
		settings:   settings,
		verifier:   verifier,
		forecaster: forecaster,
		history:    history,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/simulate", h.simulate)
	r.GET("/api/weather/forecast", h.forecast)
	r.GET("/api/alert/settings", h.getSettings)
	r.POST("/api/alert/settings", h.saveSettings)
	r.POST("/api/alert/verify/start", h.verifyStart)
	r.POST("/api/alert/verify/confirm", h.verifyConfirm)
	r.GET("/api/alert/verify/status", h.verifyStatus)
	r.POST("/api/alert/check", h.check)
	r.POST("/api/alert/check/location", h.checkLocation)
	r.GET("/api/alert/history", h.getHistory)
	r.DELETE("/api/alert/history", h.clearHistory)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) simulate(c *gin.Context) {
	var in models.SimulationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	snapshot, err := h.simulator.Simulate(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "results": snapshot})
}

func (h *Handler) forecast(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}

	fc, err := h.forecaster.Forecast(c.Request.Context(), lat, lon)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "weather provider unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"forecast": fc.Hours,
		"summary":  fc.Summary,
	})
}

func (h *Handler) getSettings(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	p, err := h.settings.Load(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "settings": p})
}

func (h *Handler) saveSettings(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	// Unknown fields are rejected rather than silently dropped, so a
	// typoed setting never half-applies.
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	var upd models.ProfileUpdate
	if err := dec.Decode(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
		return
	}

	p, err := h.settings.Save(c.Request.Context(), userID, upd)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "settings": p})
}

type verifyStartRequest struct {
	UserID string `json:"user_id"`
	Phone  string `json:"phone"`
}

func (h *Handler) verifyStart(c *gin.Context) {
	var req verifyStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	if err := h.verifier.Start(c.Request.Context(), req.UserID, req.Phone); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "verification code sent"})
}

type verifyConfirmRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

func (h *Handler) verifyConfirm(c *gin.Context) {
	var req verifyConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	if err := h.verifier.Confirm(c.Request.Context(), req.UserID, req.Code); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "phone number verified"})
}

func (h *Handler) verifyStatus(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	verified, phone, err := h.verifier.Status(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"status": "success", "verified": verified}
	if verified {
		resp["phone"] = phone
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) check(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	var in dispatch.CheckInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	triggered, err := h.checker.Check(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, checkResponse(triggered))
}

func (h *Handler) checkLocation(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	triggered, err := h.checker.CheckLocation(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, checkResponse(triggered))
}

func checkResponse(triggered []models.TriggeredAlert) gin.H {
	if triggered == nil {
		triggered = []models.TriggeredAlert{}
	}
	emailSent, smsSent := false, false
	for _, a := range triggered {
		emailSent = emailSent || a.EmailSent
		smsSent = smsSent || a.SMSSent
	}
	return gin.H{
		"status": "success",
		"alerts": triggered,
		"notifications": gin.H{
			"email_sent": emailSent,
			"sms_sent":   smsSent,
		},
	}
}

func (h *Handler) getHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := h.history.ListHistory(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	if entries == nil {
		entries = []models.AlertHistoryEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "alerts": entries})
}

func (h *Handler) clearHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	deleted, err := h.history.ClearHistory(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "deleted": deleted})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrVerificationMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "verification failed, request a new code"})
	case errors.Is(err, models.ErrProfileNotFound), errors.Is(err, models.ErrNoMonitoredLocation):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
