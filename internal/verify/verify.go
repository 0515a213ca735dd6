// Package verify implements the one-time-code flow that gates SMS
// channel activation behind phone ownership.
package verify

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-risk-alerts/internal/models"
	"github.com/mr1hm/go-risk-alerts/internal/observability"
	"github.com/mr1hm/go-risk-alerts/internal/repository"
	"github.com/mr1hm/go-risk-alerts/internal/transport"
)

const codeDigits = 6

type Service struct {
	requests repository.VerificationRepository
	profiles repository.ProfileRepository
	sms      transport.SMSSender
	ttl      time.Duration
	clock    clockwork.Clock
	metrics  *observability.Metrics
}

func NewService(requests repository.VerificationRepository, profiles repository.ProfileRepository,
	sms transport.SMSSender, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		requests: requests,
		profiles: profiles,
		sms:      sms,
		ttl:      ttl,
		clock:    clock,
		metrics:  metrics,
	}
}

// Start issues a fresh code for (userID, phone), invalidating any prior
// outstanding code for the pair, and sends it out-of-band. The returned
// error reflects the send, not eventual delivery.
func (s *Service) Start(ctx context.Context, userID, phone string) error {
	if userID == "" || phone == "" {
		return fmt.Errorf("%w: user id and phone are required", models.ErrInvalidInput)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	now := s.clock.Now().UTC()
	req := &models.VerificationRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Phone:     phone,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.requests.CreateRequest(ctx, req); err != nil {
		return err
	}
	s.metrics.IncVerificationCode()

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes. Do not share it.",
		code, int(s.ttl.Minutes()))
	if err := s.sms.SendSMS(ctx, phone, body); err != nil {
		slog.Error("verification SMS send failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: verification SMS: %v", models.ErrUpstreamUnavailable, err)
	}

	slog.Info("verification code issued", "user_id", userID, "expires_at", req.ExpiresAt)
	return nil
}

// Confirm consumes the newest outstanding code for the user. On success
// the profile's phone is recorded as verified. Every failure collapses
// to the same generic mismatch error so callers cannot probe whether a
// code existed, was wrong, or had expired.
func (s *Service) Confirm(ctx context.Context, userID, code string) error {
	now := s.clock.Now().UTC()

	req, err := s.requests.LatestActiveRequest(ctx, userID, now)
	if err != nil {
		return err
	}
	if req == nil || req.Code != code {
		return models.ErrVerificationMismatch
	}

	if err := s.requests.ConsumeRequest(ctx, req.ID); err != nil {
		return err
	}

	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		p = models.DefaultProfile(userID)
		p.CreatedAt = now
	}
	p.Phone = req.Phone
	p.PhoneVerified = true
	p.UpdatedAt = now

	if err := s.profiles.SaveProfile(ctx, p); err != nil {
		return err
	}

	slog.Info("phone verified", "user_id", userID)
	return nil
}

// Status reports whether the user's phone is verified.
func (s *Service) Status(ctx context.Context, userID string) (verified bool, phone string, err error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return false, "", err
	}
	if p == nil {
		return false, "", nil
	}
	return p.PhoneVerified, p.Phone, nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
