// Package settings manages per-user alert profiles: merge-style
// partial saves with validation, and defaulted loads.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-risk-alerts/internal/models"
	"github.com/mr1hm/go-risk-alerts/internal/repository"
)

type Service struct {
	profiles repository.ProfileRepository
	clock    clockwork.Clock
}

func NewService(profiles repository.ProfileRepository, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		profiles: profiles,
		clock:    clock,
	}
}

// Save merges the update onto the stored profile (or the defaults on
// first save), validates the result, and writes it atomically. The
// stored profile is unchanged when validation fails.
func (s *Service) Save(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.AlertProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidProfile)
	}

	now := s.clock.Now().UTC()

	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = models.DefaultProfile(userID)
		p.CreatedAt = now
	}

	merge(p, upd)
	p.UpdatedAt = now

	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.profiles.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load returns the stored profile, or the defaults for a user who has
// never saved one.
func (s *Service) Load(ctx context.Context, userID string) (*models.AlertProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return models.DefaultProfile(userID), nil
	}
	return p, nil
}

// Delete removes the profile entirely. Explicit user action only.
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.profiles.DeleteProfile(ctx, userID)
}

func merge(p *models.AlertProfile, upd models.ProfileUpdate) {
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.Phone != nil && *upd.Phone != p.Phone {
		// A new number voids the old verification; SMS stays off until
		// the new number is confirmed.
		p.Phone = *upd.Phone
		p.PhoneVerified = false
		p.EnableSMS = false
	}
	if upd.EnableEmail != nil {
		p.EnableEmail = *upd.EnableEmail
	}
	if upd.EnableSMS != nil {
		p.EnableSMS = *upd.EnableSMS
	}
	if upd.LandslideThreshold != nil {
		p.LandslideThreshold = *upd.LandslideThreshold
	}
	if upd.FloodThreshold != nil {
		p.FloodThreshold = *upd.FloodThreshold
	}
	if upd.RainfallThreshold != nil {
		p.RainfallThreshold = *upd.RainfallThreshold
	}
	if upd.ClearLocation != nil && *upd.ClearLocation {
		p.Location = nil
	} else if upd.Location != nil {
		loc := *upd.Location
		p.Location = &loc
	}
}

func validate(p *models.AlertProfile) error {
	if p.EnableSMS && !p.PhoneVerified {
		return fmt.Errorf("%w: SMS alerts require a verified phone number", models.ErrInvalidProfile)
	}
	if p.EnableEmail && p.Email == "" {
		return fmt.Errorf("%w: email alerts require an email address", models.ErrInvalidProfile)
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		return fmt.Errorf("%w: malformed email address", models.ErrInvalidProfile)
	}
	if p.LandslideThreshold < 0 || p.LandslideThreshold > 100 {
		return fmt.Errorf("%w: landslide threshold %d out of range [0,100]", models.ErrInvalidProfile, p.LandslideThreshold)
	}
	if p.FloodThreshold < 0 || p.FloodThreshold > 100 {
		return fmt.Errorf("%w: flood threshold %d out of range [0,100]", models.ErrInvalidProfile, p.FloodThreshold)
	}
	if p.RainfallThreshold < 0 {
		return fmt.Errorf("%w: rainfall threshold %v must be non-negative", models.ErrInvalidProfile, p.RainfallThreshold)
	}
	if p.Location != nil {
		if p.Location.Lat < -90 || p.Location.Lat > 90 {
			return fmt.Errorf("%w: location latitude %v out of range", models.ErrInvalidProfile, p.Location.Lat)
		}
		if p.Location.Lon < -180 || p.Location.Lon > 180 {
			return fmt.Errorf("%w: location longitude %v out of range", models.ErrInvalidProfile, p.Location.Lon)
		}
	}
	return nil
}
