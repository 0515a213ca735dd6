package repository

import (
	"context"
	"time"

	"github.com/mr1hm/go-risk-alerts/internal/models"
)

type ProfileRepository interface {
	// SaveProfile upserts the whole profile atomically; a concurrent
	// reader never sees a partially applied write.
	SaveProfile(ctx context.Context, p *models.AlertProfile) error
	// GetProfile returns (nil, nil) when the user has no saved profile.
	GetProfile(ctx context.Context, userID string) (*models.AlertProfile, error)
	// ListMonitoredProfiles returns profiles with a monitored location.
	ListMonitoredProfiles(ctx context.Context) ([]models.AlertProfile, error)
	DeleteProfile(ctx context.Context, userID string) error
}

type VerificationRepository interface {
	// CreateRequest stores a new request and, in the same transaction,
	// marks every prior unconsumed request for the same (user, phone)
	// pair consumed. No window exists where two codes are valid.
	CreateRequest(ctx context.Context, req *models.VerificationRequest) error
	// LatestActiveRequest returns the newest unconsumed, unexpired
	// request for the user, or (nil, nil) when none exists.
	LatestActiveRequest(ctx context.Context, userID string, now time.Time) (*models.VerificationRequest, error)
	ConsumeRequest(ctx context.Context, id string) error
}

type HistoryRepository interface {
	// AppendHistory writes one immutable entry.
	AppendHistory(ctx context.Context, e *models.AlertHistoryEntry) error
	// ListHistory returns entries newest first.
	ListHistory(ctx context.Context, userID string, limit int) ([]models.AlertHistoryEntry, error)
	// ClearHistory deletes all of a user's entries and reports how many.
	ClearHistory(ctx context.Context, userID string) (int64, error)
}
