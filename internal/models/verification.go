package models

import "time"

// VerificationRequest is one outstanding one-time code for a phone
// number. At most one unconsumed, unexpired request exists per
// (user_id, phone); issuing a new one invalidates the old.
type VerificationRequest struct {
	ID        string
	UserID    string
	Phone     string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// Active reports whether the request can still be confirmed at t.
func (v *VerificationRequest) Active(t time.Time) bool {
	return !v.Consumed && t.Before(v.ExpiresAt)
}
