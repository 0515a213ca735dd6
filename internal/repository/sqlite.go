package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-risk-alerts/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alert_profiles (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			enable_email INTEGER NOT NULL DEFAULT 0,
			enable_sms INTEGER NOT NULL DEFAULT 0,
			landslide_threshold INTEGER NOT NULL,
			flood_threshold INTEGER NOT NULL,
			rainfall_threshold REAL NOT NULL,
			location_label TEXT,
			location_lat REAL,
			location_lon REAL,
			phone_verified INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS verification_requests (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			phone TEXT NOT NULL,
			code TEXT NOT NULL,
			issued_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			consumed INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS alert_history (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			value REAL NOT NULL,
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			email_sent INTEGER NOT NULL DEFAULT 0,
			sms_sent INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_verification_user ON verification_requests(user_id, issued_at);
		CREATE INDEX IF NOT EXISTS idx_history_user_created ON alert_history(user_id, created_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) SaveProfile(ctx context.Context, p *models.AlertProfile) error {
	var label sql.NullString
	var lat, lon sql.NullFloat64
	if p.Location != nil {
		label = sql.NullString{String: p.Location.Label, Valid: true}
		lat = sql.NullFloat64{Float64: p.Location.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: p.Location.Lon, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_profiles (
			user_id, email, phone, enable_email, enable_sms,
			landslide_threshold, flood_threshold, rainfall_threshold,
			location_label, location_lat, location_lon,
			phone_verified, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			phone = excluded.phone,
			enable_email = excluded.enable_email,
			enable_sms = excluded.enable_sms,
			landslide_threshold = excluded.landslide_threshold,
			flood_threshold = excluded.flood_threshold,
			rainfall_threshold = excluded.rainfall_threshold,
			location_label = excluded.location_label,
			location_lat = excluded.location_lat,
			location_lon = excluded.location_lon,
			phone_verified = excluded.phone_verified,
			updated_at = excluded.updated_at`,
		p.UserID, p.Email, p.Phone, p.EnableEmail, p.EnableSMS,
		p.LandslideThreshold, p.FloodThreshold, p.RainfallThreshold,
		label, lat, lon,
		p.PhoneVerified, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving profile: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetProfile(ctx context.Context, userID string) (*models.AlertProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, phone, enable_email, enable_sms,
			landslide_threshold, flood_threshold, rainfall_threshold,
			location_label, location_lat, location_lon,
			phone_verified, created_at, updated_at
		FROM alert_profiles WHERE user_id = ?`, userID)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return p, nil
}

func (s *SQLiteDB) ListMonitoredProfiles(ctx context.Context) ([]models.AlertProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, email, phone, enable_email, enable_sms,
			landslide_threshold, flood_threshold, rainfall_threshold,
			location_label, location_lat, location_lon,
			phone_verified, created_at, updated_at
		FROM alert_profiles
		WHERE location_lat IS NOT NULL AND location_lon IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("error listing monitored profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.AlertProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *SQLiteDB) DeleteProfile(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM alert_profiles WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("error deleting profile: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.AlertProfile, error) {
	var p models.AlertProfile
	var label sql.NullString
	var lat, lon sql.NullFloat64

	err := row.Scan(
		&p.UserID, &p.Email, &p.Phone, &p.EnableEmail, &p.EnableSMS,
		&p.LandslideThreshold, &p.FloodThreshold, &p.RainfallThreshold,
		&label, &lat, &lon,
		&p.PhoneVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if label.Valid && lat.Valid && lon.Valid {
		p.Location = &models.Location{
			Label: label.String,
			Lat:   lat.Float64,
			Lon:   lon.Float64,
		}
	}
	return &p, nil
}

func (s *SQLiteDB) CreateRequest(ctx context.Context, req *models.VerificationRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	// Invalidation and insertion commit together so no window exists
	// where two codes are simultaneously valid.
	_, err = tx.ExecContext(ctx,
		`UPDATE verification_requests SET consumed = 1
		 WHERE user_id = ? AND phone = ? AND consumed = 0`,
		req.UserID, req.Phone)
	if err != nil {
		return fmt.Errorf("error invalidating prior requests: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verification_requests (id, user_id, phone, code, issued_at, expires_at, consumed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.UserID, req.Phone, req.Code, req.IssuedAt, req.ExpiresAt, req.Consumed)
	if err != nil {
		return fmt.Errorf("error inserting verification request: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteDB) LatestActiveRequest(ctx context.Context, userID string, now time.Time) (*models.VerificationRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, phone, code, issued_at, expires_at, consumed
		FROM verification_requests
		WHERE user_id = ? AND consumed = 0 AND expires_at > ?
		ORDER BY issued_at DESC, rowid DESC
		LIMIT 1`, userID, now)

	var req models.VerificationRequest
	err := row.Scan(&req.ID, &req.UserID, &req.Phone, &req.Code,
		&req.IssuedAt, &req.ExpiresAt, &req.Consumed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading verification request: %w", err)
	}
	return &req, nil
}

func (s *SQLiteDB) ConsumeRequest(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE verification_requests SET consumed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error consuming verification request: %w", err)
	}
	return nil
}

func (s *SQLiteDB) AppendHistory(ctx context.Context, e *models.AlertHistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_history (id, user_id, type, value, level, message, location, email_sent, sms_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, string(e.Type), e.Value, string(e.Level), e.Message,
		e.Location, e.EmailSent, e.SMSSent, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("error appending history entry: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListHistory(ctx context.Context, userID string, limit int) ([]models.AlertHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, value, level, message, location, email_sent, sms_sent, created_at
		FROM alert_history
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing history: %w", err)
	}
	defer rows.Close()

	var entries []models.AlertHistoryEntry
	for rows.Next() {
		var e models.AlertHistoryEntry
		var typ, level string
		if err := rows.Scan(&e.ID, &e.UserID, &typ, &e.Value, &level,
			&e.Message, &e.Location, &e.EmailSent, &e.SMSSent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning history entry: %w", err)
		}
		e.Type = models.AlertType(typ)
		e.Level = models.AlertLevel(level)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteDB) ClearHistory(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alert_history WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("error clearing history: %w", err)
	}
	return res.RowsAffected()
}
