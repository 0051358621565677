package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gatekeeper-bot/internal/models"
)

// ErrEmailTaken is returned by SaveProfile when another user already
// registered the same email.
var ErrEmailTaken = errors.New("email already registered by another user")

// Profile operations

func (db *DB) IsRegistered(userID int64) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = $1)
	`, userID).Scan(&exists)

	return exists, err
}

// SaveProfile creates or overwrites the profile for p.UserID and stamps
// p.CreatedAt. Email must already be normalized and validated by the
// caller; uniqueness across users is enforced here.
func (db *DB) SaveProfile(p *models.Profile) error {
	var holder int64
	err := db.QueryRow(`
		SELECT user_id FROM profiles WHERE email = $1 AND user_id <> $2
	`, p.Email, p.UserID).Scan(&holder)
	switch {
	case err == nil:
		return ErrEmailTaken
	case err != sql.ErrNoRows:
		return fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	p.CreatedAt = time.Now().UTC()

	_, err = db.Exec(`
		INSERT INTO profiles (user_id, first_name, last_name, school_class, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET first_name = excluded.first_name,
		    last_name = excluded.last_name,
		    school_class = excluded.school_class,
		    email = excluded.email,
		    created_at = excluded.created_at
	`, p.UserID, p.FirstName, p.LastName, p.SchoolClass, p.Email, p.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// GetProfile returns nil without error when the user never registered.
func (db *DB) GetProfile(userID int64) (*models.Profile, error) {
	var (
		p     models.Profile
		email sql.NullString
	)

	err := db.QueryRow(`
		SELECT user_id, first_name, last_name, school_class, email, created_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.SchoolClass, &email, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.Email = email.String
	return &p, nil
}

func (db *DB) DeleteProfile(userID int64) error {
	_, err := db.Exec(`DELETE FROM profiles WHERE user_id = $1`, userID)
	return err
}

func (db *DB) ListProfiles() ([]models.Profile, error) {
	rows, err := db.Query(`
		SELECT user_id, first_name, last_name, school_class, email, created_at
		FROM profiles
		ORDER BY created_at
	`)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var (
			p     models.Profile
			email sql.NullString
		)
		err := rows.Scan(
			&p.UserID, &p.FirstName, &p.LastName, &p.SchoolClass, &email, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		p.Email = email.String
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// Pending operations

// AddPending records that userID is waiting to be unlocked in chatID,
// refreshing the timestamp if the pair is already recorded.
func (db *DB) AddPending(userID, chatID int64) error {
	_, err := db.Exec(`
		INSERT INTO pending (user_id, chat_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, chat_id) DO UPDATE
		SET created_at = excluded.created_at
	`, userID, chatID, time.Now().UTC().UnixNano())

	return err
}

// ConsumePending deletes and returns the most recently created pending
// entry for the user. ok is false when none exists; other chats keep
// their entries.
func (db *DB) ConsumePending(userID int64) (chatID int64, ok bool, err error) {
	err = db.QueryRow(`
		SELECT chat_id FROM pending
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&chatID)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to pick pending entry: %w", err)
	}

	_, err = db.Exec(`
		DELETE FROM pending WHERE user_id = $1 AND chat_id = $2
	`, userID, chatID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to consume pending entry: %w", err)
	}

	return chatID, true, nil
}
