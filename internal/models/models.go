package models

import "time"

// Profile is a verified member record. Email is empty for legacy rows
// created before the email field existed; otherwise it is lowercase and
// unique across all profiles.
type Profile struct {
	UserID      int64     `db:"user_id"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	SchoolClass string    `db:"school_class"`
	Email       string    `db:"email"`
	CreatedAt   time.Time `db:"created_at"`
}

// PendingUnlock marks a (user, chat) pair waiting to be unmuted once the
// user finishes registration. A user may have entries in several chats.
type PendingUnlock struct {
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	CreatedAt time.Time `db:"created_at"`
}
