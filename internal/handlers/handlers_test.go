package handlers

import (
	"bytes"
	"testing"
	"time"

	"gatekeeper-bot/internal/models"
	"gatekeeper-bot/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerifyPayload(t *testing.T) {
	tests := []struct {
		payload string
		chatID  int64
		ok      bool
	}{
		{"verify_-1001234567890", -1001234567890, true},
		{"verify_42", 42, true},
		{"  verify_42  ", 42, true},
		{"verify_", 0, false},
		{"verify_abc", 0, false},
		{"something_else", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		chatID, ok := parseVerifyPayload(tt.payload)
		assert.Equal(t, tt.ok, ok, "payload %q", tt.payload)
		assert.Equal(t, tt.chatID, chatID, "payload %q", tt.payload)
	}
}

func TestSummaryText(t *testing.T) {
	sess := &session.Session{
		FirstName:   "Ivan",
		LastName:    "Petrov",
		SchoolClass: "10B",
		Email:       "ivan.petrov@fizmat.kz",
	}

	text := summaryText(sess)
	assert.Contains(t, text, "<b>Ivan</b>")
	assert.Contains(t, text, "<b>Petrov</b>")
	assert.Contains(t, text, "<b>10B</b>")
	assert.Contains(t, text, "<b>ivan.petrov@fizmat.kz</b>")
}

func TestWriteProfilesCSV(t *testing.T) {
	profiles := []models.Profile{
		{
			UserID:      1,
			FirstName:   "Ivan",
			LastName:    "Petrov",
			SchoolClass: "10B",
			Email:       "ivan.petrov@fizmat.kz",
			CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			UserID:      2,
			FirstName:   "Olga",
			LastName:    "Sidorova",
			SchoolClass: "11",
			CreatedAt:   time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeProfilesCSV(&buf, profiles))

	want := "user_id,first_name,last_name,class,email,created_at_utc\n" +
		"1,Ivan,Petrov,10B,ivan.petrov@fizmat.kz,2026-08-01T12:00:00Z\n" +
		"2,Olga,Sidorova,11,,2026-08-02T09:30:00Z\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteProfilesCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeProfilesCSV(&buf, nil))

	assert.Equal(t, "user_id,first_name,last_name,class,email,created_at_utc\n", buf.String())
}
