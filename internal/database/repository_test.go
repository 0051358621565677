package database_test

import (
	"testing"
	"time"

	"gatekeeper-bot/internal/database"
	"gatekeeper-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err, "failed to open test db")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(), "failed to migrate")

	return db
}

func TestSaveProfile_RoundTrip(t *testing.T) {
	db := setupTestDB(t)

	p := &models.Profile{
		UserID:      12345,
		FirstName:   "Ivan",
		LastName:    "Petrov",
		SchoolClass: "10B",
		Email:       "ivan.petrov@fizmat.kz",
	}
	require.NoError(t, db.SaveProfile(p))
	assert.WithinDuration(t, time.Now().UTC(), p.CreatedAt, time.Minute)

	got, err := db.GetProfile(12345)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, int64(12345), got.UserID)
	assert.Equal(t, "Ivan", got.FirstName)
	assert.Equal(t, "Petrov", got.LastName)
	assert.Equal(t, "10B", got.SchoolClass)
	assert.Equal(t, "ivan.petrov@fizmat.kz", got.Email)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Second)
}

func TestSaveProfile_OverwritesExisting(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveProfile(&models.Profile{
		UserID: 1, FirstName: "Ivan", LastName: "Petrov",
		SchoolClass: "9A", Email: "ivan@fizmat.kz",
	}))
	require.NoError(t, db.SaveProfile(&models.Profile{
		UserID: 1, FirstName: "Ivan", LastName: "Petrov",
		SchoolClass: "10B", Email: "ivan.petrov@fizmat.kz",
	}))

	got, err := db.GetProfile(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "10B", got.SchoolClass)
	assert.Equal(t, "ivan.petrov@fizmat.kz", got.Email)

	profiles, err := db.ListProfiles()
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestSaveProfile_EmailTaken(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveProfile(&models.Profile{
		UserID: 1, FirstName: "Ivan", LastName: "Petrov",
		SchoolClass: "10B", Email: "shared@fizmat.kz",
	}))

	err := db.SaveProfile(&models.Profile{
		UserID: 2, FirstName: "Olga", LastName: "Sidorova",
		SchoolClass: "11", Email: "shared@fizmat.kz",
	})
	require.ErrorIs(t, err, database.ErrEmailTaken)

	// The existing profile is untouched and the second user stays
	// unregistered.
	got, err := db.GetProfile(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ivan", got.FirstName)

	registered, err := db.IsRegistered(2)
	require.NoError(t, err)
	assert.False(t, registered)
}

func TestSaveProfile_SameUserKeepsOwnEmail(t *testing.T) {
	db := setupTestDB(t)

	p := &models.Profile{
		UserID: 1, FirstName: "Ivan", LastName: "Petrov",
		SchoolClass: "10B", Email: "ivan@fizmat.kz",
	}
	require.NoError(t, db.SaveProfile(p))
	require.NoError(t, db.SaveProfile(p), "re-confirming with the same email is not a conflict")
}

func TestIsRegistered(t *testing.T) {
	db := setupTestDB(t)

	registered, err := db.IsRegistered(1)
	require.NoError(t, err)
	assert.False(t, registered)

	require.NoError(t, db.SaveProfile(&models.Profile{
		UserID: 1, FirstName: "Ivan", LastName: "Petrov",
		SchoolClass: "10B", Email: "ivan@fizmat.kz",
	}))

	registered, err = db.IsRegistered(1)
	require.NoError(t, err)
	assert.True(t, registered)
}

func TestDeleteProfile(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveProfile(&models.Profile{
		UserID: 1, FirstName: "Ivan", LastName: "Petrov",
		SchoolClass: "10B", Email: "ivan@fizmat.kz",
	}))

	require.NoError(t, db.DeleteProfile(1))

	registered, err := db.IsRegistered(1)
	require.NoError(t, err)
	assert.False(t, registered)

	// Deleting an absent profile is not an error.
	require.NoError(t, db.DeleteProfile(99))
}

func TestListProfiles_OrderedByCreation(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	insertProfileAt(t, db, 2, "second@fizmat.kz", base.Add(time.Hour))
	insertProfileAt(t, db, 1, "first@fizmat.kz", base)
	insertProfileAt(t, db, 3, "third@fizmat.kz", base.Add(2*time.Hour))

	profiles, err := db.ListProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	assert.Equal(t, int64(1), profiles[0].UserID)
	assert.Equal(t, int64(2), profiles[1].UserID)
	assert.Equal(t, int64(3), profiles[2].UserID)
}

func TestConsumePending_Empty(t *testing.T) {
	db := setupTestDB(t)

	_, ok, err := db.ConsumePending(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddPending_AndConsume(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.AddPending(1, -100500))

	chatID, ok, err := db.ConsumePending(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-100500), chatID)

	_, ok, err = db.ConsumePending(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumePending_MostRecentFirst(t *testing.T) {
	db := setupTestDB(t)

	insertPendingAt(t, db, 1, -101, 100)
	insertPendingAt(t, db, 1, -102, 300)
	insertPendingAt(t, db, 1, -103, 200)
	insertPendingAt(t, db, 2, -101, 999) // another user, untouched

	chatID, ok, err := db.ConsumePending(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-102), chatID)

	// The remaining entries survive and come out newest first.
	chatID, ok, err = db.ConsumePending(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-103), chatID)

	chatID, ok, err = db.ConsumePending(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-101), chatID)

	_, ok, err = db.ConsumePending(1)
	require.NoError(t, err)
	assert.False(t, ok)

	chatID, ok, err = db.ConsumePending(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-101), chatID)
}

func TestAddPending_RefreshesTimestamp(t *testing.T) {
	db := setupTestDB(t)

	insertPendingAt(t, db, 1, -101, 100)
	insertPendingAt(t, db, 1, -102, 200)

	// Re-observing the user in the older chat makes it the most recent.
	require.NoError(t, db.AddPending(1, -101))

	chatID, ok, err := db.ConsumePending(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-101), chatID)
}

func insertProfileAt(t *testing.T, db *database.DB, userID int64, email string, at time.Time) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO profiles (user_id, first_name, last_name, school_class, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, "F", "L", "10B", email, at)
	require.NoError(t, err)
}

func insertPendingAt(t *testing.T, db *database.DB, userID, chatID, nanos int64) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO pending (user_id, chat_id, created_at) VALUES ($1, $2, $3)
	`, userID, chatID, nanos)
	require.NoError(t, err)
}
