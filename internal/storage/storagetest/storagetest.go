// Package storagetest provides a storage.Service backed by in-memory SQLite and miniredis for tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"

	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a migrated storage service on a private in-memory database.
func New(t testing.TB) *storage.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, storage.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return storage.NewStorageService(db, rdb)
}

// SeedUser inserts a user with the given role.
func SeedUser(t testing.TB, s *storage.Service, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// SeedComplaint inserts a Pending complaint owned by ownerID.
func SeedComplaint(t testing.TB, s *storage.Service, ownerID string) *models.Complaint {
	t.Helper()
	c := &models.Complaint{
		UserID:  ownerID,
		Name:    "Broken meter",
		Address: "12 Main Rd",
		City:    "Pune",
		State:   "MH",
		Pincode: "411001",
		Comment: "Meter shows zero",
		Status:  models.StatusPending,
	}
	require.NoError(t, s.CreateComplaint(context.Background(), c))
	return c
}

// SeedAssignment assigns complaint to agent through the storage transaction.
func SeedAssignment(t testing.TB, s *storage.Service, complaintID string, agent *models.User) *models.Assignment {
	t.Helper()
	a := &models.Assignment{ComplaintID: complaintID, AgentID: agent.ID, AgentName: agent.Name}
	require.NoError(t, s.AssignAgent(context.Background(), a, 3))
	return a
}
