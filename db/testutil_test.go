package db

import (
	"context"
	"testing"

	"device-loan-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	return NewRepo(gdb)
}

func seedStudent(t *testing.T, r *Repo, externalID, name string) *models.Student {
	t.Helper()
	s := &models.Student{
		ID:        uuid.NewString(),
		StudentID: externalID,
		FullName:  name,
	}
	require.NoError(t, r.DB.Create(s).Error)
	return s
}

func seedDevice(t *testing.T, r *Repo, asset, barcode string, status models.DeviceStatus) *models.Device {
	t.Helper()
	d := &models.Device{
		ID:          uuid.NewString(),
		AssetNumber: asset,
		Barcode:     barcode,
		Status:      status,
	}
	require.NoError(t, r.DB.Create(d).Error)
	return d
}

func seedStaff(t *testing.T, r *Repo, username string) *models.Staff {
	t.Helper()
	st := &models.Staff{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@school.test",
		PasswordHash: "x",
		Role:         models.RoleStaff,
		IsActive:     true,
	}
	require.NoError(t, r.CreateStaff(context.Background(), st))
	return st
}
