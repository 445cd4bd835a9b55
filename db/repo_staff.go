package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"device-loan-backend/models"

	"gorm.io/gorm"
)

// Staff

func (r *Repo) FindStaffByID(ctx context.Context, id string) (*models.Staff, error) {
	var st models.Staff
	if err := r.DB.WithContext(ctx).First(&st, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("staff %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &st, nil
}

// FindStaffByLogin matches username or email, the way the console login
// form accepts either.
func (r *Repo) FindStaffByLogin(ctx context.Context, login string) (*models.Staff, error) {
	var st models.Staff
	if err := r.DB.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("staff %s: %w", login, ErrNotFound)
		}
		return nil, err
	}
	return &st, nil
}

func (r *Repo) ListStaff(ctx context.Context) ([]models.Staff, error) {
	var staff []models.Staff
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&staff).Error
	return staff, err
}

func (r *Repo) CreateStaff(ctx context.Context, st *models.Staff) error {
	err := r.DB.WithContext(ctx).Create(st).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("username or email already exists: %w", ErrConflict)
	}
	return err
}

func (r *Repo) UpdateStaff(ctx context.Context, id string, updates map[string]interface{}) (*models.Staff, error) {
	st, err := r.FindStaffByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		err := r.DB.WithContext(ctx).Model(st).Updates(updates).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email already exists: %w", ErrConflict)
		}
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// DeactivateStaff is the delete operation; records stay for attribution
// on historical loans.
func (r *Repo) DeactivateStaff(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.Staff{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("staff %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Repo) CountStaff(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Staff{}).Count(&n).Error
	return n, err
}

// 登录快照：计数自增，时间用应用侧 UTC，便于 sqlite 测试
func (r *Repo) TouchStaffLogin(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.Staff{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_seen_at":  now,
			"login_count":   gorm.Expr("login_count + 1"),
		}).Error
}

func (r *Repo) TouchStaffSeen(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&models.Staff{}).
		Where("id = ?", id).
		Update("last_seen_at", time.Now().UTC()).Error
}
