package db

import (
	"context"
	"fmt"

	"device-loan-backend/models"

	"github.com/google/uuid"
)

func (r *Repo) LogAction(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("insert audit log: %w", err)
	}
	return entry, nil
}

type AuditPage struct {
	Entries []models.AuditLog `json:"data"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
}

func (r *Repo) ListAuditLog(ctx context.Context, page, limit int) (*AuditPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []models.AuditLog
	if err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return &AuditPage{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}
