package db

import (
	"context"
	"errors"
	"fmt"

	"device-loan-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identifier carries a scanned token. When several fields are supplied
// at once they resolve in fixed priority order: barcode > qrCode >
// assetNumber; only the first one present is honored.
type Identifier struct {
	Barcode     string `json:"barcode"`
	QRCode      string `json:"qrCode"`
	AssetNumber string `json:"assetNumber"`
}

// FindDeviceByIdentifier resolves a scan to exactly one device. Pure
// lookup, no side effects.
func (r *Repo) FindDeviceByIdentifier(ctx context.Context, ident Identifier) (*models.Device, error) {
	var column, value string
	switch {
	case ident.Barcode != "":
		column, value = "barcode", ident.Barcode
	case ident.QRCode != "":
		column, value = "qr_code", ident.QRCode
	case ident.AssetNumber != "":
		column, value = "asset_number", ident.AssetNumber
	default:
		return nil, fmt.Errorf("barcode, qrCode or assetNumber is required: %w", ErrValidation)
	}

	var d models.Device
	if err := r.DB.WithContext(ctx).First(&d, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("device %s=%s: %w", column, value, ErrNotFound)
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) FindDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	var d models.Device
	if err := r.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("device %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&devices).Error
	return devices, err
}

func (r *Repo) CountDevicesByStatus(ctx context.Context, status models.DeviceStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Device{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}

func (r *Repo) CreateDevice(ctx context.Context, d *models.Device) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = models.DeviceAvailable
	}
	err := r.DB.WithContext(ctx).Create(d).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("asset number, barcode or QR code already exists: %w", ErrConflict)
	}
	return err
}

// UpdateDevice applies administrative field edits. Status changes go
// through SetDeviceStatus so an allocated device cannot be overridden.
func (r *Repo) UpdateDevice(ctx context.Context, id string, updates map[string]interface{}) (*models.Device, error) {
	d, err := r.FindDeviceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		err := r.DB.WithContext(ctx).Model(d).Updates(updates).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("asset number, barcode or QR code already exists: %w", ErrConflict)
		}
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// SetDeviceStatus handles out-of-core administrative transitions
// (maintenance, retired, back to available). It refuses to touch a
// device currently reserved or checked out; releasing those is the
// allocation code's job.
func (r *Repo) SetDeviceStatus(ctx context.Context, id string, status models.DeviceStatus) (*models.Device, error) {
	if status.Allocated() {
		return nil, fmt.Errorf("status %s is managed by loan operations: %w", status, ErrValidation)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown device status %q: %w", status, ErrValidation)
	}

	res := r.DB.WithContext(ctx).Model(&models.Device{}).
		Where("id = ? AND status NOT IN ?", id, []models.DeviceStatus{models.DeviceReserved, models.DeviceCheckedOut}).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		d, err := r.FindDeviceByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("device is %s, check it in first: %w", d.Status, ErrInvalidState)
	}
	return r.FindDeviceByID(ctx, id)
}

// transitionDevice is the optimistic guard for allocation transitions:
// the UPDATE only matches when the device is still in the expected
// status, so of two racing writers exactly one sees RowsAffected == 1.
func transitionDevice(tx *gorm.DB, id string, expected, next models.DeviceStatus) error {
	res := tx.Model(&models.Device{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("device %s is no longer %s: %w", id, expected, ErrConflict)
	}
	return nil
}
