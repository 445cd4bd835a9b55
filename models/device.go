package models

import "time"

const DeviceTable = "dlb_devices"

type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "available"
	DeviceReserved    DeviceStatus = "reserved"
	DeviceCheckedOut  DeviceStatus = "checked_out"
	DeviceMaintenance DeviceStatus = "maintenance"
	DeviceRetired     DeviceStatus = "retired"
)

// Allocated reports whether the device is currently held by a loan.
// Administrative status edits must not override an allocated device.
func (s DeviceStatus) Allocated() bool {
	return s == DeviceReserved || s == DeviceCheckedOut
}

func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceAvailable, DeviceReserved, DeviceCheckedOut, DeviceMaintenance, DeviceRetired:
		return true
	}
	return false
}

type Device struct {
	ID          string       `gorm:"type:uuid;primaryKey" json:"id"`
	AssetNumber string       `gorm:"size:120;uniqueIndex;not null" json:"assetNumber"`
	Barcode     string       `gorm:"size:120;uniqueIndex;not null" json:"barcode"`
	QRCode      *string      `gorm:"size:120;uniqueIndex" json:"qrCode,omitempty"`
	Status      DeviceStatus `gorm:"size:20;not null;default:'available'" json:"status"`

	Make         string `gorm:"size:120" json:"make,omitempty"`
	Model        string `gorm:"size:120" json:"model,omitempty"`
	SerialNumber string `gorm:"size:120" json:"serialNumber,omitempty"`
	Notes        string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Device) TableName() string { return DeviceTable }
