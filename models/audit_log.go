package models

import "time"

const AuditLogTable = "dlb_audit_log"

// AuditLog records who performed a loan/device mutation. Kiosk actions
// carry no actor.
type AuditLog struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID       *string   `gorm:"type:uuid;index" json:"actorId,omitempty"`
	ActorUsername string    `gorm:"size:255" json:"actorUsername,omitempty"`
	Action        string    `gorm:"size:64;index;not null" json:"action"`
	LoanID        *string   `gorm:"type:uuid;index" json:"loanId,omitempty"`
	DeviceID      *string   `gorm:"type:uuid;index" json:"deviceId,omitempty"`
	Detail        string    `gorm:"size:255" json:"detail,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (AuditLog) TableName() string { return AuditLogTable }
