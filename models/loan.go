package models

import "time"

const LoanTable = "dlb_loans"

type LoanType string

const (
	LoanDay      LoanType = "day_loan"
	LoanExtended LoanType = "extended"
	LoanRepair   LoanType = "repair"
)

func (t LoanType) Valid() bool {
	switch t {
	case LoanDay, LoanExtended, LoanRepair:
		return true
	}
	return false
}

type LoanStatus string

const (
	LoanReserved   LoanStatus = "reserved"
	LoanCheckedOut LoanStatus = "checked_out"
	LoanReturned   LoanStatus = "returned"
	LoanCancelled  LoanStatus = "cancelled"
)

// Active loans hold the student's single-loan slot; returned and
// cancelled are terminal.
func (s LoanStatus) Active() bool {
	return s == LoanReserved || s == LoanCheckedOut
}

func (s LoanStatus) Terminal() bool {
	return s == LoanReturned || s == LoanCancelled
}

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanReserved, LoanCheckedOut, LoanReturned, LoanCancelled:
		return true
	}
	return false
}

type Loan struct {
	ID        string   `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID string   `gorm:"type:uuid;index;not null" json:"studentId"`
	Student   *Student `gorm:"belongsTo;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	DeviceID  *string  `gorm:"type:uuid;index" json:"deviceId,omitempty"`
	Device    *Device  `gorm:"foreignKey:DeviceID" json:"device,omitempty"`

	LoanType LoanType   `gorm:"size:20;not null;default:'day_loan'" json:"loanType"`
	Status   LoanStatus `gorm:"size:20;index;not null;default:'reserved'" json:"status"`

	Reason string `gorm:"size:255" json:"reason,omitempty"`
	Notes  string `gorm:"type:text" json:"notes,omitempty"`

	ReservedAt   time.Time  `gorm:"not null" json:"reservedAt"`
	CheckedOutAt *time.Time `json:"checkedOutAt,omitempty"`
	ReturnedAt   *time.Time `json:"returnedAt,omitempty"`
	DueAt        time.Time  `gorm:"index;not null" json:"dueAt"`

	CheckedOutBy *string `gorm:"type:uuid" json:"checkedOutBy,omitempty"`
	ReturnedTo   *string `gorm:"type:uuid" json:"returnedTo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Loan) TableName() string { return LoanTable }

// IsOverdue is derived, never persisted.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanCheckedOut && l.DueAt.Before(now)
}
