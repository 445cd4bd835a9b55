package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"device-loan-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Allocation coordinator: every operation here commits its loan and
// device writes as one transaction. Reads that don't need the commit
// boundary (student directory, scan resolution) happen before the
// transaction opens, so the critical section covers only the allocation
// decision itself.
//
// The partial unique indexes created in Migrate back the in-transaction
// checks: an insert that slips past a stale read still fails with a
// duplicate-key error, which callers see as Conflict.

func endOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(999*time.Millisecond), now.Location())
}

// Reserve creates a kiosk reservation: a loan with no device bound yet.
func (r *Repo) Reserve(ctx context.Context, studentExternalID, reason string) (*models.Loan, error) {
	if studentExternalID == "" {
		return nil, fmt.Errorf("studentId is required: %w", ErrValidation)
	}
	student, err := r.FindStudentByExternalID(ctx, studentExternalID)
	if err != nil {
		return nil, err
	}

	loanID := uuid.NewString()
	now := time.Now()
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := activeLoanForStudent(tx, student.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("student already has an active loan or reservation: %w", ErrConflict)
		}

		loan := &models.Loan{
			ID:         loanID,
			StudentID:  student.ID,
			LoanType:   models.LoanDay,
			Status:     models.LoanReserved,
			Reason:     reason,
			ReservedAt: now,
			DueAt:      endOfDay(now),
		}
		return createLoan(tx, loan)
	})
	if err != nil {
		return nil, err
	}
	return r.FindLoanByID(ctx, loanID)
}

type ManualLoanInput struct {
	StudentID string
	Ident     Identifier
	Reason    string
	LoanType  models.LoanType
	DueAt     *time.Time
	StaffID   string
}

// ManualLoan is the walk-in path: the loan is created directly in
// checked_out with the scanned device bound at creation.
func (r *Repo) ManualLoan(ctx context.Context, in ManualLoanInput) (*models.Loan, error) {
	if in.StudentID == "" {
		return nil, fmt.Errorf("studentId is required: %w", ErrValidation)
	}
	if in.LoanType == "" {
		in.LoanType = models.LoanDay
	}
	if !in.LoanType.Valid() {
		return nil, fmt.Errorf("unknown loan type %q: %w", in.LoanType, ErrValidation)
	}

	student, err := r.FindStudentByExternalID(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	device, err := r.FindDeviceByIdentifier(ctx, in.Ident)
	if err != nil {
		return nil, err
	}
	if device.Status != models.DeviceAvailable {
		return nil, fmt.Errorf("device is %s, not available: %w", device.Status, ErrInvalidState)
	}

	now := time.Now()
	dueAt := endOfDay(now)
	if in.DueAt != nil {
		dueAt = *in.DueAt
	}

	loanID := uuid.NewString()
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := activeLoanForStudent(tx, student.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("student already has an active loan or reservation: %w", ErrConflict)
		}

		loan := &models.Loan{
			ID:           loanID,
			StudentID:    student.ID,
			DeviceID:     &device.ID,
			LoanType:     in.LoanType,
			Status:       models.LoanCheckedOut,
			Reason:       in.Reason,
			ReservedAt:   now,
			CheckedOutAt: &now,
			DueAt:        dueAt,
			CheckedOutBy: &in.StaffID,
		}
		if err := createLoan(tx, loan); err != nil {
			return err
		}
		return transitionDevice(tx, device.ID, models.DeviceAvailable, models.DeviceCheckedOut)
	})
	if err != nil {
		return nil, err
	}
	return r.FindLoanByID(ctx, loanID)
}

// CheckoutReservation binds a scanned device to an existing reservation
// and checks it out. The loan is validated before the device so a bad
// loan id reports the loan failure, whatever was scanned.
func (r *Repo) CheckoutReservation(ctx context.Context, loanID string, ident Identifier, staffID string) (*models.Loan, error) {
	current, err := r.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.LoanReserved {
		return nil, fmt.Errorf("loan is %s, not reserved: %w", current.Status, ErrInvalidState)
	}

	device, err := r.FindDeviceByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}
	if device.Status != models.DeviceAvailable {
		return nil, fmt.Errorf("device is %s, not available: %w", device.Status, ErrInvalidState)
	}

	now := time.Now()
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.First(&loan, "id = ?", loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
			}
			return err
		}
		if loan.Status != models.LoanReserved {
			return fmt.Errorf("loan is %s, not reserved: %w", loan.Status, ErrInvalidState)
		}

		if err := transitionLoan(tx, loanID, models.LoanReserved, map[string]interface{}{
			"status":         models.LoanCheckedOut,
			"device_id":      device.ID,
			"checked_out_at": now,
			"checked_out_by": staffID,
		}); err != nil {
			return err
		}
		return transitionDevice(tx, device.ID, models.DeviceAvailable, models.DeviceCheckedOut)
	})
	if err != nil {
		return nil, err
	}
	return r.FindLoanByID(ctx, loanID)
}

// CheckIn returns a device. The loan is found by the scanned device,
// not by id; scanning a device with no open loan is NotFound and leaves
// everything untouched, so a double scan fails cleanly the second time.
func (r *Repo) CheckIn(ctx context.Context, ident Identifier, staffID string) (*models.Loan, error) {
	device, err := r.FindDeviceByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}

	var loanID string
	now := time.Now()
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loan, err := activeLoanForDevice(tx, device.ID)
		if err != nil {
			return err
		}
		loanID = loan.ID

		if err := transitionLoan(tx, loan.ID, models.LoanCheckedOut, map[string]interface{}{
			"status":      models.LoanReturned,
			"returned_at": now,
			"returned_to": staffID,
		}); err != nil {
			return err
		}
		return transitionDevice(tx, device.ID, models.DeviceCheckedOut, models.DeviceAvailable)
	})
	if err != nil {
		return nil, err
	}
	return r.FindLoanByID(ctx, loanID)
}

// CancelLoan cancels a reservation. Only legal from reserved; a
// reservation never holds a device, so no device row is touched.
func (r *Repo) CancelLoan(ctx context.Context, loanID string) (*models.Loan, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.First(&loan, "id = ?", loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
			}
			return err
		}
		if loan.Status != models.LoanReserved {
			return fmt.Errorf("loan is %s, only reserved loans can be cancelled: %w", loan.Status, ErrInvalidState)
		}
		return transitionLoan(tx, loanID, models.LoanReserved, map[string]interface{}{
			"status": models.LoanCancelled,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.FindLoanByID(ctx, loanID)
}

type EditLoanInput struct {
	LoanType *models.LoanType
	DueAt    *time.Time
	Notes    *string
	Status   *models.LoanStatus
}

// EditLoan applies administrative field edits. A supplied status is
// written as-is without re-validating the device pairing; see the
// decision log in DESIGN.md before changing that.
func (r *Repo) EditLoan(ctx context.Context, loanID string, in EditLoanInput) (*models.Loan, error) {
	updates := map[string]interface{}{}
	if in.LoanType != nil {
		if !in.LoanType.Valid() {
			return nil, fmt.Errorf("unknown loan type %q: %w", *in.LoanType, ErrValidation)
		}
		updates["loan_type"] = *in.LoanType
	}
	if in.DueAt != nil {
		updates["due_at"] = *in.DueAt
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("unknown loan status %q: %w", *in.Status, ErrValidation)
		}
		updates["status"] = *in.Status
	}

	if _, err := r.FindLoanByID(ctx, loanID); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := r.DB.WithContext(ctx).Model(&models.Loan{}).
			Where("id = ?", loanID).
			Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("edit would produce a second active loan: %w", ErrConflict)
			}
			return nil, err
		}
	}
	return r.FindLoanByID(ctx, loanID)
}

// createLoan inserts a loan; either partial unique index can reject it,
// so the message names both holders.
func createLoan(tx *gorm.DB, loan *models.Loan) error {
	if err := tx.Create(loan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("student or device already holds an active loan: %w", ErrConflict)
		}
		return err
	}
	return nil
}
