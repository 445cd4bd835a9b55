package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"device-loan-backend/models"

	"gorm.io/gorm"
)

// Loan ledger: authoritative loan state. Everything that mutates a loan
// row goes through the guarded transition below so concurrent writers
// cannot double-apply the same transition.

func (r *Repo) FindLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	var l models.Loan
	if err := r.DB.WithContext(ctx).
		Preload("Student").Preload("Device").
		First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("loan %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &l, nil
}

// ActiveLoanForStudent returns the student's current reserved or
// checked-out loan, or nil when there is none.
func (r *Repo) ActiveLoanForStudent(ctx context.Context, studentID string) (*models.Loan, error) {
	return activeLoanForStudent(r.DB.WithContext(ctx), studentID)
}

func activeLoanForStudent(tx *gorm.DB, studentID string) (*models.Loan, error) {
	var l models.Loan
	err := tx.
		Where("student_id = ? AND status IN ?", studentID, []models.LoanStatus{models.LoanReserved, models.LoanCheckedOut}).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func activeLoanForDevice(tx *gorm.DB, deviceID string) (*models.Loan, error) {
	var l models.Loan
	err := tx.
		Where("device_id = ? AND status = ?", deviceID, models.LoanCheckedOut).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no active loan for this device: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// transitionLoan only matches while the loan still holds the expected
// status; a lost race surfaces as Conflict, never as a silent no-op.
func transitionLoan(tx *gorm.DB, id string, expected models.LoanStatus, updates map[string]interface{}) error {
	res := tx.Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("loan %s is no longer %s: %w", id, expected, ErrConflict)
	}
	return nil
}

// Read-side queries for the staff console.

func (r *Repo) ListReservations(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.DB.WithContext(ctx).
		Preload("Student").
		Where("status = ?", models.LoanReserved).
		Order("reserved_at ASC").
		Find(&loans).Error
	return loans, err
}

func (r *Repo) ListActiveLoans(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.DB.WithContext(ctx).
		Preload("Student").Preload("Device").
		Where("status IN ?", []models.LoanStatus{models.LoanReserved, models.LoanCheckedOut}).
		Order("reserved_at ASC").
		Find(&loans).Error
	return loans, err
}

func (r *Repo) CountOverdueLoans(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ? AND due_at < ?", models.LoanCheckedOut, now).
		Count(&n).Error
	return n, err
}

func (r *Repo) CountLoansByStatus(ctx context.Context, status models.LoanStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}

type LoanHistoryPage struct {
	Loans []models.Loan `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (r *Repo) LoanHistory(ctx context.Context, page, limit int) (*LoanHistoryPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 25
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Loan{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var loans []models.Loan
	if err := r.DB.WithContext(ctx).
		Preload("Student").Preload("Device").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&loans).Error; err != nil {
		return nil, err
	}
	return &LoanHistoryPage{Loans: loans, Total: total, Page: page, Limit: limit}, nil
}

// AllLoansForExport feeds the CSV download; newest first.
func (r *Repo) AllLoansForExport(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.DB.WithContext(ctx).
		Preload("Student").Preload("Device").
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}
