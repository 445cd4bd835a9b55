package db

import (
	"context"
	"testing"
	"time"

	"device-loan-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveCreatesDayLoanDueEndOfToday(t *testing.T) {
	r := newTestRepo(t)
	seedStudent(t, r, "STU001", "Alice Archer")

	loan, err := r.Reserve(context.Background(), "STU001", "Forgot laptop")
	require.NoError(t, err)

	assert.Equal(t, models.LoanReserved, loan.Status)
	assert.Equal(t, models.LoanDay, loan.LoanType)
	assert.Equal(t, "Forgot laptop", loan.Reason)
	assert.Nil(t, loan.DeviceID)
	require.NotNil(t, loan.Student)
	assert.Equal(t, "STU001", loan.Student.StudentID)

	now := time.Now()
	assert.Equal(t, now.Year(), loan.DueAt.Year())
	assert.Equal(t, now.YearDay(), loan.DueAt.YearDay())
	assert.Equal(t, 23, loan.DueAt.Hour())
	assert.Equal(t, 59, loan.DueAt.Minute())
	assert.Equal(t, 59, loan.DueAt.Second())
}

func TestReserveUnknownStudent(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.Reserve(context.Background(), "STU404", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveMissingStudentID(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.Reserve(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSingleActiveLoanPerStudent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU001", "Alice Archer")
	seedDevice(t, r, "A-0001", "BC000001", models.DeviceAvailable)
	staff := seedStaff(t, r, "desk")

	_, err := r.Reserve(ctx, "STU001", "")
	require.NoError(t, err)

	// A second reservation and a walk-in checkout must both lose.
	_, err = r.Reserve(ctx, "STU001", "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = r.ManualLoan(ctx, ManualLoanInput{
		StudentID: "STU001",
		Ident:     Identifier{Barcode: "BC000001"},
		StaffID:   staff.ID,
	})
	assert.ErrorIs(t, err, ErrConflict)

	// The losing manual loan must not have touched the device.
	d, err := r.FindDeviceByIdentifier(ctx, Identifier{Barcode: "BC000001"})
	require.NoError(t, err)
	assert.Equal(t, models.DeviceAvailable, d.Status)
}

func TestCheckoutReservation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU001", "Alice Archer")
	device := seedDevice(t, r, "A-0001", "BC000001", models.DeviceAvailable)
	staff := seedStaff(t, r, "desk")

	reserved, err := r.Reserve(ctx, "STU001", "Forgot laptop")
	require.NoError(t, err)

	loan, err := r.CheckoutReservation(ctx, reserved.ID, Identifier{Barcode: "BC000001"}, staff.ID)
	require.NoError(t, err)

	assert.Equal(t, models.LoanCheckedOut, loan.Status)
	require.NotNil(t, loan.DeviceID)
	assert.Equal(t, device.ID, *loan.DeviceID)
	require.NotNil(t, loan.CheckedOutAt)
	require.NotNil(t, loan.CheckedOutBy)
	assert.Equal(t, staff.ID, *loan.CheckedOutBy)

	d, err := r.FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceCheckedOut, d.Status)
}

func TestCheckoutReservationFailures(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU001", "Alice Archer")
	seedDevice(t, r, "A-0001", "BC000001", models.DeviceAvailable)
	maint := seedDevice(t, r, "A-0002", "BC000002", models.DeviceMaintenance)
	staff := seedStaff(t, r, "desk")

	_, err := r.CheckoutReservation(ctx, "no-such-loan", Identifier{Barcode: "BC000001"}, staff.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The loan is checked first: a bad loan id is NotFound even when the
	// scanned device would have been rejected on its own.
	_, err = r.CheckoutReservation(ctx, "no-such-loan", Identifier{Barcode: "BC000002"}, staff.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	reserved, err := r.Reserve(ctx, "STU001", "")
	require.NoError(t, err)

	// Device in maintenance is not allocatable.
	_, err = r.CheckoutReservation(ctx, reserved.ID, Identifier{Barcode: "BC000002"}, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	d, err := r.FindDeviceByID(ctx, maint.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceMaintenance, d.Status)

	// After a successful checkout the loan is no longer reserved.
	_, err = r.CheckoutReservation(ctx, reserved.ID, Identifier{Barcode: "BC000001"}, staff.ID)
	require.NoError(t, err)
	_, err = r.CheckoutReservation(ctx, reserved.ID, Identifier{Barcode: "BC000001"}, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// And the loan failure still wins over an unknown scan.
	_, err = r.CheckoutReservation(ctx, reserved.ID, Identifier{Barcode: "BC999999"}, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSameDeviceCheckoutLoserFailsCleanly(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU001", "Alice Archer")
	seedStudent(t, r, "STU002", "Bob Baker")
	device := seedDevice(t, r, "A-0001", "BC000001", models.DeviceAvailable)
	staff := seedStaff(t, r, "desk")

	loanA, err := r.Reserve(ctx, "STU001", "")
	require.NoError(t, err)
	loanB, err := r.Reserve(ctx, "STU002", "")
	require.NoError(t, err)

	_, err = r.CheckoutReservation(ctx, loanA.ID, Identifier{Barcode: "BC000001"}, staff.ID)
	require.NoError(t, err)

	// Second checkout of the same device observes the new state and fails.
	_, err = r.CheckoutReservation(ctx, loanB.ID, Identifier{Barcode: "BC000001"}, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Exactly one checked-out loan references the device.
	var n int64
	require.NoError(t, r.DB.Model(&models.Loan{}).
		Where("device_id = ? AND status = ?", device.ID, models.LoanCheckedOut).
		Count(&n).Error)
	assert.EqualValues(t, 1, n)

	d, err := r.FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceCheckedOut, d.Status)

	// The loser keeps its reservation and can take another device.
	b, err := r.FindLoanByID(ctx, loanB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanReserved, b.Status)
}

func TestActiveDeviceIndexBlocksSecondLoan(t *testing.T) {
	r := newTestRepo(t)
	alice := seedStudent(t, r, "STU001", "Alice Archer")
	bob := seedStudent(t, r, "STU002", "Bob Baker")
	device := seedDevice(t, r, "A-0001", "BC000001", models.DeviceCheckedOut)

	now := time.Now()
	first := &models.Loan{
		ID:           "loan-1",
		StudentID:    alice.ID,
		DeviceID:     &device.ID,
		LoanType:     models.LoanDay,
		Status:       models.LoanCheckedOut,
		ReservedAt:   now,
		CheckedOutAt: &now,
		DueAt:        endOfDay(now),
	}
	require.NoError(t, createLoan(r.DB, first))

	// The per-device index rejects a second active loan on the same
	// device, for a different student.
	second := &models.Loan{
		ID:           "loan-2",
		StudentID:    bob.ID,
		DeviceID:     &device.ID,
		LoanType:     models.LoanDay,
		Status:       models.LoanCheckedOut,
		ReservedAt:   now,
		CheckedOutAt: &now,
		DueAt:        endOfDay(now),
	}
	err := createLoan(r.DB, second)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "student or device")
}

func TestManualLoan(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU002", "Bob Baker")
	device := seedDevice(t, r, "A-0002", "BC000002", models.DeviceAvailable)
	staff := seedStaff(t, r, "desk")

	dueAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	loan, err := r.ManualLoan(ctx, ManualLoanInput{
		StudentID: "STU002",
		Ident:     Identifier{Barcode: "BC000002"},
		Reason:    "repair swap",
		LoanType:  models.LoanExtended,
		DueAt:     &dueAt,
		StaffID:   staff.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.LoanCheckedOut, loan.Status)
	assert.Equal(t, models.LoanExtended, loan.LoanType)
	assert.True(t, loan.DueAt.Equal(dueAt))
	require.NotNil(t, loan.DeviceID)
	assert.Equal(t, device.ID, *loan.DeviceID)
	require.NotNil(t, loan.CheckedOutAt)

	d, err := r.FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceCheckedOut, d.Status)
}

func TestManualLoanDeviceUnavailable(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU002", "Bob Baker")
	device := seedDevice(t, r, "A-0002", "BC000002", models.DeviceMaintenance)
	staff := seedStaff(t, r, "desk")

	_, err := r.ManualLoan(ctx, ManualLoanInput{
		StudentID: "STU002",
		Ident:     Identifier{Barcode: "BC000002"},
		LoanType:  models.LoanExtended,
		StaffID:   staff.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidState)

	// Nothing was persisted: no loan, device untouched.
	var n int64
	require.NoError(t, r.DB.Model(&models.Loan{}).Count(&n).Error)
	assert.Zero(t, n)

	d, err := r.FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceMaintenance, d.Status)
}

func TestCheckIn(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU001", "Alice Archer")
	device := seedDevice(t, r, "A-0001", "BC000001", models.DeviceAvailable)
	staff := seedStaff(t, r, "desk")

	_, err := r.ManualLoan(ctx, ManualLoanInput{
		StudentID: "STU001",
		Ident:     Identifier{Barcode: "BC000001"},
		StaffID:   staff.ID,
	})
	require.NoError(t, err)

	loan, err := r.CheckIn(ctx, Identifier{Barcode: "BC000001"}, staff.ID)
	require.NoError(t, err)

	assert.Equal(t, models.LoanReturned, loan.Status)
	require.NotNil(t, loan.ReturnedAt)
	require.NotNil(t, loan.ReturnedTo)
	assert.Equal(t, staff.ID, *loan.ReturnedTo)

	d, err := r.FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceAvailable, d.Status)

	// The student's active slot is free again.
	active, err := r.ActiveLoanForStudent(ctx, loan.StudentID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestCheckInTwiceFailsAndLeavesDeviceAvailable(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU001", "Alice Archer")
	device := seedDevice(t, r, "A-0001", "BC000001", models.DeviceAvailable)
	staff := seedStaff(t, r, "desk")

	_, err := r.ManualLoan(ctx, ManualLoanInput{
		StudentID: "STU001",
		Ident:     Identifier{Barcode: "BC000001"},
		StaffID:   staff.ID,
	})
	require.NoError(t, err)

	_, err = r.CheckIn(ctx, Identifier{Barcode: "BC000001"}, staff.ID)
	require.NoError(t, err)

	// Double scan: no active loan anymore, device stays available.
	_, err = r.CheckIn(ctx, Identifier{Barcode: "BC000001"}, staff.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	d, err := r.FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceAvailable, d.Status)
}

func TestCheckInWithNoLoanAtAll(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	device := seedDevice(t, r, "A-0001", "BC000001", models.DeviceAvailable)
	staff := seedStaff(t, r, "desk")

	_, err := r.CheckIn(ctx, Identifier{Barcode: "BC000001"}, staff.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	d, err := r.FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceAvailable, d.Status)
}

func TestCancelOnlyFromReserved(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU001", "Alice Archer")
	seedDevice(t, r, "A-0001", "BC000001", models.DeviceAvailable)
	staff := seedStaff(t, r, "desk")

	reserved, err := r.Reserve(ctx, "STU001", "")
	require.NoError(t, err)
	checkedOut, err := r.CheckoutReservation(ctx, reserved.ID, Identifier{Barcode: "BC000001"}, staff.ID)
	require.NoError(t, err)

	_, err = r.CancelLoan(ctx, checkedOut.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = r.CancelLoan(ctx, "no-such-loan")
	assert.ErrorIs(t, err, ErrNotFound)

	// Return it, reserve again, then cancel the fresh reservation.
	_, err = r.CheckIn(ctx, Identifier{Barcode: "BC000001"}, staff.ID)
	require.NoError(t, err)
	again, err := r.Reserve(ctx, "STU001", "")
	require.NoError(t, err)

	cancelled, err := r.CancelLoan(ctx, again.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanCancelled, cancelled.Status)

	// Cancelling frees the student's slot.
	_, err = r.Reserve(ctx, "STU001", "")
	require.NoError(t, err)
}

func TestEditLoan(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedStudent(t, r, "STU001", "Alice Archer")

	reserved, err := r.Reserve(ctx, "STU001", "")
	require.NoError(t, err)

	notes := "swapped charger"
	dueAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lt := models.LoanRepair
	loan, err := r.EditLoan(ctx, reserved.ID, EditLoanInput{
		LoanType: &lt,
		DueAt:    &dueAt,
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LoanRepair, loan.LoanType)
	assert.True(t, loan.DueAt.Equal(dueAt))
	assert.Equal(t, notes, loan.Notes)
	assert.Equal(t, models.LoanReserved, loan.Status)

	bad := models.LoanType("weekend")
	_, err = r.EditLoan(ctx, reserved.ID, EditLoanInput{LoanType: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	badStatus := models.LoanStatus("lost")
	_, err = r.EditLoan(ctx, reserved.ID, EditLoanInput{Status: &badStatus})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = r.EditLoan(ctx, "no-such-loan", EditLoanInput{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)

	// Observed behavior: a supplied status is written without pairing
	// re-validation.
	st := models.LoanCancelled
	loan, err = r.EditLoan(ctx, reserved.ID, EditLoanInput{Status: &st})
	require.NoError(t, err)
	assert.Equal(t, models.LoanCancelled, loan.Status)
}
