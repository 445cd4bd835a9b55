// controllers/loan_controller.go
package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"device-loan-backend/app"
	"device-loan-backend/db"
	"device-loan-backend/models"

	"github.com/gin-gonic/gin"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

// POST /api/loans/reserve — kiosk creates a reservation, no auth
func (lc *LoanController) Reserve(c *gin.Context) {
	var in struct {
		StudentID string `json:"studentId"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.StudentID == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "studentId is required", "message": kioskHelpMessage})
		return
	}

	loan, err := lc.Repo.Reserve(c.Request.Context(), in.StudentID, in.Reason)
	if err != nil {
		respondKioskError(c, err)
		return
	}
	lc.audit(c, "reserve", &loan.ID, nil, "kiosk reservation for "+in.StudentID)
	c.JSON(http.StatusCreated, app.H{"data": loan})
}

// POST /api/loans/manual — staff walk-in checkout
func (lc *LoanController) ManualLoan(c *gin.Context) {
	var in struct {
		StudentID   string     `json:"studentId"`
		Barcode     string     `json:"barcode"`
		QRCode      string     `json:"qrCode"`
		AssetNumber string     `json:"assetNumber"`
		Reason      string     `json:"reason"`
		LoanType    string     `json:"loanType"`
		DueAt       *time.Time `json:"dueAt"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	loan, err := lc.Repo.ManualLoan(c.Request.Context(), db.ManualLoanInput{
		StudentID: in.StudentID,
		Ident:     db.Identifier{Barcode: in.Barcode, QRCode: in.QRCode, AssetNumber: in.AssetNumber},
		Reason:    in.Reason,
		LoanType:  models.LoanType(in.LoanType),
		DueAt:     in.DueAt,
		StaffID:   app.StaffID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	lc.audit(c, "manual_loan", &loan.ID, loan.DeviceID, "walk-in checkout for "+in.StudentID)
	c.JSON(http.StatusCreated, app.H{"data": loan})
}

// POST /api/loans/:id/checkout — bind a device to a reservation
func (lc *LoanController) Checkout(c *gin.Context) {
	loanID := c.Param("id")
	var in struct {
		Barcode     string `json:"barcode"`
		QRCode      string `json:"qrCode"`
		AssetNumber string `json:"assetNumber"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	loan, err := lc.Repo.CheckoutReservation(c.Request.Context(), loanID,
		db.Identifier{Barcode: in.Barcode, QRCode: in.QRCode, AssetNumber: in.AssetNumber},
		app.StaffID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	lc.audit(c, "checkout", &loan.ID, loan.DeviceID, "")
	c.JSON(http.StatusOK, app.H{"data": loan})
}

// POST /api/loans/checkin — scan a device to return it
func (lc *LoanController) CheckIn(c *gin.Context) {
	var in struct {
		Barcode     string `json:"barcode"`
		QRCode      string `json:"qrCode"`
		AssetNumber string `json:"assetNumber"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	loan, err := lc.Repo.CheckIn(c.Request.Context(),
		db.Identifier{Barcode: in.Barcode, QRCode: in.QRCode, AssetNumber: in.AssetNumber},
		app.StaffID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	lc.audit(c, "checkin", &loan.ID, loan.DeviceID, "")
	c.JSON(http.StatusOK, app.H{"data": loan})
}

// DELETE /api/loans/:id — cancel a reservation
func (lc *LoanController) Cancel(c *gin.Context) {
	loan, err := lc.Repo.CancelLoan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	lc.audit(c, "cancel", &loan.ID, nil, "")
	c.JSON(http.StatusOK, app.H{"data": app.H{"message": "Loan cancelled"}})
}

// PUT /api/loans/:id — administrative edit
func (lc *LoanController) Edit(c *gin.Context) {
	var in struct {
		LoanType *string    `json:"loanType"`
		DueAt    *time.Time `json:"dueAt"`
		Notes    *string    `json:"notes"`
		Status   *string    `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	edit := db.EditLoanInput{DueAt: in.DueAt, Notes: in.Notes}
	if in.LoanType != nil {
		lt := models.LoanType(*in.LoanType)
		edit.LoanType = &lt
	}
	if in.Status != nil {
		st := models.LoanStatus(*in.Status)
		edit.Status = &st
	}

	loan, err := lc.Repo.EditLoan(c.Request.Context(), c.Param("id"), edit)
	if err != nil {
		respondError(c, err)
		return
	}
	lc.audit(c, "edit_loan", &loan.ID, loan.DeviceID, "")
	c.JSON(http.StatusOK, app.H{"data": loan})
}

// GET /api/loans/reservations
func (lc *LoanController) Reservations(c *gin.Context) {
	loans, err := lc.Repo.ListReservations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"data": loans})
}

type activeLoanRow struct {
	models.Loan
	IsOverdue bool `json:"isOverdue"`
}

// GET /api/loans/active
func (lc *LoanController) Active(c *gin.Context) {
	loans, err := lc.Repo.ListActiveLoans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	now := time.Now()
	rows := make([]activeLoanRow, 0, len(loans))
	for i := range loans {
		rows = append(rows, activeLoanRow{Loan: loans[i], IsOverdue: loans[i].IsOverdue(now)})
	}
	c.JSON(http.StatusOK, app.H{"data": rows})
}

// GET /api/loans/history?page=&limit=
func (lc *LoanController) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	res, err := lc.Repo.LoanHistory(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/loans/:id
func (lc *LoanController) Get(c *gin.Context) {
	loan, err := lc.Repo.FindLoanByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"data": loan})
}

// GET /api/loans/export — all loans as CSV
func (lc *LoanController) Export(c *gin.Context) {
	loans, err := lc.Repo.AllLoansForExport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="loans-%s.csv"`, time.Now().Format("2006-01-02")))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{
		"ID", "Student Name", "Student ID", "Device Asset", "Device Barcode",
		"Loan Type", "Status", "Reason", "Reserved At", "Checked Out At",
		"Due At", "Returned At", "Notes",
	})
	for _, l := range loans {
		var studentName, studentID, asset, barcode string
		if l.Student != nil {
			studentName, studentID = l.Student.FullName, l.Student.StudentID
		}
		if l.Device != nil {
			asset, barcode = l.Device.AssetNumber, l.Device.Barcode
		}
		_ = w.Write([]string{
			l.ID, studentName, studentID, asset, barcode,
			string(l.LoanType), string(l.Status), l.Reason,
			l.ReservedAt.UTC().Format(time.RFC3339),
			formatTimePtr(l.CheckedOutAt),
			l.DueAt.UTC().Format(time.RFC3339),
			formatTimePtr(l.ReturnedAt),
			l.Notes,
		})
	}
	w.Flush()
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
