package controllers

import (
	"net/http"

	"device-loan-backend/app"
	"device-loan-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type StaffController struct{ *Srv }

func NewStaffController(s *Srv) *StaffController { return &StaffController{Srv: s} }

// GET /api/staff
func (sc *StaffController) List(c *gin.Context) {
	staff, err := sc.Repo.ListStaff(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"data": staff})
}

// POST /api/staff
func (sc *StaffController) Create(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "username, email, and password are required"})
		return
	}

	role := models.StaffRole(in.Role)
	if in.Role == "" {
		role = models.RoleStaff
	}
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown role"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	st := &models.Staff{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := sc.Repo.CreateStaff(c.Request.Context(), st); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"data": st})
}

// PUT /api/staff/:id
func (sc *StaffController) Update(c *gin.Context) {
	id := c.Param("id")
	var in struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if in.Username != nil {
		updates["username"] = *in.Username
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
			return
		}
		updates["password_hash"] = string(hash)
	}
	if in.Role != nil {
		if !models.StaffRole(*in.Role).Valid() {
			c.JSON(http.StatusBadRequest, app.H{"error": "unknown role"})
			return
		}
		updates["role"] = *in.Role
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	st, err := sc.Repo.UpdateStaff(c.Request.Context(), id, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	if in.IsActive != nil && !*in.IsActive {
		_ = sc.AppSess.RevokeAllForStaff(c.Request.Context(), id)
	}
	c.JSON(http.StatusOK, app.H{"data": st})
}

// DELETE /api/staff/:id — deactivate, never hard-delete
func (sc *StaffController) Deactivate(c *gin.Context) {
	id := c.Param("id")

	// 不允许停用自己，避免锁死
	if app.StaffID(c) == id {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot deactivate yourself"})
		return
	}

	if err := sc.Repo.DeactivateStaff(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	// 关键：撤销该账号的所有登录会话
	_ = sc.AppSess.RevokeAllForStaff(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"data": app.H{"message": "Staff deactivated"}})
}
