// app/bootstrap.go
package app

import (
	"context"
	"log"

	"device-loan-backend/db"
	"device-loan-backend/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BootstrapFirstAdmin creates the initial admin account when the staff
// table is empty and bootstrap credentials are configured. Safe to run
// on every start.
func BootstrapFirstAdmin(ctx context.Context, cfg Config, repo *db.Repo) {
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		return
	}
	n, err := repo.CountStaff(ctx)
	if err != nil {
		log.Printf("bootstrap: count staff failed: %v", err)
		return
	}
	if n > 0 {
		return // 已经有账号，跳过
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("bootstrap: hash password failed: %v", err)
		return
	}

	admin := &models.Staff{
		ID:           uuid.NewString(),
		Username:     cfg.BootstrapAdminEmail,
		Email:        cfg.BootstrapAdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := repo.CreateStaff(ctx, admin); err != nil {
		log.Printf("bootstrap: create admin failed: %v", err)
		return
	}
	log.Printf("[BOOTSTRAP] No staff found, created the first admin account for %s", cfg.BootstrapAdminEmail)
}
