// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"device-loan-backend/app"
	"device-loan-backend/db"
	"device-loan-backend/models"
	"device-loan-backend/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Srv struct {
	Repo      *db.Repo
	AppSess   *session.AppSessionStore
	WebOrigin string
	Cfg       app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:      db.NewRepo(a.DB),
		AppSess:   a.AppSessions(),
		WebOrigin: a.Config.WebOrigin,
		Cfg:       a.Config,
	}
}

// --- helpers ---

// 统一设置业务会话 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// 登录成功：创建会话 + 触发登录快照
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, staffID string) error {
	_ = s.Repo.TouchStaffLogin(ctx, staffID) // 不阻塞
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, staffID); err != nil {
		return err
	}
	s.setAppCookie(w, id, s.Cfg.SessionTTL)
	return nil
}

// respondError maps repository error kinds onto HTTP statuses. Store
// timeouts come back as 503 so the scanner UI can tell staff to retry.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrConflict):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrInvalidState), errors.Is(err, db.ErrValidation):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, app.H{"error": "store unavailable, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}

const kioskHelpMessage = "Something went wrong. Please ask a member of staff for help."

// respondKioskError is respondError with a plain-language message the
// kiosk screen shows instead of the raw error.
func respondKioskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error(), "message": kioskHelpMessage})
	case errors.Is(err, db.ErrConflict):
		c.JSON(http.StatusConflict, app.H{"error": err.Error(), "message": kioskHelpMessage})
	case errors.Is(err, db.ErrValidation), errors.Is(err, db.ErrInvalidState):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error(), "message": kioskHelpMessage})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, app.H{"error": "store unavailable", "message": kioskHelpMessage})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error(), "message": kioskHelpMessage})
	}
}

// audit records a successful mutation; failures must never fail the
// request, so the error is dropped after the repo logs it.
func (s *Srv) audit(c *gin.Context, action string, loanID, deviceID *string, detail string) {
	var actorID *string
	if id := app.StaffID(c); id != "" {
		actorID = &id
	}
	_, _ = s.Repo.LogAction(c.Request.Context(), &models.AuditLog{
		ActorID:       actorID,
		ActorUsername: app.Username(c),
		Action:        action,
		LoanID:        loanID,
		DeviceID:      deviceID,
		Detail:        detail,
	})
}
