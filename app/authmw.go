package app

import (
	"net/http"

	"device-loan-backend/db"
	"device-loan-backend/models"
	"device-loan-backend/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "staff_session"

// AuthRequired resolves the session cookie to a live staff record and
// puts staffID / username / role into the request context.
func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		// 确认账号仍存在且未停用
		st, err := repo.FindStaffByID(c.Request.Context(), as.StaffID)
		if err != nil || !st.IsActive {
			_ = appSess.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}

		c.Set("staffID", st.ID)
		c.Set("username", st.Username)
		c.Set("role", string(st.Role))
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("role")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if role, _ := v.(string); role != string(models.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// StaffID reads the authenticated staff id set by AuthRequired.
func StaffID(c *gin.Context) string {
	v, _ := c.Get("staffID")
	id, _ := v.(string)
	return id
}

func Username(c *gin.Context) string {
	v, _ := c.Get("username")
	name, _ := v.(string)
	return name
}
