package routes

import (
	"time"

	"device-loan-backend/app"
	"device-loan-backend/controllers"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	loanCtl := controllers.NewLoanController(s)
	deviceCtl := controllers.NewDeviceController(s)
	studentCtl := controllers.NewStudentController(s)
	staffCtl := controllers.NewStaffController(s)
	dashCtl := controllers.NewDashboardController(s)
	auditCtl := controllers.NewAuditController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)
	kioskLimit := app.RateLimit(rate.Limit(a.Config.KioskRatePerSec), a.Config.KioskBurst)
	caching := app.CacheGET(cache.New(a.Config.CacheTTL, 10*time.Minute), a.Config.CacheTTL)

	// ------------------------------
	// 公开：kiosk + 登录
	// ------------------------------
	public := r.Group("/api", kioskLimit)
	{
		public.POST("/auth/login", authCtl.Login)
		public.POST("/loans/reserve", loanCtl.Reserve)
		public.GET("/devices/available-count", caching, deviceCtl.AvailableCount)
		public.GET("/students/lookup", studentCtl.Lookup)
		public.POST("/students", studentCtl.Upsert)
	}

	// ------------------------------
	// 员工控制台（会话鉴权）
	// ------------------------------
	staff := r.Group("/api", authMW, seenMW)
	{
		staff.GET("/auth/me", authCtl.Me)
		staff.POST("/auth/logout", authCtl.Logout)

		staff.GET("/devices", deviceCtl.List)
		staff.GET("/devices/lookup", deviceCtl.Lookup)

		staff.POST("/loans/manual", loanCtl.ManualLoan)
		staff.GET("/loans/reservations", loanCtl.Reservations)
		staff.POST("/loans/:id/checkout", loanCtl.Checkout)
		staff.POST("/loans/checkin", loanCtl.CheckIn)
		staff.GET("/loans/active", loanCtl.Active)
		staff.GET("/loans/export", loanCtl.Export)
		staff.GET("/loans/history", loanCtl.History)
		staff.GET("/loans/:id", loanCtl.Get)
		staff.PUT("/loans/:id", loanCtl.Edit)
		staff.DELETE("/loans/:id", loanCtl.Cancel)

		staff.GET("/dashboard/stats", caching, dashCtl.Stats)
	}

	// ------------------------------
	// 仅管理员
	// ------------------------------
	admin := r.Group("/api", authMW, adminMW)
	{
		admin.POST("/devices", deviceCtl.Create)
		admin.PUT("/devices/:id", deviceCtl.Update)

		admin.GET("/staff", staffCtl.List)
		admin.POST("/staff", staffCtl.Create)
		admin.PUT("/staff/:id", staffCtl.Update)
		admin.DELETE("/staff/:id", staffCtl.Deactivate)

		admin.GET("/audit", auditCtl.List)
	}
}
