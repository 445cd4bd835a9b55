package app

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"device-loan-backend/db"
	"device-loan-backend/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config

	appSess *session.AppSessionStore
}

// Config 从环境变量读取
type Config struct {
	RedisAddr  string
	RedisPwd   string
	WebOrigin  string
	SessionTTL time.Duration

	// Kiosk surface protection
	KioskRatePerSec float64
	KioskBurst      int
	CacheTTL        time.Duration

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := loadConfig()

	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
	return a
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}

	ttl := 8 * time.Hour
	if sec, err := strconv.Atoi(get("SESSION_TTL_SECONDS", "")); err == nil && sec > 0 {
		ttl = time.Duration(sec) * time.Second
	}

	ratePerSec := 5.0
	if v, err := strconv.ParseFloat(get("KIOSK_RATE_PER_SEC", ""), 64); err == nil && v > 0 {
		ratePerSec = v
	}
	burst := 10
	if v, err := strconv.Atoi(get("KIOSK_RATE_BURST", "")); err == nil && v > 0 {
		burst = v
	}
	cacheTTL := 30 * time.Second
	if v, err := strconv.Atoi(get("CACHE_TTL_SECONDS", "")); err == nil && v > 0 {
		cacheTTL = time.Duration(v) * time.Second
	}

	return Config{
		RedisAddr:  get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:   os.Getenv("REDIS_PASSWORD"),
		WebOrigin:  strings.TrimSpace(get("WEB_ORIGIN", "http://localhost:5173")),
		SessionTTL: ttl,

		KioskRatePerSec: ratePerSec,
		KioskBurst:      burst,
		CacheTTL:        cacheTTL,

		BootstrapAdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
	}
}
