// app/seenmw.go
package app

import (
	"time"

	"device-loan-backend/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen updates the staff member's last-seen timestamp at most
// once per throttle window, gated by a Redis SetNX key.
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := StaffID(c)
		if sid == "" {
			c.Next()
			return
		}

		key := "staff:lastseen:" + sid
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			_ = repo.TouchStaffSeen(c, sid) // 忽略错误，不阻塞请求
		}
		c.Next()
	}
}
