package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthController reports process and dependency health
type HealthController struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewHealthController creates the controller; db and rdb may be nil
func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{db: db, redis: rdb}
}

// Check handles GET /api/v1/health
func (h *HealthController) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Warehouse admin API is running",
	})
}

// Dependencies handles GET /api/v1/health/dependencies and pings the journal
// database and the detail cache when they are configured
func (h *HealthController) Dependencies(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{
		"database": "disabled",
		"redis":    "disabled",
	}

	if h.db != nil {
		deps["database"] = "ok"
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			deps["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	if h.redis != nil {
		deps["redis"] = "ok"
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			deps["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{
		"success":      status == http.StatusOK,
		"dependencies": deps,
	})
}
