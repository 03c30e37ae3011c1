package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handlers serves the health endpoint.
type Handlers struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

// JSON GET /health/json — pings the datastore and the session store.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	out := fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC(),
	}

	dbStatus := "not configured"
	if h.DB != nil {
		dbStatus = "ok"
		if sqlDB, err := h.DB.DB(); err != nil {
			dbStatus = err.Error()
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = err.Error()
		}
	}
	out["database"] = dbStatus

	redisStatus := "not configured"
	if h.Rdb != nil {
		redisStatus = "ok"
		if err := h.Rdb.Ping(context.Background()).Err(); err != nil {
			redisStatus = err.Error()
		}
	}
	out["redis"] = redisStatus

	return c.JSON(out)
}
