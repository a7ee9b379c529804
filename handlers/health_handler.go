package handlers

import (
	"docpipe_backend/platform/database"
	"docpipe_backend/platform/redis"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	db    *database.DB
	redis *redis.Service
}

func NewHealthHandler(db *database.DB, redisService *redis.Service) *HealthHandler {
	return &HealthHandler{db: db, redis: redisService}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.db.Ping(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "database": err.Error()})
	}
	if err := h.redis.Rdb.Ping(h.redis.Ctx).Err(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "redis": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
