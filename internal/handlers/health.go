package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func HealthCheck(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbStatus := "connected"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
			dbStatus = "unreachable"
		}

		status := fiber.StatusOK
		if dbStatus != "connected" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":  "ok",
			"version": "1.0.0",
			"services": fiber.Map{
				"database": dbStatus,
			},
		})
	}
}
