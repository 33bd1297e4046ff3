package handler

import (
	"propwatch/internal/database"
	"propwatch/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type HealthHandler struct {
	db database.DB
}

func NewHealthHandler(db database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	dbStatus := "up"
	if h.db == nil {
		dbStatus = "down"
	} else if err := h.db.Ping(c.Context()); err != nil {
		dbStatus = "down"
	}

	status := fiber.StatusOK
	if dbStatus != "up" {
		status = fiber.StatusServiceUnavailable
	}

	return response.Success(c, status, response.MessageOK, fiber.Map{
		"database": dbStatus,
	})
}
