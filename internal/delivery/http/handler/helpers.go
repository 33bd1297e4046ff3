package handler

import (
	"strconv"
	"strings"

	"propwatch/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func parseQueryInt(c fiber.Ctx, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func parseQueryFloat(c fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseQueryBool(c fiber.Ctx, key string) bool {
	raw := strings.ToLower(strings.TrimSpace(c.Query(key)))
	return raw == "true" || raw == "1"
}

func pathID(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Invalid id", nil, err)
	}
	return id, nil
}
