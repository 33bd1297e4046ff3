package handler

import (
	"strings"

	"propwatch/internal/crawl"
	"propwatch/internal/delivery/http/dto"
	"propwatch/internal/delivery/http/middleware"
	"propwatch/internal/domain"
	"propwatch/internal/pkg/response"
	"propwatch/internal/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PendingHandler struct {
	pending repository.PendingRepository
	monitor *crawl.Monitor
}

func NewPendingHandler(pending repository.PendingRepository, monitor *crawl.Monitor) *PendingHandler {
	return &PendingHandler{pending: pending, monitor: monitor}
}

func (h *PendingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/pending")
	grp.Get("/", h.List)
	grp.Get("/stats", h.Stats)
	grp.Post("/scrape", h.ScrapeBatch)
	grp.Post("/clear-errors", h.ClearErrors)
	grp.Get("/:id", h.Get)
	grp.Post("/:id/scrape", h.ScrapeOne)
	grp.Post("/:id/skip", h.Skip)
	grp.Delete("/:id", h.Delete)
}

func (h *PendingHandler) List(c fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 50)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	offset, err := parseQueryInt(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	filter := repository.PendingFilter{
		Status: domain.PendingStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Source: strings.ToLower(strings.TrimSpace(c.Query("source"))),
		Limit:  limit,
		Offset: offset,
	}
	if raw := strings.TrimSpace(c.Query("search_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid search_id", nil, err)
		}
		filter.SavedSearchID = &id
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid status", nil, nil)
	}

	items, err := h.pending.List(c.Context(), filter)
	if err != nil {
		return err
	}

	res := make([]dto.PendingItemResponse, 0, len(items))
	for _, it := range items {
		res = append(res, dto.NewPendingItemResponse(it))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *PendingHandler) Stats(c fiber.Ctx) error {
	stats, err := h.pending.Stats(c.Context())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, stats)
}

func (h *PendingHandler) Get(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	item, err := h.pending.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewPendingItemResponse(*item))
}

func (h *PendingHandler) ScrapeBatch(c fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	var searchID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("search_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid search_id", nil, err)
		}
		searchID = &id
	}

	report, err := h.monitor.ScrapePending(c.Context(), searchID, limit)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Scrape completed", report)
}

func (h *PendingHandler) ScrapeOne(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	propertyID, err := h.monitor.ScrapeOne(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Item scraped", fiber.Map{
		"property_id": propertyID,
	})
}

func (h *PendingHandler) Skip(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.monitor.Skip(c.Context(), id); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Item skipped", nil)
}

func (h *PendingHandler) ClearErrors(c fiber.Ctx) error {
	var searchID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("search_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid search_id", nil, err)
		}
		searchID = &id
	}

	n, err := h.monitor.ClearErrors(c.Context(), searchID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"requeued": n,
	})
}

func (h *PendingHandler) Delete(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.pending.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Item deleted", nil)
}
