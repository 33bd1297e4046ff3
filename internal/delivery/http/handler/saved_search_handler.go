package handler

import (
	"propwatch/internal/crawl"
	"propwatch/internal/delivery/http/dto"
	"propwatch/internal/delivery/http/middleware"
	"propwatch/internal/pkg/response"
	"propwatch/internal/repository"

	"github.com/gofiber/fiber/v3"
)

type SavedSearchHandler struct {
	searches repository.SavedSearchRepository
	monitor  *crawl.Monitor
}

func NewSavedSearchHandler(searches repository.SavedSearchRepository, monitor *crawl.Monitor) *SavedSearchHandler {
	return &SavedSearchHandler{searches: searches, monitor: monitor}
}

// RegisterRoutes wires the CRUD surface; the caller decides which group
// (and therefore which middleware) the execute/import routes live under.
func (h *SavedSearchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/searches")
	grp.Get("/", h.List)
	grp.Post("/", h.Create)
	grp.Get("/:id", h.Get)
	grp.Put("/:id", h.Update)
	grp.Patch("/:id/toggle", h.Toggle)
	grp.Delete("/:id", h.Delete)
	grp.Post("/:id/execute", h.Execute)
}

// RegisterImportRoutes is separate so the registry can put the agent
// token guard in front of it.
func (h *SavedSearchHandler) RegisterImportRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/searches/:id/import", h.ImportCards)
}

func (h *SavedSearchHandler) List(c fiber.Ctx) error {
	includeInactive := parseQueryBool(c, "include_inactive")

	items, err := h.searches.List(c.Context(), includeInactive)
	if err != nil {
		return err
	}

	res := make([]dto.SavedSearchResponse, 0, len(items))
	for _, it := range items {
		res = append(res, dto.NewSavedSearchResponse(it))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *SavedSearchHandler) Create(c fiber.Ctx) error {
	var req dto.SavedSearchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	search, err := req.ToDomain()
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	}

	if err := h.searches.Create(c.Context(), &search); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusCreated, "Search created", dto.NewSavedSearchResponse(search))
}

func (h *SavedSearchHandler) Get(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	search, err := h.searches.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSavedSearchResponse(*search))
}

func (h *SavedSearchHandler) Update(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req dto.SavedSearchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	search, err := req.ToDomain()
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	}
	search.ID = id

	if err := h.searches.Update(c.Context(), &search); err != nil {
		return err
	}

	updated, err := h.searches.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Search updated", dto.NewSavedSearchResponse(*updated))
}

func (h *SavedSearchHandler) Toggle(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	search, err := h.searches.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	if err := h.searches.SetActive(c.Context(), id, !search.IsActive); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"id":        id,
		"is_active": !search.IsActive,
	})
}

func (h *SavedSearchHandler) Delete(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.searches.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Search deleted", nil)
}

func (h *SavedSearchHandler) Execute(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	maxPerPortal, err := parseQueryInt(c, "max_per_portal", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	summary, err := h.monitor.ExecuteSearch(c.Context(), id, maxPerPortal)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Search executed", summary)
}

func (h *SavedSearchHandler) ImportCards(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req dto.ImportCardsRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	cards, err := req.ToDomain()
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	}

	summary, err := h.monitor.ImportCards(c.Context(), id, cards)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Cards imported", summary)
}
