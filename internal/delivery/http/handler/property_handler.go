package handler

import (
	"strings"

	"propwatch/internal/delivery/http/dto"
	"propwatch/internal/delivery/http/middleware"
	"propwatch/internal/pkg/response"
	"propwatch/internal/repository"

	"github.com/gofiber/fiber/v3"
)

type PropertyHandler struct {
	props repository.PropertyRepository
}

func NewPropertyHandler(props repository.PropertyRepository) *PropertyHandler {
	return &PropertyHandler{props: props}
}

func (h *PropertyHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/properties")
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Delete("/:id", h.Delete)
}

func (h *PropertyHandler) List(c fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 50)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	offset, err := parseQueryInt(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	minPrice, err := parseQueryFloat(c, "min_price")
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	maxPrice, err := parseQueryFloat(c, "max_price")
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	items, err := h.props.List(c.Context(), repository.PropertyFilter{
		Source:        strings.ToLower(strings.TrimSpace(c.Query("source"))),
		OperationType: strings.ToLower(strings.TrimSpace(c.Query("operation_type"))),
		City:          strings.TrimSpace(c.Query("city")),
		Neighborhood:  strings.TrimSpace(c.Query("neighborhood")),
		Currency:      strings.ToUpper(strings.TrimSpace(c.Query("currency"))),
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return err
	}

	res := make([]dto.PropertyResponse, 0, len(items))
	for _, it := range items {
		res = append(res, dto.NewPropertyResponse(it))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *PropertyHandler) Get(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	p, err := h.props.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewPropertyResponse(*p))
}

func (h *PropertyHandler) Delete(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.props.Delete(c.Context(), id); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Property deleted", nil)
}
