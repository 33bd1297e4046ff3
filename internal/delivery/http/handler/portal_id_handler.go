package handler

import (
	"strconv"
	"strings"

	"propwatch/internal/delivery/http/dto"
	"propwatch/internal/delivery/http/middleware"
	"propwatch/internal/pkg/response"
	"propwatch/internal/repository"

	"github.com/gofiber/fiber/v3"
)

// PortalIDHandler is the admin surface for the Remax lookup tables. New
// identifiers are discovered by hand (network tab on the portal) and
// registered here before a search can target the location.
type PortalIDHandler struct {
	portalIDs repository.PortalIDRepository
}

func NewPortalIDHandler(portalIDs repository.PortalIDRepository) *PortalIDHandler {
	return &PortalIDHandler{portalIDs: portalIDs}
}

func (h *PortalIDHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/portal-ids")
	grp.Get("/locations", h.ListLocations)
	grp.Put("/locations", h.UpsertLocation)
	grp.Put("/locations/bulk", h.BulkUpsertLocations)
	grp.Delete("/locations/:name", h.DeleteLocation)
	grp.Get("/property-types", h.ListPropertyTypes)
	grp.Put("/property-types", h.UpsertPropertyType)
}

func (h *PortalIDHandler) ListLocations(c fiber.Ctx) error {
	locs, err := h.portalIDs.ListLocations(c.Context())
	if err != nil {
		return err
	}

	res := make([]dto.PortalLocationResponse, 0, len(locs))
	for _, loc := range locs {
		res = append(res, dto.NewPortalLocationResponse(loc))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *PortalIDHandler) UpsertLocation(c fiber.Ctx) error {
	var req dto.PortalLocationRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	loc, err := req.ToModel()
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	}

	if err := h.portalIDs.UpsertLocation(c.Context(), &loc); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Location saved", dto.NewPortalLocationResponse(loc))
}

func (h *PortalIDHandler) BulkUpsertLocations(c fiber.Ctx) error {
	var reqs []dto.PortalLocationRequest
	if err := c.Bind().Body(&reqs); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	if len(reqs) == 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "Empty payload", nil, nil)
	}

	saved := 0
	for i, req := range reqs {
		loc, err := req.ToModel()
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest,
				"Invalid location at index "+strconv.Itoa(i)+": "+err.Error(), nil, err)
		}
		if err := h.portalIDs.UpsertLocation(c.Context(), &loc); err != nil {
			return err
		}
		saved++
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{
		"saved": saved,
	})
}

func (h *PortalIDHandler) DeleteLocation(c fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	if name == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Name is required", nil, nil)
	}

	if err := h.portalIDs.DeleteLocation(c.Context(), name); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Location deleted", nil)
}

func (h *PortalIDHandler) ListPropertyTypes(c fiber.Ctx) error {
	types, err := h.portalIDs.ListPropertyTypes(c.Context())
	if err != nil {
		return err
	}

	res := make([]dto.PortalPropertyTypeResponse, 0, len(types))
	for _, pt := range types {
		res = append(res, dto.NewPortalPropertyTypeResponse(pt))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *PortalIDHandler) UpsertPropertyType(c fiber.Ctx) error {
	var req dto.PortalPropertyTypeRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	pt, err := req.ToModel()
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	}

	if err := h.portalIDs.UpsertPropertyType(c.Context(), &pt); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Property type saved", dto.NewPortalPropertyTypeResponse(pt))
}
