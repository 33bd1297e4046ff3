package dto

import (
	"fmt"
	"strings"
	"time"

	"propwatch/internal/repository"

	"github.com/google/uuid"
)

type PortalLocationRequest struct {
	Name           string  `json:"name"`
	RemaxID        string  `json:"remax_id"`
	DisplayName    string  `json:"display_name"`
	ParentLocation *string `json:"parent_location"`
}

func (r PortalLocationRequest) ToModel() (repository.PortalLocation, error) {
	name := strings.ToLower(strings.TrimSpace(r.Name))
	if name == "" {
		return repository.PortalLocation{}, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.RemaxID) == "" {
		return repository.PortalLocation{}, fmt.Errorf("remax_id is required")
	}

	display := strings.TrimSpace(r.DisplayName)
	if display == "" {
		display = name
	}

	return repository.PortalLocation{
		Name:           name,
		RemaxID:        strings.TrimSpace(r.RemaxID),
		DisplayName:    display,
		ParentLocation: r.ParentLocation,
	}, nil
}

type PortalLocationResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	RemaxID        string    `json:"remax_id"`
	DisplayName    string    `json:"display_name"`
	ParentLocation *string   `json:"parent_location,omitempty"`
	VerifiedAt     string    `json:"verified_at"`
}

func NewPortalLocationResponse(loc repository.PortalLocation) PortalLocationResponse {
	return PortalLocationResponse{
		ID:             loc.ID,
		Name:           loc.Name,
		RemaxID:        loc.RemaxID,
		DisplayName:    loc.DisplayName,
		ParentLocation: loc.ParentLocation,
		VerifiedAt:     loc.VerifiedAt.UTC().Format(time.RFC3339),
	}
}

type PortalPropertyTypeRequest struct {
	Name     string `json:"name"`
	RemaxIDs string `json:"remax_ids"`
}

func (r PortalPropertyTypeRequest) ToModel() (repository.PortalPropertyType, error) {
	name := strings.ToLower(strings.TrimSpace(r.Name))
	if name == "" {
		return repository.PortalPropertyType{}, fmt.Errorf("name is required")
	}
	ids := strings.TrimSpace(r.RemaxIDs)
	if ids == "" {
		return repository.PortalPropertyType{}, fmt.Errorf("remax_ids is required")
	}
	return repository.PortalPropertyType{Name: name, RemaxIDs: ids}, nil
}

type PortalPropertyTypeResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	RemaxIDs string    `json:"remax_ids"`
}

func NewPortalPropertyTypeResponse(pt repository.PortalPropertyType) PortalPropertyTypeResponse {
	return PortalPropertyTypeResponse{ID: pt.ID, Name: pt.Name, RemaxIDs: pt.RemaxIDs}
}
