package dto

import (
	"fmt"
	"strings"
	"time"

	"propwatch/internal/domain"

	"github.com/google/uuid"
)

var knownPortals = map[string]bool{
	domain.PortalArgenprop:    true,
	domain.PortalZonaprop:     true,
	domain.PortalRemax:        true,
	domain.PortalMercadoLibre: true,
}

var knownOperations = map[string]bool{
	domain.OperationVenta:            true,
	domain.OperationAlquiler:         true,
	domain.OperationAlquilerTemporal: true,
}

type SavedSearchRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`

	Portals []string `json:"portals"`

	PropertyType  *string `json:"property_type"`
	OperationType string  `json:"operation_type"`

	City          *string  `json:"city"`
	Province      *string  `json:"province"`
	Neighborhoods []string `json:"neighborhoods"`

	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
	Currency string   `json:"currency"`

	MinArea *float64 `json:"min_area"`
	MaxArea *float64 `json:"max_area"`

	MinBedrooms  *int `json:"min_bedrooms"`
	MaxBedrooms  *int `json:"max_bedrooms"`
	MinBathrooms *int `json:"min_bathrooms"`

	AutoScrape bool `json:"auto_scrape"`
	IsActive   *bool `json:"is_active"`
}

// ToDomain validates the request and builds the domain search. Unknown
// portals and operation types are rejected up front so a bad search can
// never reach the crawler.
func (r SavedSearchRequest) ToDomain() (domain.SavedSearch, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return domain.SavedSearch{}, fmt.Errorf("name is required")
	}
	if len(r.Portals) == 0 {
		return domain.SavedSearch{}, fmt.Errorf("at least one portal is required")
	}

	portals := make([]string, 0, len(r.Portals))
	for _, p := range r.Portals {
		p = strings.ToLower(strings.TrimSpace(p))
		if !knownPortals[p] {
			return domain.SavedSearch{}, fmt.Errorf("unknown portal %q", p)
		}
		portals = append(portals, p)
	}

	op := strings.ToLower(strings.TrimSpace(r.OperationType))
	if op == "" {
		op = domain.OperationVenta
	}
	if !knownOperations[op] {
		return domain.SavedSearch{}, fmt.Errorf("unknown operation type %q", op)
	}

	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = domain.CurrencyUSD
	}
	if currency != domain.CurrencyUSD && currency != domain.CurrencyARS {
		return domain.SavedSearch{}, fmt.Errorf("unknown currency %q", currency)
	}

	if r.MinPrice != nil && r.MaxPrice != nil && *r.MinPrice > *r.MaxPrice {
		return domain.SavedSearch{}, fmt.Errorf("min_price exceeds max_price")
	}
	if r.MinArea != nil && r.MaxArea != nil && *r.MinArea > *r.MaxArea {
		return domain.SavedSearch{}, fmt.Errorf("min_area exceeds max_area")
	}
	if r.MinBedrooms != nil && r.MaxBedrooms != nil && *r.MinBedrooms > *r.MaxBedrooms {
		return domain.SavedSearch{}, fmt.Errorf("min_bedrooms exceeds max_bedrooms")
	}

	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	return domain.SavedSearch{
		Name:          name,
		Description:   r.Description,
		Portals:       portals,
		PropertyType:  r.PropertyType,
		OperationType: op,
		City:          r.City,
		Province:      r.Province,
		Neighborhoods: r.Neighborhoods,
		MinPrice:      r.MinPrice,
		MaxPrice:      r.MaxPrice,
		Currency:      currency,
		MinArea:       r.MinArea,
		MaxArea:       r.MaxArea,
		MinBedrooms:   r.MinBedrooms,
		MaxBedrooms:   r.MaxBedrooms,
		MinBathrooms:  r.MinBathrooms,
		AutoScrape:    r.AutoScrape,
		IsActive:      active,
	}, nil
}

type SavedSearchResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`

	Portals []string `json:"portals"`

	PropertyType  *string `json:"property_type,omitempty"`
	OperationType string  `json:"operation_type"`

	City          *string  `json:"city,omitempty"`
	Province      *string  `json:"province,omitempty"`
	Neighborhoods []string `json:"neighborhoods,omitempty"`

	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Currency string   `json:"currency"`

	MinArea *float64 `json:"min_area,omitempty"`
	MaxArea *float64 `json:"max_area,omitempty"`

	MinBedrooms  *int `json:"min_bedrooms,omitempty"`
	MaxBedrooms  *int `json:"max_bedrooms,omitempty"`
	MinBathrooms *int `json:"min_bathrooms,omitempty"`

	AutoScrape bool `json:"auto_scrape"`
	IsActive   bool `json:"is_active"`

	LastExecutedAt       *string `json:"last_executed_at,omitempty"`
	TotalExecutions      int     `json:"total_executions"`
	TotalPropertiesFound int     `json:"total_properties_found"`

	CreatedAt string `json:"created_at"`
}

func NewSavedSearchResponse(s domain.SavedSearch) SavedSearchResponse {
	res := SavedSearchResponse{
		ID:                   s.ID,
		Name:                 s.Name,
		Description:          s.Description,
		Portals:              s.Portals,
		PropertyType:         s.PropertyType,
		OperationType:        s.OperationType,
		City:                 s.City,
		Province:             s.Province,
		Neighborhoods:        s.Neighborhoods,
		MinPrice:             s.MinPrice,
		MaxPrice:             s.MaxPrice,
		Currency:             s.Currency,
		MinArea:              s.MinArea,
		MaxArea:              s.MaxArea,
		MinBedrooms:          s.MinBedrooms,
		MaxBedrooms:          s.MaxBedrooms,
		MinBathrooms:         s.MinBathrooms,
		AutoScrape:           s.AutoScrape,
		IsActive:             s.IsActive,
		TotalExecutions:      s.TotalExecutions,
		TotalPropertiesFound: s.TotalPropertiesFound,
		CreatedAt:            s.CreatedAt.UTC().Format(time.RFC3339),
	}
	if s.LastExecutedAt != nil {
		ts := s.LastExecutedAt.UTC().Format(time.RFC3339)
		res.LastExecutedAt = &ts
	}
	return res
}
