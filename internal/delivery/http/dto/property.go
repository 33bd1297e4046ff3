package dto

import (
	"time"

	"propwatch/internal/domain"

	"github.com/google/uuid"
)

type PropertyImageResponse struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
	Order     int    `json:"order"`
}

type PropertyResponse struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	SourceURL *string   `json:"source_url,omitempty"`
	SourceID  *string   `json:"source_id,omitempty"`

	PropertyType  string  `json:"property_type"`
	OperationType string  `json:"operation_type"`
	Title         string  `json:"title"`
	Description   *string `json:"description,omitempty"`

	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	PricePerSqm *float64 `json:"price_per_sqm,omitempty"`

	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ApproxCoords bool     `json:"approx_coords"`

	Address      *string `json:"address,omitempty"`
	Street       *string `json:"street,omitempty"`
	StreetNumber *string `json:"street_number,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
	City         string  `json:"city"`
	Province     string  `json:"province"`

	CoveredArea *float64 `json:"covered_area,omitempty"`
	TotalArea   *float64 `json:"total_area,omitempty"`

	FloorLevel    *int     `json:"floor_level,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *int     `json:"bathrooms,omitempty"`
	ParkingSpaces *int     `json:"parking_spaces,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`

	RealEstateAgency *string `json:"real_estate_agency,omitempty"`
	Status           string  `json:"status"`

	Images []PropertyImageResponse `json:"images,omitempty"`

	ScrapedAt *string `json:"scraped_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func NewPropertyResponse(p domain.Property) PropertyResponse {
	res := PropertyResponse{
		ID:               p.ID,
		Source:           p.Source,
		SourceURL:        p.SourceURL,
		SourceID:         p.SourceID,
		PropertyType:     p.PropertyType,
		OperationType:    p.OperationType,
		Title:            p.Title,
		Description:      p.Description,
		Price:            p.Price,
		Currency:         p.Currency,
		PricePerSqm:      p.PricePerSqm,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		ApproxCoords:     p.ApproxCoords,
		Address:          p.Address,
		Street:           p.Street,
		StreetNumber:     p.StreetNumber,
		Neighborhood:     p.Neighborhood,
		City:             p.City,
		Province:         p.Province,
		CoveredArea:      p.CoveredArea,
		TotalArea:        p.TotalArea,
		FloorLevel:       p.FloorLevel,
		Bedrooms:         p.Bedrooms,
		Bathrooms:        p.Bathrooms,
		ParkingSpaces:    p.ParkingSpaces,
		Amenities:        p.Amenities,
		RealEstateAgency: p.RealEstateAgency,
		Status:           p.Status,
		CreatedAt:        p.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, img := range p.Images {
		res.Images = append(res.Images, PropertyImageResponse{
			URL: img.URL, IsPrimary: img.IsPrimary, Order: img.Order,
		})
	}
	if p.ScrapedAt != nil {
		ts := p.ScrapedAt.UTC().Format(time.RFC3339)
		res.ScrapedAt = &ts
	}
	return res
}
