package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	PortalArgenprop    = "argenprop"
	PortalZonaprop     = "zonaprop"
	PortalRemax        = "remax"
	PortalMercadoLibre = "mercadolibre"
)

const (
	OperationVenta            = "venta"
	OperationAlquiler         = "alquiler"
	OperationAlquilerTemporal = "alquiler_temporal"
)

const (
	CurrencyUSD = "USD"
	CurrencyARS = "ARS"
)

// Property is the full scraped record for one listing.
type Property struct {
	ID        uuid.UUID
	Source    string
	SourceURL *string
	SourceID  *string

	PropertyType  string
	OperationType string
	Title         string
	Description   *string

	Price       float64
	Currency    string
	PricePerSqm *float64

	Latitude     *float64
	Longitude    *float64
	ApproxCoords bool
	Address      *string
	Street       *string
	StreetNumber *string
	Neighborhood *string
	City         string
	Province     string

	CoveredArea *float64
	TotalArea   *float64

	FloorLevel    *int
	Bedrooms      *int
	Bathrooms     *int
	ParkingSpaces *int
	Amenities     []string

	RealEstateAgency *string

	Status string

	Images []PropertyImage

	ScrapedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PropertyImage struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	URL        string
	IsPrimary  bool
	Order      int
}
