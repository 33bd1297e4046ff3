package domain

import (
	"time"

	"github.com/google/uuid"
)

// SavedSearch is the monitored search definition: which portals to crawl
// and which filters to apply when building portal search URLs.
type SavedSearch struct {
	ID          uuid.UUID
	UserID      *uuid.UUID
	Name        string
	Description *string

	Portals []string

	PropertyType  *string
	OperationType string

	City          *string
	Province      *string
	Neighborhoods []string

	MinPrice *float64
	MaxPrice *float64
	Currency string

	MinArea *float64
	MaxArea *float64

	MinBedrooms  *int
	MaxBedrooms  *int
	MinBathrooms *int

	AutoScrape bool
	IsActive   bool

	LastExecutedAt       *time.Time
	TotalExecutions      int
	TotalPropertiesFound int

	CreatedAt time.Time
	UpdatedAt time.Time
}
