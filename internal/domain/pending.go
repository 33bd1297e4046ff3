package domain

import (
	"time"

	"github.com/google/uuid"
)

type PendingStatus string

const (
	PendingStatusPending PendingStatus = "PENDING"
	PendingStatusScraped PendingStatus = "SCRAPED"
	PendingStatusSkipped PendingStatus = "SKIPPED"
	PendingStatusError   PendingStatus = "ERROR"
	// PendingStatusDuplicate stays in the taxonomy for operator use; the
	// dedup path never assigns it because duplicates are dropped up front.
	PendingStatusDuplicate PendingStatus = "DUPLICATE"
)

func (s PendingStatus) Valid() bool {
	switch s {
	case PendingStatusPending, PendingStatusScraped, PendingStatusSkipped,
		PendingStatusError, PendingStatusDuplicate:
		return true
	}
	return false
}

// PendingItem is one discovered listing URL queued for review or scraping.
// SourceURL is unique across the whole table.
type PendingItem struct {
	ID            uuid.UUID
	SavedSearchID uuid.UUID

	SourceURL string
	Source    string
	SourceID  *string

	Title           *string
	Price           *float64
	Currency        *string
	ThumbnailURL    *string
	LocationPreview *string

	Status       PendingStatus
	ErrorMessage *string
	PropertyID   *uuid.UUID

	DiscoveredAt time.Time
	ScrapedAt    *time.Time
	UpdatedAt    time.Time
}
