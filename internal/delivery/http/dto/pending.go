package dto

import (
	"time"

	"propwatch/internal/domain"

	"github.com/google/uuid"
)

type PendingItemResponse struct {
	ID            uuid.UUID `json:"id"`
	SavedSearchID uuid.UUID `json:"saved_search_id"`

	SourceURL string  `json:"source_url"`
	Source    string  `json:"source"`
	SourceID  *string `json:"source_id,omitempty"`

	Title           *string  `json:"title,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	Currency        *string  `json:"currency,omitempty"`
	ThumbnailURL    *string  `json:"thumbnail_url,omitempty"`
	LocationPreview *string  `json:"location_preview,omitempty"`

	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	PropertyID   *uuid.UUID `json:"property_id,omitempty"`

	DiscoveredAt string  `json:"discovered_at"`
	ScrapedAt    *string `json:"scraped_at,omitempty"`
}

func NewPendingItemResponse(item domain.PendingItem) PendingItemResponse {
	res := PendingItemResponse{
		ID:              item.ID,
		SavedSearchID:   item.SavedSearchID,
		SourceURL:       item.SourceURL,
		Source:          item.Source,
		SourceID:        item.SourceID,
		Title:           item.Title,
		Price:           item.Price,
		Currency:        item.Currency,
		ThumbnailURL:    item.ThumbnailURL,
		LocationPreview: item.LocationPreview,
		Status:          string(item.Status),
		ErrorMessage:    item.ErrorMessage,
		PropertyID:      item.PropertyID,
		DiscoveredAt:    item.DiscoveredAt.UTC().Format(time.RFC3339),
	}
	if item.ScrapedAt != nil {
		ts := item.ScrapedAt.UTC().Format(time.RFC3339)
		res.ScrapedAt = &ts
	}
	return res
}
