package dto

import (
	"fmt"
	"strings"

	"propwatch/internal/domain"
)

// ImportCard is one listing discovered out of band, typically by the
// browser agent running inside a logged-in session.
type ImportCard struct {
	SourceURL       string   `json:"source_url"`
	Source          string   `json:"source"`
	SourceID        *string  `json:"source_id"`
	Title           *string  `json:"title"`
	Price           *float64 `json:"price"`
	Currency        *string  `json:"currency"`
	ThumbnailURL    *string  `json:"thumbnail_url"`
	LocationPreview *string  `json:"location_preview"`
}

type ImportCardsRequest struct {
	Cards []ImportCard `json:"cards"`
}

func (r ImportCardsRequest) ToDomain() ([]domain.ListingCard, error) {
	if len(r.Cards) == 0 {
		return nil, fmt.Errorf("cards is empty")
	}

	out := make([]domain.ListingCard, 0, len(r.Cards))
	for i, c := range r.Cards {
		url := strings.TrimSpace(c.SourceURL)
		if url == "" {
			return nil, fmt.Errorf("card %d: source_url is required", i)
		}
		source := strings.ToLower(strings.TrimSpace(c.Source))
		if !knownPortals[source] {
			return nil, fmt.Errorf("card %d: unknown portal %q", i, c.Source)
		}
		out = append(out, domain.ListingCard{
			SourceURL:       url,
			Source:          source,
			SourceID:        c.SourceID,
			Title:           c.Title,
			Price:           c.Price,
			Currency:        c.Currency,
			ThumbnailURL:    c.ThumbnailURL,
			LocationPreview: c.LocationPreview,
		})
	}
	return out, nil
}
