package domain

// ListingCard is the preview a portal search page exposes for one
// property. Only SourceURL is guaranteed; everything else is best effort.
type ListingCard struct {
	SourceURL       string
	Source          string
	SourceID        *string
	Title           *string
	Price           *float64
	Currency        *string
	ThumbnailURL    *string
	LocationPreview *string
}
