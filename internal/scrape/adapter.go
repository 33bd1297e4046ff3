package scrape

import (
	"time"

	"propwatch/internal/domain"
)

// Adapter turns a saved search into portal URLs and parses the pages the
// fetcher brings back. One adapter per portal, stateless between pages.
type Adapter interface {
	Portal() string

	// BuildSearchURL is deterministic: the same search and page always
	// produce the same URL. It fails fast, before any fetch, when the
	// portal needs a lookup-table identifier that is missing.
	BuildSearchURL(search domain.SavedSearch, page int) (string, error)

	// ExtractCards returns every listing card found on a search page.
	// A page with no recognizable cards yields an empty slice.
	ExtractCards(html string) []domain.ListingCard

	HasNextPage(html string) bool

	// ExtractDetail mines a detail page. Missing fields stay zero; only
	// a page with no usable content at all is an error.
	ExtractDetail(html, pageURL string) (domain.Property, error)

	PageDelay() time.Duration
	MaxPages() int
}

// NewRegistry builds the portal table. Remax needs its identifier tables
// loaded from the database before URLs can be built.
func NewRegistry(remaxTables RemaxTables, ov Overrides) map[string]Adapter {
	return map[string]Adapter{
		domain.PortalArgenprop:    NewArgenprop(ov[domain.PortalArgenprop]),
		domain.PortalZonaprop:     NewZonaprop(ov[domain.PortalZonaprop]),
		domain.PortalRemax:        NewRemax(remaxTables),
		domain.PortalMercadoLibre: NewMercadoLibre(ov[domain.PortalMercadoLibre]),
	}
}
