package crawl

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"propwatch/internal/config"
	"propwatch/internal/database"
	"propwatch/internal/domain"
	"propwatch/internal/fetch"
	"propwatch/internal/geo"
	"propwatch/internal/repository"
	"propwatch/internal/scrape"
)

// Fetcher is what the monitor needs from the page fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, opts fetch.Options) (string, error)
}

// Geocoder resolves scraped addresses to coordinates. A nil geocoder
// means properties are stored without coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, req geo.Request) (geo.Result, error)
	ClearCache()
}

// Notifier pushes run progress to interested clients (the websocket hub
// in the HTTP server). Nil is fine.
type Notifier interface {
	Notify(event string, payload any)
}

// Monitor orchestrates saved-search runs: discover listing URLs per
// portal, dedupe them against known properties and the pending queue,
// and optionally deep-scrape new finds right away.
//
// Portals are isolated from each other: one failing portal adds an
// entry to the run's Errors and the next portal still runs.
type Monitor struct {
	logger   *log.Logger
	db       database.DB
	searches repository.SavedSearchRepository
	pending  *repository.PostgresPendingRepository
	props    *repository.PostgresPropertyRepository
	adapters map[string]scrape.Adapter
	fetcher  Fetcher
	geocoder Geocoder
	notifier Notifier
	cfg      config.CrawlConfig
}

func NewMonitor(
	logger *log.Logger,
	db database.DB,
	searches repository.SavedSearchRepository,
	pending *repository.PostgresPendingRepository,
	props *repository.PostgresPropertyRepository,
	adapters map[string]scrape.Adapter,
	fetcher Fetcher,
	geocoder Geocoder,
	notifier Notifier,
	cfg config.CrawlConfig,
) *Monitor {
	return &Monitor{
		logger:   logger,
		db:       db,
		searches: searches,
		pending:  pending,
		props:    props,
		adapters: adapters,
		fetcher:  fetcher,
		geocoder: geocoder,
		notifier: notifier,
		cfg:      cfg,
	}
}

const defaultMaxPerPortal = 100

// ExecuteSearch runs one saved search across its portals. Success on the
// summary means the run completed; callers that need a clean run check
// len(Errors) == 0. Execution counters are bumped exactly once, at the
// end of the run.
func (m *Monitor) ExecuteSearch(ctx context.Context, searchID uuid.UUID, maxPerPortal int) (domain.RunSummary, error) {
	search, err := m.searches.GetByID(ctx, searchID)
	if err != nil {
		return domain.RunSummary{}, err
	}
	if maxPerPortal <= 0 {
		maxPerPortal = defaultMaxPerPortal
	}

	summary := domain.RunSummary{
		SearchID:   search.ID,
		SearchName: search.Name,
		Success:    true,
		Errors:     []domain.RunError{},
	}
	m.notify("run_started", map[string]any{"search_id": search.ID, "search_name": search.Name})

	for _, portal := range search.Portals {
		portal = strings.ToLower(portal)
		adapter, ok := m.adapters[portal]
		if !ok {
			summary.Errors = append(summary.Errors, domain.RunError{
				Portal:  portal,
				Message: fmt.Sprintf("no adapter for portal %s", portal),
			})
			continue
		}

		m.notify("portal_started", map[string]any{"search_id": search.ID, "portal": portal})
		cards, portalErr := m.discoverPortal(ctx, adapter, *search, maxPerPortal)
		summary.TotalFound += len(cards)

		for _, card := range cards {
			isNew, status, err := m.processCard(ctx, search, card)
			if err != nil {
				m.logf("[Monitor] card %s: %v", card.SourceURL, err)
				summary.Errors = append(summary.Errors, domain.RunError{
					Portal: portal, URL: card.SourceURL, Message: err.Error(),
				})
				continue
			}
			if !isNew {
				summary.Duplicates++
				continue
			}
			summary.NewProperties++
			if status == domain.PendingStatusScraped {
				summary.Scraped++
			} else {
				summary.Pending++
			}
		}

		if portalErr != nil {
			m.logf("[Monitor] portal %s: %v", portal, portalErr)
			summary.Errors = append(summary.Errors, domain.RunError{Portal: portal, Message: portalErr.Error()})
		}
		m.notify("portal_completed", map[string]any{
			"search_id": search.ID, "portal": portal, "found": len(cards),
		})

		if err := ctx.Err(); err != nil {
			return summary, err
		}
	}

	if m.geocoder != nil {
		m.geocoder.ClearCache()
	}
	if err := m.searches.RecordExecution(ctx, search.ID, summary.NewProperties); err != nil {
		return summary, fmt.Errorf("record execution: %w", err)
	}

	m.notify("run_completed", summary)
	return summary, nil
}

// ExecuteAllActive runs every active saved search in sequence.
func (m *Monitor) ExecuteAllActive(ctx context.Context, maxPerPortal int) ([]domain.RunSummary, error) {
	searches, err := m.searches.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.RunSummary, 0, len(searches))
	for _, s := range searches {
		summary, err := m.ExecuteSearch(ctx, s.ID, maxPerPortal)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summaries, err
			}
			m.logf("[Monitor] search %s (%s): %v", s.Name, s.ID, err)
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// discoverPortal pages through one portal's search results. It stops on
// an empty page, a missing next-page control, the page cap or the
// per-portal target. A page where every card is later deduped still
// continues; only zero raw cards means the portal ran dry.
func (m *Monitor) discoverPortal(ctx context.Context, adapter scrape.Adapter, search domain.SavedSearch, target int) ([]domain.ListingCard, error) {
	maxPages := adapter.MaxPages()
	if m.cfg.MaxPagesPerPortal > 0 && m.cfg.MaxPagesPerPortal < maxPages {
		maxPages = m.cfg.MaxPagesPerPortal
	}

	var cards []domain.ListingCard
	for page := 1; page <= maxPages; page++ {
		pageURL, err := adapter.BuildSearchURL(search, page)
		if err != nil {
			return cards, err
		}

		html, err := m.fetcher.Fetch(ctx, pageURL, fetch.Options{Timeout: m.cfg.PageTimeout})
		if err != nil {
			return cards, fmt.Errorf("fetch %s: %w", pageURL, err)
		}

		raw := adapter.ExtractCards(html)
		if len(raw) == 0 {
			break
		}
		cards = append(cards, raw...)
		if len(cards) >= target {
			cards = cards[:target]
			break
		}
		if !adapter.HasNextPage(html) {
			break
		}
		if page < maxPages {
			if err := sleepCtx(ctx, adapter.PageDelay()); err != nil {
				return cards, err
			}
		}
	}
	return cards, nil
}

// processCard dedupes one discovered card and queues or scrapes it.
// Dedup order: properties table first, then the pending queue, then the
// unique index as the last word against concurrent runs.
func (m *Monitor) processCard(ctx context.Context, search *domain.SavedSearch, card domain.ListingCard) (bool, domain.PendingStatus, error) {
	if card.SourceURL == "" {
		return false, "", errors.New("card without source URL")
	}

	exists, err := m.props.ExistsBySourceURL(ctx, card.SourceURL)
	if err != nil {
		return false, "", err
	}
	if exists {
		return false, "", nil
	}

	exists, err = m.pending.ExistsBySourceURL(ctx, card.SourceURL)
	if err != nil {
		return false, "", err
	}
	if exists {
		return false, "", nil
	}

	item := pendingFromCard(search.ID, card)
	inserted, err := m.pending.InsertIfAbsent(ctx, item)
	if err != nil {
		return false, "", err
	}
	if !inserted {
		return false, "", nil
	}

	if search.AutoScrape {
		propertyID, err := m.scrapeAndSave(ctx, item, search)
		if err != nil {
			m.logf("[Monitor] auto-scrape %s: %v", item.SourceURL, err)
			msg := truncateErr(err)
			if uerr := m.pending.UpdateStatus(ctx, item.ID, domain.PendingStatusError, &msg, nil); uerr != nil {
				return true, domain.PendingStatusError, uerr
			}
			return true, domain.PendingStatusError, nil
		}
		if uerr := m.pending.UpdateStatus(ctx, item.ID, domain.PendingStatusScraped, nil, &propertyID); uerr != nil {
			return true, domain.PendingStatusScraped, uerr
		}
		return true, domain.PendingStatusScraped, nil
	}

	return true, domain.PendingStatusPending, nil
}

// ImportCards persists externally discovered cards (a browser extension
// or manual paste) through the same dedup rules. Each card runs inside
// its own savepoint so one bad card does not sink the batch.
func (m *Monitor) ImportCards(ctx context.Context, searchID uuid.UUID, cards []domain.ListingCard) (domain.RunSummary, error) {
	search, err := m.searches.GetByID(ctx, searchID)
	if err != nil {
		return domain.RunSummary{}, err
	}

	summary := domain.RunSummary{
		SearchID:   search.ID,
		SearchName: search.Name,
		Success:    true,
		TotalFound: len(cards),
		Errors:     []domain.RunError{},
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return summary, err
	}
	defer tx.Rollback(ctx)

	pendingTx := m.pending.WithTx(tx)
	propsTx := m.props.WithTx(tx)

	for _, card := range cards {
		if card.SourceURL == "" {
			summary.Errors = append(summary.Errors, domain.RunError{
				Portal: card.Source, Message: "card without source URL",
			})
			continue
		}

		inner, err := tx.BeginNested(ctx)
		if err != nil {
			return summary, err
		}

		inserted, cardErr := importOne(ctx, propsTx.WithTx(inner), pendingTx.WithTx(inner), search.ID, card)
		if cardErr != nil {
			_ = inner.Rollback(ctx)
			summary.Errors = append(summary.Errors, domain.RunError{
				Portal: card.Source, URL: card.SourceURL, Message: cardErr.Error(),
			})
			continue
		}
		if err := inner.Commit(ctx); err != nil {
			return summary, err
		}
		if inserted {
			summary.NewProperties++
			summary.Pending++
		} else {
			summary.Duplicates++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return summary, err
	}

	if err := m.searches.RecordExecution(ctx, search.ID, summary.NewProperties); err != nil {
		return summary, fmt.Errorf("record execution: %w", err)
	}
	return summary, nil
}

func importOne(ctx context.Context, props *repository.PostgresPropertyRepository, pending *repository.PostgresPendingRepository, searchID uuid.UUID, card domain.ListingCard) (bool, error) {
	exists, err := props.ExistsBySourceURL(ctx, card.SourceURL)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	exists, err = pending.ExistsBySourceURL(ctx, card.SourceURL)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return pending.InsertIfAbsent(ctx, pendingFromCard(searchID, card))
}

// ScrapeReport is the outcome of a pending-queue drain.
type ScrapeReport struct {
	Scraped int               `json:"scraped"`
	Errors  int               `json:"errors"`
	Details []domain.RunError `json:"error_details,omitempty"`
}

// ScrapePending drains the oldest PENDING items, optionally scoped to
// one saved search. Failures mark the item ERROR and the drain goes on.
func (m *Monitor) ScrapePending(ctx context.Context, searchID *uuid.UUID, limit int) (ScrapeReport, error) {
	if limit <= 0 {
		limit = 50
	}

	items, err := m.pending.List(ctx, repository.PendingFilter{
		Status:        domain.PendingStatusPending,
		SavedSearchID: searchID,
		Limit:         limit,
		OldestFirst:   true,
	})
	if err != nil {
		return ScrapeReport{}, err
	}

	var report ScrapeReport
	for i := range items {
		item := items[i]

		propertyID, err := m.scrapeAndSave(ctx, &item, nil)
		if err != nil {
			m.logf("[Monitor] scrape %s: %v", item.SourceURL, err)
			msg := truncateErr(err)
			if uerr := m.pending.UpdateStatus(ctx, item.ID, domain.PendingStatusError, &msg, nil); uerr != nil {
				return report, uerr
			}
			report.Errors++
			report.Details = append(report.Details, domain.RunError{
				Portal: item.Source, URL: item.SourceURL, Message: err.Error(),
			})
			continue
		}
		if uerr := m.pending.UpdateStatus(ctx, item.ID, domain.PendingStatusScraped, nil, &propertyID); uerr != nil {
			return report, uerr
		}
		report.Scraped++

		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	if m.geocoder != nil {
		m.geocoder.ClearCache()
	}
	return report, nil
}

// ScrapeOne deep-scrapes a single pending item. Only PENDING items are
// eligible; anything else was already processed.
func (m *Monitor) ScrapeOne(ctx context.Context, pendingID uuid.UUID) (uuid.UUID, error) {
	item, err := m.pending.GetByID(ctx, pendingID)
	if err != nil {
		return uuid.Nil, err
	}
	if item.Status != domain.PendingStatusPending {
		return uuid.Nil, fmt.Errorf("item already processed (status %s)", item.Status)
	}

	propertyID, err := m.scrapeAndSave(ctx, item, nil)
	if err != nil {
		msg := truncateErr(err)
		if uerr := m.pending.UpdateStatus(ctx, item.ID, domain.PendingStatusError, &msg, nil); uerr != nil {
			return uuid.Nil, uerr
		}
		return uuid.Nil, err
	}
	if uerr := m.pending.UpdateStatus(ctx, item.ID, domain.PendingStatusScraped, nil, &propertyID); uerr != nil {
		return uuid.Nil, uerr
	}
	return propertyID, nil
}

// Skip marks a pending item as not worth scraping.
func (m *Monitor) Skip(ctx context.Context, pendingID uuid.UUID) error {
	return m.pending.UpdateStatus(ctx, pendingID, domain.PendingStatusSkipped, nil, nil)
}

// ClearErrors requeues ERROR items as PENDING, optionally scoped to one
// saved search.
func (m *Monitor) ClearErrors(ctx context.Context, searchID *uuid.UUID) (int64, error) {
	return m.pending.ResetErrors(ctx, searchID)
}

// scrapeAndSave fetches a detail page, mines it, normalizes the address,
// geocodes it and stores the property. Geocoding misses are tolerated;
// the property is stored without coordinates.
func (m *Monitor) scrapeAndSave(ctx context.Context, item *domain.PendingItem, search *domain.SavedSearch) (uuid.UUID, error) {
	adapter, ok := m.adapters[strings.ToLower(item.Source)]
	if !ok {
		return uuid.Nil, fmt.Errorf("no adapter for portal %s", item.Source)
	}

	html, err := m.fetcher.Fetch(ctx, item.SourceURL, fetch.Options{
		Timeout: m.cfg.DetailTimeout,
		Scroll:  true,
	})
	if err != nil {
		return uuid.Nil, err
	}

	prop, err := adapter.ExtractDetail(html, item.SourceURL)
	if err != nil {
		return uuid.Nil, err
	}

	m.finishProperty(&prop, item, search)

	fields := geo.NormalizeFields(geo.Fields{
		Address:      strDeref(prop.Address),
		Street:       strDeref(prop.Street),
		StreetNumber: strDeref(prop.StreetNumber),
		Neighborhood: strDeref(prop.Neighborhood),
		City:         prop.City,
		Province:     prop.Province,
	})
	prop.Address = strOpt(fields.Address)
	prop.Street = strOpt(fields.Street)
	prop.StreetNumber = strOpt(fields.StreetNumber)
	prop.Neighborhood = strOpt(fields.Neighborhood)
	prop.City = fields.City
	prop.Province = fields.Province

	if m.geocoder != nil {
		res, err := m.geocoder.Resolve(ctx, geo.Request{
			Address:      fields.Address,
			Street:       fields.Street,
			StreetNumber: fields.StreetNumber,
			Neighborhood: fields.Neighborhood,
			City:         fields.City,
			Province:     fields.Province,
		})
		switch {
		case err == nil:
			prop.Latitude = &res.Latitude
			prop.Longitude = &res.Longitude
			prop.ApproxCoords = res.Approx
		case errors.Is(err, domain.ErrGeocodeUnresolved), errors.Is(err, domain.ErrProviderRateLimited):
			m.logf("[Monitor] geocode %s: %v", item.SourceURL, err)
		default:
			m.logf("[Monitor] geocode %s: %v", item.SourceURL, err)
		}
	}

	if err := m.props.Insert(ctx, &prop); err != nil {
		return uuid.Nil, err
	}
	return prop.ID, nil
}

// finishProperty fills the fields a detail page cannot know on its own,
// preferring card data over blanks and search filters over defaults.
func (m *Monitor) finishProperty(prop *domain.Property, item *domain.PendingItem, search *domain.SavedSearch) {
	if prop.Source == "" {
		prop.Source = strings.ToLower(item.Source)
	}
	if prop.SourceURL == nil || *prop.SourceURL == "" {
		prop.SourceURL = &item.SourceURL
	}
	if prop.SourceID == nil {
		prop.SourceID = item.SourceID
	}
	if prop.Title == "" && item.Title != nil {
		prop.Title = *item.Title
	}
	if prop.Title == "" {
		prop.Title = "Sin título"
	}
	if prop.Price == 0 && item.Price != nil {
		prop.Price = *item.Price
		if prop.Currency == "" && item.Currency != nil {
			prop.Currency = *item.Currency
		}
	}
	if prop.Currency == "" {
		prop.Currency = domain.CurrencyUSD
	}

	if search != nil {
		if prop.PropertyType == "" && search.PropertyType != nil {
			prop.PropertyType = *search.PropertyType
		}
		if prop.OperationType == "" {
			prop.OperationType = search.OperationType
		}
		if prop.City == "" && search.City != nil {
			prop.City = *search.City
		}
		if prop.Province == "" && search.Province != nil {
			prop.Province = *search.Province
		}
	}
	if prop.PropertyType == "" {
		prop.PropertyType = "casa"
	}
	if prop.OperationType == "" {
		prop.OperationType = domain.OperationVenta
	}
	if prop.City == "" {
		prop.City = "Buenos Aires"
	}
	if prop.Province == "" {
		prop.Province = "Buenos Aires"
	}
	if prop.Status == "" {
		prop.Status = "ACTIVE"
	}

	if prop.PricePerSqm == nil && prop.Price > 0 && prop.TotalArea != nil && *prop.TotalArea > 0 {
		pps := prop.Price / *prop.TotalArea
		prop.PricePerSqm = &pps
	}
}

func pendingFromCard(searchID uuid.UUID, card domain.ListingCard) *domain.PendingItem {
	return &domain.PendingItem{
		ID:              uuid.New(),
		SavedSearchID:   searchID,
		SourceURL:       card.SourceURL,
		Source:          strings.ToLower(card.Source),
		SourceID:        card.SourceID,
		Title:           card.Title,
		Price:           card.Price,
		Currency:        card.Currency,
		ThumbnailURL:    card.ThumbnailURL,
		LocationPreview: card.LocationPreview,
		Status:          domain.PendingStatusPending,
	}
}

func (m *Monitor) notify(event string, payload any) {
	if m.notifier != nil {
		m.notifier.Notify(event, payload)
	}
}

func (m *Monitor) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// truncateErr caps an error message at the 500 bytes the error_message
// column is sized for, cutting on a rune boundary.
func truncateErr(err error) string {
	msg := err.Error()
	if len(msg) <= 500 {
		return msg
	}
	cut := 500
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func strDeref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strOpt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
