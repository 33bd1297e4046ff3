package scrape

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"propwatch/internal/domain"
)

const (
	remaxBase    = "https://www.remax.com.ar"
	remaxCDNBase = "https://d1acdg20u0pmxj.cloudfront.net/"
)

// Operation and currency identifiers are static in the Remax API.
var remaxOperationIDs = map[string]string{
	"venta":             "1",
	"alquiler":          "2",
	"alquiler_temporal": "3",
}

var remaxCurrencyIDs = map[string]string{
	"USD": "1",
	"ARS": "2",
}

// RemaxLocation is one row of the location lookup table.
type RemaxLocation struct {
	ID          string
	DisplayName string
}

// RemaxTables holds the portal identifier tables loaded from the
// database. Keys are lowercased names.
type RemaxTables struct {
	Locations     map[string]RemaxLocation
	PropertyTypes map[string]string
}

type Remax struct {
	tables RemaxTables
}

func NewRemax(tables RemaxTables) *Remax {
	if tables.Locations == nil {
		tables.Locations = map[string]RemaxLocation{}
	}
	if tables.PropertyTypes == nil {
		tables.PropertyTypes = map[string]string{}
	}
	return &Remax{tables: tables}
}

func (r *Remax) Portal() string           { return domain.PortalRemax }
func (r *Remax) PageDelay() time.Duration { return 3 * time.Second }
func (r *Remax) MaxPages() int            { return 10 }

// BuildSearchURL speaks the Remax query-parameter API:
//
//	/listings/buy?page=0&pageSize=24&sort=-createdAt&in:operationId=1
//	  &in:eStageId=0,1,2,3,4&in:typeId=1,2&pricein=1:0:200000
//	  &locations=in%3A%3A%3A%3A25006%40Palermo%3A%3A%3A
//
// Pages are 0-based. A requested location absent from the lookup table
// is an error before any fetch happens.
func (r *Remax) BuildSearchURL(search domain.SavedSearch, page int) (string, error) {
	var query []string

	query = append(query, fmt.Sprintf("page=%d", page-1))
	query = append(query, "pageSize=24")
	query = append(query, "sort=-createdAt")

	op := strings.ToLower(search.OperationType)
	opID, ok := remaxOperationIDs[op]
	if !ok {
		opID = "1"
	}
	query = append(query, "in:operationId="+opID)
	query = append(query, "in:eStageId=0,1,2,3,4")

	if propType := strings.ToLower(deref(search.PropertyType)); propType != "" {
		if ids, ok := r.tables.PropertyTypes[propType]; ok {
			query = append(query, "in:typeId="+ids)
		}
	}

	minPrice, hasMin := derefF(search.MinPrice)
	maxPrice, hasMax := derefF(search.MaxPrice)
	if hasMin || hasMax {
		curID, ok := remaxCurrencyIDs[strings.ToUpper(search.Currency)]
		if !ok {
			curID = "1"
		}
		maxVal := 99999999
		if hasMax {
			maxVal = int(maxPrice)
		}
		query = append(query, fmt.Sprintf("pricein=%s:%d:%d", curID, int(minPrice), maxVal))
	}

	loc, err := r.resolveLocation(search)
	if err != nil {
		return "", err
	}
	if loc != nil {
		locParam := fmt.Sprintf("in::::%s@%s:::", loc.ID, loc.DisplayName)
		query = append(query, "locations="+url.QueryEscape(locParam))
	}

	basePath := "/listings/buy"
	if op != "venta" && op != "" {
		basePath = "/listings/rent"
	}
	return remaxBase + basePath + "?" + strings.Join(query, "&"), nil
}

// resolveLocation tries neighborhoods first, then the city, then a
// partial city match. A miss with a concrete request fails.
func (r *Remax) resolveLocation(search domain.SavedSearch) (*RemaxLocation, error) {
	var notFound string

	for _, nb := range search.Neighborhoods {
		key := strings.ToLower(strings.TrimSpace(nb))
		if loc, ok := r.tables.Locations[key]; ok {
			return &loc, nil
		}
		notFound = nb
	}

	if city := strings.ToLower(strings.TrimSpace(deref(search.City))); city != "" {
		if loc, ok := r.tables.Locations[city]; ok {
			return &loc, nil
		}
		for key, loc := range r.tables.Locations {
			if strings.Contains(key, city) || strings.Contains(city, key) {
				return &loc, nil
			}
		}
		notFound = deref(search.City)
	}

	if notFound != "" {
		available := make([]string, 0, len(r.tables.Locations))
		for k := range r.tables.Locations {
			available = append(available, k)
		}
		return nil, &domain.LocationNotCachedError{
			Portal:    domain.PortalRemax,
			Kind:      "location",
			Key:       notFound,
			Available: available,
		}
	}
	return nil, nil
}

var remaxSlugRe = regexp.MustCompile(`/listings/([^/?]+)`)

func remaxSlug(u string) string {
	m := remaxSlugRe.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	slug := m[1]
	if slug == "buy" || slug == "rent" || slug == "sell" {
		return ""
	}
	return slug
}

var remaxSkipPatterns = []string{
	"/listings/buy", "/listings/rent", "/listings/sell",
	"/listings?", "page=", "/propiedades-en-",
}

func (r *Remax) ExtractCards(html string) []domain.ListingCard {
	doc := parseDoc(html)
	if doc == nil {
		return nil
	}

	linkPatterns := []string{
		`a.card-remax__href[href*="/listings/"]`,
		`a.carousel__href[href*="/listings/"]`,
		`a[href*="/listings/"]`,
		`a[href*="remax.com.ar/listing"]`,
	}

	seen := map[string]struct{}{}
	var cards []domain.ListingCard

	for _, pattern := range linkPatterns {
		doc.Find(pattern).Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if href == "" {
				return
			}
			for _, skip := range remaxSkipPatterns {
				if strings.Contains(href, skip) {
					return
				}
			}
			full := absURL(remaxBase, href)
			if remaxSlug(full) == "" {
				return
			}
			if _, ok := seen[full]; ok {
				return
			}
			seen[full] = struct{}{}
			cards = append(cards, r.parseCard(link, full))
		})
	}

	r.enrichThumbnails(doc, cards)
	return cards
}

func (r *Remax) parseCard(link *goquery.Selection, fullURL string) domain.ListingCard {
	c := domain.ListingCard{
		Source:    domain.PortalRemax,
		SourceURL: fullURL,
		SourceID:  strPtr(remaxSlug(fullURL)),
	}

	// Walk up to the outermost card container; the carousel images hang
	// off div.card-remax, above the link's immediate parent.
	card := link
	for i := 0; i < 6; i++ {
		parent := card.Parent()
		if parent.Length() == 0 {
			break
		}
		card = parent
		if cls, _ := card.Attr("class"); strings.Contains(cls, "card-remax") && !strings.Contains(cls, "container") {
			break
		}
	}

	if t := strings.TrimSpace(card.Find(`.card__description, h2, h3, [class*="title"]`).First().Text()); t != "" {
		c.Title = strPtr(truncate(t, 500))
	} else if t := strings.TrimSpace(link.Text()); len(t) > 10 {
		c.Title = strPtr(truncate(t, 500))
	}

	if t := strings.TrimSpace(card.Find(`.card__price, [class*="price"]`).First().Text()); t != "" {
		if amount, currency, ok := ParsePrice(t); ok {
			c.Price = &amount
			c.Currency = strPtr(currency)
		}
	}

	card.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		u := imageURL(img, remaxBase)
		if u == "" {
			return true
		}
		lower := strings.ToLower(u)
		for _, skip := range []string{".svg", "/assets/", "/icons/", "/agents/", "/logo", "/avatar/"} {
			if strings.Contains(lower, skip) {
				return true
			}
		}
		c.ThumbnailURL = &u
		return false
	})

	if t := strings.TrimSpace(card.Find(".card__ubication").First().Text()); t != "" {
		c.LocationPreview = strPtr(truncate(t, 200))
	} else if t := strings.TrimSpace(card.Find(`[class*="location"]`).First().Text()); t != "" {
		c.LocationPreview = strPtr(truncate(t, 200))
	}

	return c
}

// enrichThumbnails reads the ng-state JSON blob the Angular app embeds
// and swaps SVG placeholders for real gallery photos.
func (r *Remax) enrichThumbnails(doc *goquery.Document, cards []domain.ListingCard) {
	ngState := doc.Find(`script#ng-state[type="application/json"]`).First().Text()
	if ngState == "" {
		return
	}
	photos := remaxPhotosBySlug(ngState)
	if len(photos) == 0 {
		return
	}
	for i := range cards {
		slug := remaxSlug(cards[i].SourceURL)
		urls := photos[slug]
		if len(urls) == 0 {
			continue
		}
		if cards[i].ThumbnailURL == nil || strings.Contains(deref(cards[i].ThumbnailURL), ".svg") {
			cards[i].ThumbnailURL = &urls[0]
		}
	}
}

type remaxNgPhoto struct {
	RawValue string `json:"rawValue"`
	Value    string `json:"value"`
}

type remaxNgItem struct {
	Slug   string         `json:"slug"`
	Photos []remaxNgPhoto `json:"photos"`
}

func remaxPhotosBySlug(ngState string) map[string][]string {
	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ngState), &root); err != nil {
		return nil
	}

	out := map[string][]string{}
	for _, raw := range root {
		var wrapper struct {
			B struct {
				Data struct {
					Data []remaxNgItem `json:"data"`
				} `json:"data"`
			} `json:"b"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			continue
		}
		for _, item := range wrapper.B.Data.Data {
			if item.Slug == "" || len(item.Photos) == 0 {
				continue
			}
			var urls []string
			for _, photo := range item.Photos {
				rawPath := photo.RawValue
				if rawPath == "" {
					rawPath = photo.Value
				}
				if u := remaxCDNImageURL(rawPath); u != "" {
					urls = append(urls, u)
				}
			}
			if len(urls) > 20 {
				urls = urls[:20]
			}
			if len(urls) > 0 {
				out[item.Slug] = urls
			}
		}
	}
	return out
}

var imageExtRe = regexp.MustCompile(`\.\w+$`)

// remaxCDNImageURL turns a rawValue path (listings/UUID/UUID) into a
// 1080xAUTO CloudFront URL.
func remaxCDNImageURL(rawPath string) string {
	if rawPath == "" {
		return ""
	}
	if strings.HasPrefix(rawPath, "http") {
		return rawPath
	}
	rawPath = strings.TrimLeft(rawPath, "/")
	parts := strings.Split(rawPath, "/")
	if len(parts) == 3 && parts[0] == "listings" {
		imageID := imageExtRe.ReplaceAllString(parts[2], "")
		return fmt.Sprintf("%slistings/%s/1080xAUTO/%s.jpg", remaxCDNBase, parts[1], imageID)
	}
	if len(parts) == 4 && parts[0] == "listings" {
		imageID := imageExtRe.ReplaceAllString(parts[3], "")
		return fmt.Sprintf("%slistings/%s/1080xAUTO/%s.jpg", remaxCDNBase, parts[1], imageID)
	}
	return remaxCDNBase + rawPath
}

func (r *Remax) HasNextPage(html string) bool {
	doc := parseDoc(html)
	if doc == nil {
		return false
	}

	found := false
	doc.Find(`a[href*="page="], button[class*="next"], [class*="pagination"] a, a[rel="next"], button[aria-label]`).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if _, disabled := el.Attr("disabled"); disabled {
			return true
		}
		if label, _ := el.Attr("aria-label"); label != "" {
			lower := strings.ToLower(label)
			if strings.Contains(lower, "next") || strings.Contains(lower, "siguiente") {
				found = true
				return false
			}
		}
		text := strings.ToLower(strings.TrimSpace(el.Text()))
		if strings.Contains(text, "siguiente") || strings.Contains(text, "next") || strings.Contains(text, ">") {
			found = true
			return false
		}
		return true
	})
	return found
}

func (r *Remax) ExtractDetail(html, pageURL string) (domain.Property, error) {
	doc := parseDoc(html)
	if doc == nil {
		return domain.Property{}, fmt.Errorf("unparsable detail page")
	}

	p := domain.Property{
		Source:    domain.PortalRemax,
		SourceURL: strPtr(pageURL),
		SourceID:  strPtr(remaxSlug(pageURL)),
		Status:    "ACTIVE",
	}

	p.Title = truncate(strings.TrimSpace(doc.Find("h1").First().Text()), 500)
	if p.Title == "" {
		p.Title = truncate(strings.TrimSpace(doc.Find(".card__description").First().Text()), 500)
	}

	if t := strings.TrimSpace(doc.Find(`.card__price, [class*="price"]`).First().Text()); t != "" {
		if amount, currency, ok := ParsePrice(t); ok {
			p.Price = amount
			p.Currency = currency
		}
	}

	for _, sel := range []string{`[class*="description"]`, "#description"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			p.Description = strPtr(truncate(t, 2000))
			break
		}
	}

	feats := ParseFeatures(doc.Find(`.card__feature--item, .feature--item, [class*="feature--item"]`).Text())
	applyFeatures(&p, feats)

	if t := strings.TrimSpace(doc.Find(".card__address").First().Text()); t != "" {
		p.Address = strPtr(truncate(t, 200))
	}
	if t := strings.TrimSpace(doc.Find(".card__ubication").First().Text()); t != "" {
		p.Neighborhood = strPtr(truncate(t, 200))
	}

	ngState := doc.Find(`script#ng-state[type="application/json"]`).First().Text()
	if ngState != "" {
		if urls := remaxPhotosBySlug(ngState)[remaxSlug(pageURL)]; len(urls) > 0 {
			for i, u := range urls {
				p.Images = append(p.Images, domain.PropertyImage{URL: u, IsPrimary: i == 0, Order: i})
			}
		}
	}

	return p, nil
}
