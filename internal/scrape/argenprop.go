package scrape

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"propwatch/internal/domain"
)

const argenpropBase = "https://www.argenprop.com"

var argenpropPropertyTypes = map[string]string{
	"departamento":   "departamentos",
	"casa":           "casas",
	"ph":             "ph",
	"terreno":        "terrenos",
	"local":          "locales-comerciales",
	"oficina":        "oficinas",
	"cochera":        "cocheras",
	"galpon":         "galpones",
	"fondo_comercio": "fondos-de-comercio",
}

var argenpropOperations = map[string]string{
	"venta":             "venta",
	"alquiler":          "alquiler",
	"alquiler_temporal": "alquiler-temporario",
}

var argenpropLocations = map[string]string{
	"capital federal": "capital-federal",
	"caba":            "capital-federal",
	"buenos aires":    "capital-federal",
	"zona norte":      "zona-norte",
	"zona sur":        "zona-sur",
	"zona oeste":      "zona-oeste",
	"cordoba":         "cordoba",
	"mendoza":         "mendoza",
	"santa fe":        "santa-fe",
	"rosario":         "rosario",
	"mar del plata":   "mar-del-plata",
}

type Argenprop struct {
	propertyTypes map[string]string
	operations    map[string]string
	locations     map[string]string
	neighborhoods map[string]string
}

func NewArgenprop(ov SlugTable) *Argenprop {
	return &Argenprop{
		propertyTypes: mergeSlugs(argenpropPropertyTypes, ov.PropertyTypes),
		operations:    mergeSlugs(argenpropOperations, ov.Operations),
		locations:     mergeSlugs(argenpropLocations, ov.Locations),
		neighborhoods: ov.Neighborhoods,
	}
}

func (a *Argenprop) Portal() string          { return domain.PortalArgenprop }
func (a *Argenprop) PageDelay() time.Duration { return 2 * time.Second }
func (a *Argenprop) MaxPages() int            { return 10 }

// BuildSearchURL builds path-segment URLs:
//
//	/departamentos/venta/capital-federal
//	/ph/venta/palermo
//	/casas/alquiler/zona-norte/dolares-100000-200000?pagina-2
//
// A neighborhood replaces the city segment; Argenprop treats the pair as
// a broader search, not a narrower one.
func (a *Argenprop) BuildSearchURL(search domain.SavedSearch, page int) (string, error) {
	var segments []string

	propType := strings.ToLower(deref(search.PropertyType))
	if slug, ok := a.propertyTypes[propType]; ok {
		segments = append(segments, slug)
	} else {
		segments = append(segments, "departamentos")
	}

	op := strings.ToLower(search.OperationType)
	if slug, ok := a.operations[op]; ok {
		segments = append(segments, slug)
	} else {
		segments = append(segments, "venta")
	}

	if len(search.Neighborhoods) > 0 {
		nb := strings.ToLower(search.Neighborhoods[0])
		slug, ok := a.neighborhoods[nb]
		if !ok {
			slug = Slugify(nb)
		}
		segments = append(segments, slug)
	} else {
		location := strings.ToLower(deref(search.City))
		if location == "" {
			location = strings.ToLower(deref(search.Province))
		}
		if location != "" {
			slug, ok := a.locations[location]
			if !ok {
				slug = Slugify(location)
			}
			segments = append(segments, slug)
		}
	}

	minPrice, hasMin := derefF(search.MinPrice)
	maxPrice, hasMax := derefF(search.MaxPrice)
	if hasMin || hasMax {
		currencySlug := "pesos"
		if strings.EqualFold(search.Currency, domain.CurrencyUSD) {
			currencySlug = "dolares"
		}
		minVal := int(minPrice)
		maxVal := 999999999
		if hasMax {
			maxVal = int(maxPrice)
		}
		segments = append(segments, fmt.Sprintf("%s-%d-%d", currencySlug, minVal, maxVal))
	}

	u := argenpropBase + "/" + strings.Join(segments, "/")
	if page > 1 {
		u += fmt.Sprintf("?pagina-%d", page)
	}
	return u, nil
}

var argenpropIDRe = regexp.MustCompile(`/(\d+)(?:[/-]|$)`)

func (a *Argenprop) ExtractCards(html string) []domain.ListingCard {
	doc := parseDoc(html)
	if doc == nil {
		return nil
	}

	cardSelectors := []string{
		"div.listing__item",
		`div[class*="listing-item"]`,
		"article.property-card",
		"div.property-item",
		".card-listing",
	}

	var container *goquery.Selection
	for _, sel := range cardSelectors {
		s := doc.Find(sel)
		if s.Length() > 0 {
			container = s
			break
		}
	}

	if container == nil {
		return a.extractCardsFromLinks(doc)
	}

	var cards []domain.ListingCard
	container.Each(func(_ int, card *goquery.Selection) {
		if c, ok := a.parseCard(card); ok {
			cards = append(cards, c)
		}
	})
	return cards
}

// extractCardsFromLinks is the anchor-scan fallback when no card
// container selector matches.
func (a *Argenprop) extractCardsFromLinks(doc *goquery.Document) []domain.ListingCard {
	seen := map[string]struct{}{}
	var cards []domain.ListingCard
	doc.Find(`a[href*="/propiedad/"], a[href*="/departamento/"], a[href*="/casa/"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" || !argenpropIsDetailURL(href) {
			return
		}
		full := absURL(argenpropBase, href)
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}
		cards = append(cards, domain.ListingCard{
			SourceURL: full,
			Source:    domain.PortalArgenprop,
			SourceID:  strPtr(extractNumericID(full)),
			Title:     strPtr(truncate(strings.TrimSpace(link.Text()), 200)),
		})
	})
	return cards
}

func argenpropIsDetailURL(href string) bool {
	if href == "" {
		return false
	}
	hasID := regexp.MustCompile(`/\d+`).MatchString(href)
	isListing := strings.Contains(href, "?pagina") ||
		strings.Contains(href, "pagina-") ||
		strings.Contains(href, "/buscar") ||
		strings.Contains(href, "/search")
	return hasID && !isListing
}

func extractNumericID(u string) string {
	if m := argenpropIDRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	parts := strings.Split(strings.TrimRight(u, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" && isDigits(parts[i]) {
			return parts[i]
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (a *Argenprop) parseCard(card *goquery.Selection) (domain.ListingCard, bool) {
	c := domain.ListingCard{Source: domain.PortalArgenprop}

	for _, sel := range []string{"a.card__link", `a[href*="/propiedad/"]`, `a[href*="--"]`, "a"} {
		link := card.Find(sel).First()
		if href, ok := link.Attr("href"); ok && href != "" {
			c.SourceURL = absURL(argenpropBase, href)
			break
		}
	}
	if c.SourceURL == "" {
		return c, false
	}
	c.SourceID = strPtr(extractNumericID(c.SourceURL))

	for _, sel := range []string{".card__title", "h2", "h3", ".title", `[class*="title"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			c.Title = strPtr(truncate(t, 500))
			break
		}
	}

	for _, sel := range []string{".card__price", ".price", `[class*="price"]`, `[class*="precio"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			if amount, currency, ok := ParsePrice(t); ok {
				c.Price = &amount
				c.Currency = strPtr(currency)
			}
			break
		}
	}

	for _, sel := range []string{"img.card__image", `img[class*="image"]`, "img"} {
		if u := imageURL(card.Find(sel).First(), argenpropBase); u != "" {
			c.ThumbnailURL = &u
			break
		}
	}

	for _, sel := range []string{".card__location", ".location", `[class*="location"]`, `[class*="address"]`, `[class*="zona"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			c.LocationPreview = strPtr(truncate(t, 200))
			break
		}
	}

	return c, true
}

func (a *Argenprop) HasNextPage(html string) bool {
	doc := parseDoc(html)
	if doc == nil {
		return false
	}

	for _, sel := range []string{`a[href*="pagina-"]`, ".pagination a.next", ".pagination .siguiente", `a[rel="next"]`} {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}

	counter := doc.Find(`[class*="result-count"], [class*="total"]`).First()
	if counter.Length() > 0 {
		if more, ok := hasMoreByRange(counter.Text()); ok {
			return more
		}
	}
	return false
}

func (a *Argenprop) ExtractDetail(html, pageURL string) (domain.Property, error) {
	doc := parseDoc(html)
	if doc == nil {
		return domain.Property{}, fmt.Errorf("unparsable detail page")
	}

	p := domain.Property{
		Source:    domain.PortalArgenprop,
		SourceURL: strPtr(pageURL),
		SourceID:  strPtr(extractNumericID(pageURL)),
		Status:    "ACTIVE",
	}

	p.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	p.Title = truncate(p.Title, 500)

	for _, sel := range []string{".titlebar__price", `[class*="price"]`, `[class*="precio"]`} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			if amount, currency, ok := ParsePrice(t); ok {
				p.Price = amount
				p.Currency = currency
				break
			}
		}
	}

	for _, sel := range []string{`[class*="description"] p`, "#description", ".section-description"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			p.Description = strPtr(truncate(t, 2000))
			break
		}
	}

	feats := ParseFeatures(doc.Find(`[class*="property-features"], [class*="features"], ul.property-main-features`).Text())
	applyFeatures(&p, feats)

	a.extractAddress(doc, &p)
	a.extractLocation(doc, &p)

	var images []domain.PropertyImage
	seen := map[string]struct{}{}
	doc.Find(`img[src*="argenprop"], [class*="gallery"] img, #galeria img`).Each(func(i int, img *goquery.Selection) {
		u := imageURL(img, argenpropBase)
		if u == "" {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		images = append(images, domain.PropertyImage{URL: u, IsPrimary: len(images) == 0, Order: len(images)})
	})
	if len(images) > 20 {
		images = images[:20]
	}
	p.Images = images

	return p, nil
}

var (
	argenpropStreetNumRe  = regexp.MustCompile(`^(.+?)\s+(\d+)\s*$`)
	argenpropStreetWordRe = regexp.MustCompile(`(?i)^(av\.?|avenida|calle|bv\.?|boulev|pasaje|pje\.?)\s`)
	argenpropStreetTextRe = regexp.MustCompile(`^[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(\s[A-Za-záéíóúñ]+)*\s\d{2,5}$`)
	argenpropTitlebarRe   = regexp.MustCompile(`(?i)(?:venta|alquiler(?:\s+temporario)?)\s+en\s+([^,]+),\s*(.+)`)
)

// extractAddress reads the titlebar address line ("Av. Santa Fe 3200")
// and splits it into street and number. When no address selector
// matches it falls back to scanning short text nodes for a
// street-shaped line.
func (a *Argenprop) extractAddress(doc *goquery.Document, p *domain.Property) {
	var addr string
	for _, sel := range []string{".titlebar__address", `[class*="address"]`, ".street-address", "address", `[class*="direccion"]`} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			addr = t
			break
		}
	}

	if addr == "" {
		doc.Find("p, span, div, h3").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			t := strings.TrimSpace(el.Text())
			if len(t) < 5 || len(t) > 120 {
				return true
			}
			if argenpropStreetWordRe.MatchString(t) || argenpropStreetTextRe.MatchString(t) {
				addr = t
				return false
			}
			return true
		})
	}
	if addr == "" {
		return
	}

	p.Address = strPtr(truncate(addr, 200))
	if m := argenpropStreetNumRe.FindStringSubmatch(addr); m != nil {
		p.Street = strPtr(m[1])
		p.StreetNumber = strPtr(m[2])
	} else {
		p.Street = strPtr(addr)
	}
}

// extractLocation mines the "Venta en Palermo, Capital Federal" titlebar
// headline for neighborhood and city.
func (a *Argenprop) extractLocation(doc *goquery.Document, p *domain.Property) {
	for _, sel := range []string{"h2.titlebar__title", `h2[class*="titlebar"]`, ".titlebar h2", ".titlebar__title"} {
		t := strings.TrimSpace(doc.Find(sel).First().Text())
		if t == "" {
			continue
		}
		if m := argenpropTitlebarRe.FindStringSubmatch(t); m != nil {
			p.Neighborhood = strPtr(strings.TrimSpace(m[1]))
			p.City = strings.TrimSpace(m[2])
			break
		}
	}
	if strings.Contains(strings.ToLower(p.City), "capital federal") {
		p.Province = "Capital Federal"
	}
}

func applyFeatures(p *domain.Property, f Features) {
	if f.TotalArea > 0 {
		p.TotalArea = &f.TotalArea
	}
	if f.CoveredArea > 0 {
		p.CoveredArea = &f.CoveredArea
	}
	if f.Bedrooms > 0 {
		p.Bedrooms = &f.Bedrooms
	}
	if f.Bathrooms > 0 {
		p.Bathrooms = &f.Bathrooms
	}
	if f.ParkingSpaces > 0 {
		p.ParkingSpaces = &f.ParkingSpaces
	}
}
