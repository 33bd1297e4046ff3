package scrape

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"propwatch/internal/domain"
)

const zonapropBase = "https://www.zonaprop.com.ar"

var zonapropPropertyTypes = map[string]string{
	"departamento":   "departamentos",
	"casa":           "casas",
	"ph":             "ph",
	"terreno":        "terrenos",
	"local":          "locales-comerciales",
	"oficina":        "oficinas",
	"cochera":        "cocheras",
	"galpon":         "galpones",
	"fondo_comercio": "fondos-de-comercio",
	"campo":          "campos",
	"quinta":         "quintas",
}

var zonapropOperations = map[string]string{
	"venta":             "venta",
	"alquiler":          "alquiler",
	"alquiler_temporal": "alquiler-temporario",
}

var zonapropLocations = map[string]string{
	"capital federal": "capital-federal",
	"caba":            "capital-federal",
	"buenos aires":    "capital-federal",
	"zona norte":      "zona-norte-buenos-aires",
	"zona sur":        "zona-sur-buenos-aires",
	"zona oeste":      "zona-oeste-buenos-aires",
	"gba norte":       "zona-norte-buenos-aires",
	"gba sur":         "zona-sur-buenos-aires",
	"gba oeste":       "zona-oeste-buenos-aires",
	"cordoba":         "cordoba",
	"mendoza":         "mendoza",
	"santa fe":        "santa-fe",
	"rosario":         "rosario",
	"mar del plata":   "mar-del-plata",
	"tucuman":         "tucuman",
	"salta":           "salta",
}

type Zonaprop struct {
	propertyTypes map[string]string
	operations    map[string]string
	locations     map[string]string
	neighborhoods map[string]string
}

func NewZonaprop(ov SlugTable) *Zonaprop {
	return &Zonaprop{
		propertyTypes: mergeSlugs(zonapropPropertyTypes, ov.PropertyTypes),
		operations:    mergeSlugs(zonapropOperations, ov.Operations),
		locations:     mergeSlugs(zonapropLocations, ov.Locations),
		neighborhoods: ov.Neighborhoods,
	}
}

func (z *Zonaprop) Portal() string           { return domain.PortalZonaprop }
func (z *Zonaprop) PageDelay() time.Duration { return 3 * time.Second }
func (z *Zonaprop) MaxPages() int            { return 10 }

// BuildSearchURL joins every segment with hyphens into one .html path:
//
//	/departamentos-venta-capital-federal.html
//	/departamentos-venta-palermo-100000-200000-dolar.html?pagina=2
//
// Filters follow the location: price (min-max-moneda), covered area
// (min-max-m2-cubiertos), then ambientes.
func (z *Zonaprop) BuildSearchURL(search domain.SavedSearch, page int) (string, error) {
	var segments []string

	propType := strings.ToLower(deref(search.PropertyType))
	if slug, ok := z.propertyTypes[propType]; ok {
		segments = append(segments, slug)
	} else {
		segments = append(segments, "departamentos")
	}

	op := strings.ToLower(search.OperationType)
	if slug, ok := z.operations[op]; ok {
		segments = append(segments, slug)
	} else {
		segments = append(segments, "venta")
	}

	if len(search.Neighborhoods) == 1 {
		nb := strings.ToLower(search.Neighborhoods[0])
		slug, ok := z.neighborhoods[nb]
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
			slug, ok := z.locations[location]
			if !ok {
				slug = Slugify(location)
			}
			segments = append(segments, slug)
		}
	}

	minPrice, hasMinP := derefF(search.MinPrice)
	maxPrice, hasMaxP := derefF(search.MaxPrice)
	if hasMinP || hasMaxP {
		currencySlug := "peso"
		if strings.EqualFold(search.Currency, domain.CurrencyUSD) {
			currencySlug = "dolar"
		}
		maxVal := 99999999
		if hasMaxP {
			maxVal = int(maxPrice)
		}
		segments = append(segments, fmt.Sprintf("%d-%d-%s", int(minPrice), maxVal, currencySlug))
	}

	minArea, hasMinA := derefF(search.MinArea)
	maxArea, hasMaxA := derefF(search.MaxArea)
	if hasMinA || hasMaxA {
		maxVal := 9999
		if hasMaxA {
			maxVal = int(maxArea)
		}
		segments = append(segments, fmt.Sprintf("%d-%d-m2-cubiertos", int(minArea), maxVal))
	}

	minBed, hasMinB := derefI(search.MinBedrooms)
	maxBed, hasMaxB := derefI(search.MaxBedrooms)
	switch {
	case hasMinB && hasMaxB && minBed == maxBed:
		segments = append(segments, fmt.Sprintf("%d-ambientes", minBed))
	case hasMinB && hasMaxB:
		segments = append(segments, fmt.Sprintf("%d-a-%d-ambientes", minBed, maxBed))
	case hasMinB:
		segments = append(segments, fmt.Sprintf("%d-ambientes-o-mas", minBed))
	}

	u := zonapropBase + "/" + strings.Join(segments, "-") + ".html"
	if page > 1 {
		u += fmt.Sprintf("?pagina=%d", page)
	}
	return u, nil
}

var (
	zonapropDetailIDRe  = regexp.MustCompile(`-(\d{7,})\.html`)
	zonapropAnyLongIDRe = regexp.MustCompile(`(\d{7,})`)
	zonapropListingRe   = regexp.MustCompile(`^/?(departamentos|casas|ph|terrenos|oficinas|locales|cocheras)-`)
)

func zonapropIsDetailURL(href string) bool {
	return strings.Contains(href, ".html") &&
		zonapropDetailIDRe.MatchString(href) &&
		!zonapropListingRe.MatchString(href)
}

func zonapropID(u string) string {
	if m := zonapropDetailIDRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	if m := zonapropAnyLongIDRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

func (z *Zonaprop) ExtractCards(html string) []domain.ListingCard {
	doc := parseDoc(html)
	if doc == nil {
		return nil
	}

	cardSelectors := []string{
		`div[data-qa="posting PROPERTY"]`,
		"div.postingCard",
		`div[class*="PostingCard"]`,
		"article[data-posting-type]",
		`div[class*="posting-card"]`,
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
		return z.extractCardsFromLinks(doc)
	}

	var cards []domain.ListingCard
	container.Each(func(_ int, card *goquery.Selection) {
		if c, ok := z.parseCard(card); ok {
			cards = append(cards, c)
		}
	})
	return cards
}

func (z *Zonaprop) extractCardsFromLinks(doc *goquery.Document) []domain.ListingCard {
	seen := map[string]struct{}{}
	var cards []domain.ListingCard
	doc.Find(`a[href*=".html"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" || !zonapropIsDetailURL(href) {
			return
		}
		full := stripTracking(absURL(zonapropBase, href))
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}
		cards = append(cards, domain.ListingCard{
			SourceURL: full,
			Source:    domain.PortalZonaprop,
			SourceID:  strPtr(zonapropID(full)),
			Title:     strPtr(truncate(strings.TrimSpace(link.Text()), 200)),
		})
	})
	return cards
}

func (z *Zonaprop) parseCard(card *goquery.Selection) (domain.ListingCard, bool) {
	c := domain.ListingCard{Source: domain.PortalZonaprop}

	card.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if href != "" && zonapropDetailIDRe.MatchString(href) {
			c.SourceURL = stripTracking(absURL(zonapropBase, href))
			return false
		}
		return true
	})
	if c.SourceURL == "" {
		return c, false
	}
	c.SourceID = strPtr(zonapropID(c.SourceURL))

	for _, sel := range []string{`[data-qa="POSTING_CARD_TITLE"]`, `[data-qa="POSTING_CARD_LOCATION"]`, "h2", "h3", `[class*="title"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			c.Title = strPtr(truncate(t, 500))
			break
		}
	}

	for _, sel := range []string{`[data-qa="POSTING_CARD_PRICE"]`, `[class*="Price"]`, `[class*="price"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			if amount, currency, ok := ParsePrice(t); ok {
				c.Price = &amount
				c.Currency = strPtr(currency)
			}
			break
		}
	}

	for _, sel := range []string{"img[data-qa]", `img[class*="image"]`, "img"} {
		if u := imageURL(card.Find(sel).First(), zonapropBase); u != "" {
			c.ThumbnailURL = &u
			break
		}
	}

	for _, sel := range []string{`[data-qa="POSTING_CARD_LOCATION"]`, `[class*="Location"]`, `[class*="location"]`, `[class*="address"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			c.LocationPreview = strPtr(truncate(t, 200))
			break
		}
	}

	return c, true
}

func (z *Zonaprop) HasNextPage(html string) bool {
	doc := parseDoc(html)
	if doc == nil {
		return false
	}

	for _, sel := range []string{`a[data-qa="PAGING_NEXT"]`, `a[href*="pagina="]`, ".pagination a.next", ".pagination__next", `a[rel="next"]`, "li.next a"} {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}

	counter := doc.Find(`[data-qa="SEARCH_RESULTS_COUNT"], .results-count`).First()
	if counter.Length() > 0 {
		if more, ok := hasMoreByRange(counter.Text()); ok {
			return more
		}
	}
	return false
}

// The embedded pictures payload carries the full gallery while the DOM
// only shows the first few images.
var zonapropImageRe = regexp.MustCompile(`"url1200x1200"\s*:\s*"(https://imgar\.zonapropcdn\.com/avisos/[^"]+)"`)

func (z *Zonaprop) ExtractDetail(html, pageURL string) (domain.Property, error) {
	doc := parseDoc(html)
	if doc == nil {
		return domain.Property{}, fmt.Errorf("unparsable detail page")
	}

	p := domain.Property{
		Source:    domain.PortalZonaprop,
		SourceURL: strPtr(stripTracking(pageURL)),
		SourceID:  strPtr(zonapropID(pageURL)),
		Status:    "ACTIVE",
	}

	p.Title = truncate(strings.TrimSpace(doc.Find("h1").First().Text()), 500)

	for _, sel := range []string{`[data-qa="POSTING_CARD_PRICE"]`, `[class*="price-value"]`, `[class*="Price"]`, `[class*="price"]`} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			if amount, currency, ok := ParsePrice(t); ok {
				p.Price = amount
				p.Currency = currency
				break
			}
		}
	}

	for _, sel := range []string{`[class*="description"] p`, `[class*="Description"] p`, "#description", ".posting-description"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			p.Description = strPtr(truncate(t, 2000))
			break
		}
	}

	// "Departamento · 96m² · 4 ambientes · 1 cochera" headline plus the
	// icon feature list.
	feats := ParseFeatures(doc.Find("h2.title-type-sup-property").Text() + " " + doc.Find("li.icon-feature").Text())
	applyFeatures(&p, feats)

	// Address line: "Street 123, Neighborhood, City".
	doc.Find("h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.TrimSpace(h.Text())
		if !strings.Contains(text, ",") {
			return true
		}
		parts := strings.Split(text, ",")
		first := strings.TrimSpace(parts[0])
		if strings.IndexFunc(first, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0 {
			p.Address = strPtr(first)
		}
		if len(parts) > 2 {
			p.Neighborhood = strPtr(strings.TrimSpace(parts[len(parts)-2]))
		} else if len(parts) == 2 {
			p.Neighborhood = strPtr(strings.TrimSpace(parts[1]))
		}
		return false
	})

	var images []domain.PropertyImage
	seen := map[string]struct{}{}
	for _, m := range zonapropImageRe.FindAllStringSubmatch(html, -1) {
		u := m[1]
		if strings.Contains(u, "/empresas/") {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		images = append(images, domain.PropertyImage{URL: u, IsPrimary: len(images) == 0, Order: len(images)})
		if len(images) == 20 {
			break
		}
	}
	p.Images = images

	return p, nil
}
