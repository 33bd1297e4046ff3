package scrape

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"propwatch/internal/domain"
)

const (
	mercadolibreBase     = "https://inmuebles.mercadolibre.com.ar"
	mercadolibrePageSize = 48
)

var mercadolibrePropertyTypes = map[string]string{
	"departamento": "departamentos",
	"casa":         "casas",
	"ph":           "ph",
	"terreno":      "terrenos-lotes",
	"local":        "locales-comerciales",
	"oficina":      "oficinas",
	"cochera":      "cocheras",
	"galpon":       "galpones",
	"campo":        "campos",
	"quinta":       "quintas",
}

var mercadolibreOperations = map[string]string{
	"venta":             "venta",
	"alquiler":          "alquiler",
	"alquiler_temporal": "alquiler-temporario",
}

var mercadolibreLocations = map[string]string{
	"capital federal":            "capital-federal",
	"caba":                       "capital-federal",
	"buenos aires":               "capital-federal",
	"gba norte":                  "bs-as-gba-norte",
	"gba sur":                    "bs-as-gba-sur",
	"gba oeste":                  "bs-as-gba-oeste",
	"zona norte":                 "bs-as-gba-norte",
	"zona sur":                   "bs-as-gba-sur",
	"zona oeste":                 "bs-as-gba-oeste",
	"cordoba":                    "cordoba",
	"mendoza":                    "mendoza",
	"santa fe":                   "santa-fe",
	"rosario":                    "santa-fe/rosario",
	"mar del plata":              "bs-as-costa-atlantica/mar-del-plata",
	"costa atlantica":            "bs-as-costa-atlantica",
	"provincia de buenos aires":  "bs-as-costa-atlantica",
	"tucuman":                    "tucuman",
	"salta":                      "salta",
}

// MercadoLibre only recognizes neighborhoods it has slugs for; unknown
// ones fall back to the plain location search.
var mercadolibreNeighborhoods = map[string]string{
	"palermo":          "palermo",
	"recoleta":         "recoleta",
	"belgrano":         "belgrano",
	"caballito":        "caballito",
	"almagro":          "almagro",
	"villa crespo":     "villa-crespo",
	"villa urquiza":    "villa-urquiza",
	"villa del parque": "villa-del-parque",
	"villa devoto":     "villa-devoto",
	"villa luro":       "villa-luro",
	"villa pueyrredon": "villa-pueyrredon",
	"nunez":            "nunez",
	"colegiales":       "colegiales",
	"san telmo":        "san-telmo",
	"puerto madero":    "puerto-madero",
	"barrio norte":     "barrio-norte",
	"flores":           "flores",
	"floresta":         "floresta",
	"devoto":           "villa-devoto",
	"saavedra":         "saavedra",
	"chacarita":        "chacarita",
	"boedo":            "boedo",
	"la boca":          "la-boca",
	"retiro":           "retiro",
	"microcentro":      "microcentro",
	"liniers":          "liniers",
	"mataderos":        "mataderos",
	"monte castro":     "monte-castro",
	"parque chacabuco": "parque-chacabuco",
	"parque patricios": "parque-patricios",
	"paternal":         "paternal",
	"pompeya":          "nueva-pompeya",
	"constitucion":     "constitucion",
	"once":             "balvanera",
	"congreso":         "balvanera",
	"coghlan":          "coghlan",
	"agronomia":        "agronomia",
	"villa ortuzar":    "villa-ortuzar",
	"villa santa rita": "villa-santa-rita",
	"villa real":       "villa-real",
	"versalles":        "versalles",
	"velez sarsfield":  "velez-sarsfield",
	"villa lugano":     "villa-lugano",
	"villa soldati":    "villa-soldati",
	"villa riachuelo":  "villa-riachuelo",
	"parque chas":      "parque-chas",
	"parque avellaneda": "parque-avellaneda",
	"san nicolas":      "san-nicolas",
	"monserrat":        "monserrat",
	"san cristobal":    "san-cristobal",
	"barracas":         "barracas",
}

type MercadoLibre struct {
	propertyTypes map[string]string
	operations    map[string]string
	locations     map[string]string
	neighborhoods map[string]string
}

func NewMercadoLibre(ov SlugTable) *MercadoLibre {
	return &MercadoLibre{
		propertyTypes: mergeSlugs(mercadolibrePropertyTypes, ov.PropertyTypes),
		operations:    mergeSlugs(mercadolibreOperations, ov.Operations),
		locations:     mergeSlugs(mercadolibreLocations, ov.Locations),
		neighborhoods: mergeSlugs(mercadolibreNeighborhoods, ov.Neighborhoods),
	}
}

func (m *MercadoLibre) Portal() string           { return domain.PortalMercadoLibre }
func (m *MercadoLibre) PageDelay() time.Duration { return 3 * time.Second }
func (m *MercadoLibre) MaxPages() int            { return 10 }

// BuildSearchURL builds path + inline filter tokens:
//
//	/departamentos/venta/capital-federal/palermo/_PriceRange_0USD-200000USD_Desde_49
//
// Pagination is an item offset, 48 per page. A CABA neighborhood forces
// the capital-federal segment regardless of the configured city.
func (m *MercadoLibre) BuildSearchURL(search domain.SavedSearch, page int) (string, error) {
	var segments []string

	propType := strings.ToLower(deref(search.PropertyType))
	if slug, ok := m.propertyTypes[propType]; ok {
		segments = append(segments, slug)
	} else {
		segments = append(segments, "departamentos")
	}

	op := strings.ToLower(search.OperationType)
	if slug, ok := m.operations[op]; ok {
		segments = append(segments, slug)
	} else {
		segments = append(segments, "venta")
	}

	neighborhoodSlug := ""
	if len(search.Neighborhoods) > 0 {
		nb := strings.ToLower(search.Neighborhoods[0])
		if slug, ok := m.neighborhoods[nb]; ok {
			neighborhoodSlug = slug
		}
	}

	if neighborhoodSlug != "" {
		segments = append(segments, "capital-federal")
		segments = append(segments, neighborhoodSlug)
	} else {
		location := strings.ToLower(deref(search.City))
		if location == "" {
			location = strings.ToLower(deref(search.Province))
		}
		if slug, ok := m.locations[location]; ok {
			segments = append(segments, slug)
		}
	}

	u := mercadolibreBase + "/" + strings.Join(segments, "/") + "/"

	var filters []string

	minPrice, hasMinP := derefF(search.MinPrice)
	maxPrice, hasMaxP := derefF(search.MaxPrice)
	if hasMinP || hasMaxP {
		currency := strings.ToUpper(search.Currency)
		if currency == "" {
			currency = domain.CurrencyUSD
		}
		maxVal := 999999999
		if hasMaxP {
			maxVal = int(maxPrice)
		}
		filters = append(filters, fmt.Sprintf("_PriceRange_%d%s-%d%s", int(minPrice), currency, maxVal, currency))
	}

	minArea, hasMinA := derefF(search.MinArea)
	maxArea, hasMaxA := derefF(search.MaxArea)
	if hasMinA || hasMaxA {
		maxVal := "*"
		if hasMaxA {
			maxVal = fmt.Sprintf("%d", int(maxArea))
		}
		filters = append(filters, fmt.Sprintf("_CoveredArea_%d-%s", int(minArea), maxVal))
	}

	if minBed, ok := derefI(search.MinBedrooms); ok {
		filters = append(filters, fmt.Sprintf("_Bedrooms_%d", minBed))
	}

	u += strings.Join(filters, "")

	if page > 1 {
		offset := (page-1)*mercadolibrePageSize + 1
		u += fmt.Sprintf("_Desde_%d", offset)
	}
	return u, nil
}

var (
	mercadolibreMLARe      = regexp.MustCompile(`MLA-(\d+)`)
	mercadolibreCleanURLRe = regexp.MustCompile(`(https?://[^/]+/MLA-\d+[^?#\s]*)`)
)

func mercadolibreCleanURL(raw string) string {
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	if m := mercadolibreCleanURLRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

func mercadolibreID(u string) string {
	if m := mercadolibreMLARe.FindStringSubmatch(u); m != nil {
		return "MLA-" + m[1]
	}
	return ""
}

func (m *MercadoLibre) ExtractCards(html string) []domain.ListingCard {
	doc := parseDoc(html)
	if doc == nil {
		return nil
	}

	seen := map[string]struct{}{}
	var cards []domain.ListingCard

	doc.Find(`a[href*="mercadolibre.com.ar/MLA-"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" || !strings.Contains(href, "MLA-") {
			return
		}
		clean := mercadolibreCleanURL(href)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		cards = append(cards, m.parseCard(link, clean))
	})
	return cards
}

func (m *MercadoLibre) parseCard(link *goquery.Selection, cleanURL string) domain.ListingCard {
	c := domain.ListingCard{
		Source:    domain.PortalMercadoLibre,
		SourceURL: cleanURL,
		SourceID:  strPtr(mercadolibreID(cleanURL)),
	}

	// The anchor sits deep inside the result card; walk up to the
	// ui-search-result container for the price/location siblings.
	card := link
	for i := 0; i < 7; i++ {
		parent := card.Parent()
		if parent.Length() == 0 {
			break
		}
		card = parent
		if cls, _ := card.Attr("class"); strings.Contains(cls, "ui-search-result") || strings.Contains(cls, "layout__item") {
			break
		}
	}

	for _, sel := range []string{"h2", `[class*="ui-search-item__title"]`, `[class*="title"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			c.Title = strPtr(truncate(t, 500))
			break
		}
	}
	if c.Title == nil {
		if t := strings.TrimSpace(link.Text()); len(t) > 5 {
			c.Title = strPtr(truncate(t, 500))
		}
	}

	for _, sel := range []string{`[class*="ui-search-price__second-line"]`, `[class*="price-tag-fraction"]`, `[class*="price"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			if amount, currency, ok := ParsePrice(t); ok && amount > 0 {
				c.Price = &amount
				c.Currency = strPtr(currency)
				break
			}
		}
	}

	if c.Price != nil && deref(c.Currency) == "" {
		if sym := strings.TrimSpace(card.Find(`[class*="currency-symbol"]`).First().Text()); sym != "" {
			if strings.Contains(sym, "U$S") || strings.Contains(sym, "US$") || strings.Contains(sym, "USD") {
				c.Currency = strPtr(domain.CurrencyUSD)
			} else {
				c.Currency = strPtr(domain.CurrencyARS)
			}
		}
	}

	for _, sel := range []string{`img[class*="ui-search-result-image__element"]`, `img[data-src*="http"]`, `img[src*="http"]`} {
		if u := imageURL(card.Find(sel).First(), mercadolibreBase); u != "" && !strings.Contains(strings.ToLower(u), "placeholder") {
			c.ThumbnailURL = &u
			break
		}
	}

	for _, sel := range []string{`[class*="ui-search-item__location"]`, `[class*="location"]`, `[class*="address"]`} {
		if t := strings.TrimSpace(card.Find(sel).First().Text()); t != "" {
			c.LocationPreview = strPtr(truncate(t, 200))
			break
		}
	}

	return c
}

func (m *MercadoLibre) HasNextPage(html string) bool {
	doc := parseDoc(html)
	if doc == nil {
		return false
	}
	for _, sel := range []string{
		`a[title="Siguiente"]`,
		`li.andes-pagination__button--next a`,
		`[class*="pagination"] a[rel="next"]`,
	} {
		found := false
		doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if href, ok := el.Attr("href"); ok && href != "" {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

func (m *MercadoLibre) ExtractDetail(html, pageURL string) (domain.Property, error) {
	doc := parseDoc(html)
	if doc == nil {
		return domain.Property{}, fmt.Errorf("unparsable detail page")
	}

	p := domain.Property{
		Source:    domain.PortalMercadoLibre,
		SourceURL: strPtr(mercadolibreCleanURL(pageURL)),
		SourceID:  strPtr(mercadolibreID(pageURL)),
		Status:    "ACTIVE",
	}

	p.Title = truncate(strings.TrimSpace(doc.Find("h1.ui-pdp-title, h1").First().Text()), 500)

	priceText := strings.TrimSpace(doc.Find(".ui-pdp-price__second-line .andes-money-amount__fraction").First().Text())
	currencySym := strings.TrimSpace(doc.Find(".ui-pdp-price__second-line .andes-money-amount__currency-symbol").First().Text())
	if priceText != "" {
		if amount, currency, ok := ParsePrice(currencySym + " " + priceText); ok {
			p.Price = amount
			p.Currency = currency
		}
	}
	if p.Price == 0 {
		if t := strings.TrimSpace(doc.Find(`[class*="price"]`).First().Text()); t != "" {
			if amount, currency, ok := ParsePrice(t); ok {
				p.Price = amount
				p.Currency = currency
			}
		}
	}

	if t := strings.TrimSpace(doc.Find(".ui-pdp-description__content, [class*='description']").First().Text()); t != "" {
		p.Description = strPtr(truncate(t, 2000))
	}

	feats := ParseFeatures(doc.Find(".ui-pdp-highlighted-specs-res, .ui-vpp-highlighted-specs, [class*='specs']").Text())
	applyFeatures(&p, feats)

	if t := strings.TrimSpace(doc.Find(".ui-pdp-media__title, [class*='location']").First().Text()); t != "" {
		p.Address = strPtr(truncate(t, 200))
	}

	var images []domain.PropertyImage
	seen := map[string]struct{}{}
	doc.Find("figure.ui-pdp-gallery__wrapper img, .ui-pdp-gallery img").Each(func(_ int, img *goquery.Selection) {
		u := imageURL(img, mercadolibreBase)
		if u == "" || strings.Contains(strings.ToLower(u), "placeholder") {
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
