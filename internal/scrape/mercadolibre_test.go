package scrape

import (
	"testing"

	"propwatch/internal/domain"
)

func TestMercadoLibreBuildSearchURL(t *testing.T) {
	m := NewMercadoLibre(SlugTable{})

	search := domain.SavedSearch{
		PropertyType:  sp("departamento"),
		OperationType: "venta",
		City:          sp("Capital Federal"),
		Neighborhoods: []string{"Devoto"},
		Currency:      "USD",
		MaxPrice:      fp(150000),
		MinArea:       fp(40),
		MinBedrooms:   ip(2),
	}

	u, err := m.BuildSearchURL(search, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	want := "https://inmuebles.mercadolibre.com.ar/departamentos/venta/capital-federal/villa-devoto/" +
		"_PriceRange_0USD-150000USD_CoveredArea_40-*_Bedrooms_2"
	if u != want {
		t.Errorf("got  %q\nwant %q", u, want)
	}
}

func TestMercadoLibrePaginationOffsets(t *testing.T) {
	m := NewMercadoLibre(SlugTable{})

	search := domain.SavedSearch{OperationType: "venta", City: sp("Capital Federal")}

	cases := []struct {
		page int
		want string
	}{
		{1, "https://inmuebles.mercadolibre.com.ar/departamentos/venta/capital-federal/"},
		{2, "https://inmuebles.mercadolibre.com.ar/departamentos/venta/capital-federal/_Desde_49"},
		{3, "https://inmuebles.mercadolibre.com.ar/departamentos/venta/capital-federal/_Desde_97"},
	}
	for _, c := range cases {
		u, err := m.BuildSearchURL(search, c.page)
		if err != nil {
			t.Fatalf("BuildSearchURL page %d: %v", c.page, err)
		}
		if u != c.want {
			t.Errorf("page %d = %q, want %q", c.page, u, c.want)
		}
	}
}

func TestMercadoLibreUnknownNeighborhoodFallsBackToCity(t *testing.T) {
	m := NewMercadoLibre(SlugTable{})

	u, err := m.BuildSearchURL(domain.SavedSearch{
		OperationType: "venta",
		City:          sp("Rosario"),
		Neighborhoods: []string{"Barrio Inventado"},
	}, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	if u != "https://inmuebles.mercadolibre.com.ar/departamentos/venta/santa-fe/rosario/" {
		t.Errorf("got %q", u)
	}
}

func TestMercadoLibreCleanURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{
			"https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-2-amb-palermo-_JM#position=3&type=item",
			"https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-2-amb-palermo-_JM",
		},
		{
			"https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-_JM?searchVariation=x",
			"https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-_JM",
		},
		{"https://inmuebles.mercadolibre.com.ar/departamentos/venta/", "https://inmuebles.mercadolibre.com.ar/departamentos/venta/"},
	}
	for _, c := range cases {
		if got := mercadolibreCleanURL(c.in); got != c.want {
			t.Errorf("mercadolibreCleanURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	if id := mercadolibreID("https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-_JM"); id != "MLA-1438245067" {
		t.Errorf("id = %q", id)
	}
}

const mercadolibreListHTML = `
<html><body>
<li class="ui-search-layout__item">
  <div class="ui-search-result__wrapper">
    <a href="https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-2-amb-palermo-_JM#position=1">
      <h2 class="ui-search-item__title">Depto 2 ambientes Palermo Soho</h2>
    </a>
    <div class="ui-search-price__second-line">
      <span class="andes-money-amount__currency-symbol">US$</span>
      <span class="andes-money-amount__fraction">98.500</span>
    </div>
    <span class="ui-search-item__location">Palermo, Capital Federal</span>
  </div>
</li>
<li class="ui-search-layout__item">
  <div class="ui-search-result__wrapper">
    <a href="https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-2-amb-palermo-_JM#position=2">duplicada</a>
  </div>
</li>
</body></html>`

func TestMercadoLibreExtractCards(t *testing.T) {
	m := NewMercadoLibre(SlugTable{})

	cards := m.ExtractCards(mercadolibreListHTML)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1 after clean-URL dedup", len(cards))
	}

	c := cards[0]
	if c.SourceURL != "https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-2-amb-palermo-_JM" {
		t.Errorf("source url = %q", c.SourceURL)
	}
	if deref(c.SourceID) != "MLA-1438245067" {
		t.Errorf("source id = %q", deref(c.SourceID))
	}
	if deref(c.Title) != "Depto 2 ambientes Palermo Soho" {
		t.Errorf("title = %q", deref(c.Title))
	}
	if c.Price == nil || *c.Price != 98500 {
		t.Errorf("price = %v", c.Price)
	}
	if deref(c.Currency) != "USD" {
		t.Errorf("currency = %q, want USD from US$ symbol", deref(c.Currency))
	}
	if deref(c.LocationPreview) != "Palermo, Capital Federal" {
		t.Errorf("location = %q", deref(c.LocationPreview))
	}
}

func TestMercadoLibreHasNextPage(t *testing.T) {
	m := NewMercadoLibre(SlugTable{})

	if !m.HasNextPage(`<a title="Siguiente" href="/departamentos/venta/_Desde_49">Siguiente</a>`) {
		t.Error("next link with href should mean another page")
	}
	if m.HasNextPage(`<a title="Siguiente">Siguiente</a>`) {
		t.Error("next link without href should mean last page")
	}
	if m.HasNextPage(`<div class="ui-search-results"></div>`) {
		t.Error("no pagination markers should mean last page")
	}
}

func TestMercadoLibreExtractDetail(t *testing.T) {
	m := NewMercadoLibre(SlugTable{})

	html := `
<html><body>
<h1 class="ui-pdp-title">Departamento 2 ambientes en Palermo Soho</h1>
<div class="ui-pdp-price__second-line">
  <span class="andes-money-amount__currency-symbol">US$</span>
  <span class="andes-money-amount__fraction">98.500</span>
</div>
<p class="ui-pdp-description__content">Luminoso, balcón al frente.</p>
<div class="ui-pdp-highlighted-specs-res">45 m² cubiertos · 2 ambientes · 1 baño</div>
<div class="ui-pdp-media__title">Gorriti 4300, Palermo, Capital Federal</div>
<div class="ui-pdp-gallery">
  <img src="https://http2.mlstatic.com/D_NQ_NP_2X_1.webp">
  <img src="https://http2.mlstatic.com/D_NQ_NP_2X_2.webp">
</div>
</body></html>`

	p, err := m.ExtractDetail(html, "https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-_JM#gallery")
	if err != nil {
		t.Fatalf("ExtractDetail: %v", err)
	}
	if deref(p.SourceURL) != "https://departamento.mercadolibre.com.ar/MLA-1438245067-depto-_JM" {
		t.Errorf("source url = %q", deref(p.SourceURL))
	}
	if p.Title != "Departamento 2 ambientes en Palermo Soho" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Price != 98500 || p.Currency != "USD" {
		t.Errorf("price = %v %s", p.Price, p.Currency)
	}
	if p.CoveredArea == nil || *p.CoveredArea != 45 {
		t.Errorf("covered area = %v", p.CoveredArea)
	}
	if p.Bedrooms == nil || *p.Bedrooms != 1 {
		t.Errorf("bedrooms = %v, want 1 from 2 ambientes", p.Bedrooms)
	}
	if len(p.Images) != 2 {
		t.Errorf("got %d images, want 2", len(p.Images))
	}
}
