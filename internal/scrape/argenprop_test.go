package scrape

import (
	"strings"
	"testing"

	"propwatch/internal/domain"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func sp(s string) *string   { return &s }

func TestArgenpropBuildSearchURL(t *testing.T) {
	a := NewArgenprop(SlugTable{})

	search := domain.SavedSearch{
		PropertyType:  sp("departamento"),
		OperationType: "venta",
		City:          sp("Capital Federal"),
		Currency:      "USD",
		MinPrice:      fp(100000),
		MaxPrice:      fp(200000),
	}

	u, err := a.BuildSearchURL(search, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	want := "https://www.argenprop.com/departamentos/venta/capital-federal/dolares-100000-200000"
	if u != want {
		t.Errorf("page 1 = %q, want %q", u, want)
	}

	u2, _ := a.BuildSearchURL(search, 2)
	if u2 != want+"?pagina-2" {
		t.Errorf("page 2 = %q, want %q", u2, want+"?pagina-2")
	}
}

func TestArgenpropNeighborhoodReplacesCity(t *testing.T) {
	a := NewArgenprop(SlugTable{})

	search := domain.SavedSearch{
		PropertyType:  sp("ph"),
		OperationType: "venta",
		City:          sp("Capital Federal"),
		Neighborhoods: []string{"Palermo"},
	}

	u, err := a.BuildSearchURL(search, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	if u != "https://www.argenprop.com/ph/venta/palermo" {
		t.Errorf("got %q", u)
	}
	if strings.Contains(u, "capital-federal") {
		t.Errorf("city segment should be dropped when a neighborhood is set: %q", u)
	}
}

func TestArgenpropMinPriceOnlyUsesDefaultMax(t *testing.T) {
	a := NewArgenprop(SlugTable{})

	search := domain.SavedSearch{
		OperationType: "alquiler_temporal",
		Currency:      "ARS",
		MinPrice:      fp(50000),
	}
	u, err := a.BuildSearchURL(search, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	want := "https://www.argenprop.com/departamentos/alquiler-temporario/pesos-50000-999999999"
	if u != want {
		t.Errorf("got %q, want %q", u, want)
	}
}

const argenpropListHTML = `
<html><body>
<div class="listing__item">
  <a class="card__link" href="/propiedades/9870001-departamento-en-venta-palermo">
    <h2 class="card__title">Departamento 3 ambientes en Palermo</h2>
    <p class="card__price">USD 189.000</p>
    <img class="card__image" data-src="//static.argenprop.com/fotos/9870001/1.jpg">
    <p class="card__location">Palermo, Capital Federal</p>
  </a>
</div>
<div class="listing__item">
  <a class="card__link" href="/propiedades/9870002-ph-en-venta-villa-crespo">
    <h2 class="card__title">PH reciclado en Villa Crespo</h2>
    <p class="card__price">Consultar precio</p>
  </a>
</div>
</body></html>`

func TestArgenpropExtractCards(t *testing.T) {
	a := NewArgenprop(SlugTable{})

	cards := a.ExtractCards(argenpropListHTML)
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}

	first := cards[0]
	if first.SourceURL != "https://www.argenprop.com/propiedades/9870001-departamento-en-venta-palermo" {
		t.Errorf("source url = %q", first.SourceURL)
	}
	if deref(first.SourceID) != "9870001" {
		t.Errorf("source id = %q, want 9870001", deref(first.SourceID))
	}
	if deref(first.Title) != "Departamento 3 ambientes en Palermo" {
		t.Errorf("title = %q", deref(first.Title))
	}
	if first.Price == nil || *first.Price != 189000 || deref(first.Currency) != "USD" {
		t.Errorf("price = %v %q", first.Price, deref(first.Currency))
	}
	if deref(first.ThumbnailURL) != "https://static.argenprop.com/fotos/9870001/1.jpg" {
		t.Errorf("thumbnail = %q", deref(first.ThumbnailURL))
	}
	if deref(first.LocationPreview) != "Palermo, Capital Federal" {
		t.Errorf("location = %q", deref(first.LocationPreview))
	}

	if cards[1].Price != nil {
		t.Errorf("card without a numeric price should carry nil, got %v", *cards[1].Price)
	}
}

func TestArgenpropHasNextPage(t *testing.T) {
	a := NewArgenprop(SlugTable{})

	if !a.HasNextPage(`<div class="pagination"><a href="/departamentos/venta?pagina-2">2</a></div>`) {
		t.Error("pagination link should mean another page")
	}
	if a.HasNextPage(`<div class="listing__item"></div>`) {
		t.Error("no pagination markers should mean last page")
	}
	if !a.HasNextPage(`<span class="result-count">Mostrando 1-20 de 150 resultados</span>`) {
		t.Error("result range 1-20 de 150 should mean another page")
	}
	if a.HasNextPage(`<span class="result-count">Mostrando 141-150 de 150 resultados</span>`) {
		t.Error("result range 141-150 de 150 should mean last page")
	}
}

func TestArgenpropExtractDetail(t *testing.T) {
	a := NewArgenprop(SlugTable{})

	html := `
<html><body>
<h1>Departamento en Venta en Palermo</h1>
<h2 class="titlebar__title">Venta en Palermo, Capital Federal</h2>
<p class="titlebar__address">Av. Santa Fe 3200</p>
<div class="titlebar__price">USD 239.000</div>
<div class="section-description"><p>Luminoso departamento con balcón.</p></div>
<ul class="property-main-features">
  <li>96 m² cubiertos</li><li>110 m² totales</li><li>4 ambientes</li><li>2 baños</li><li>1 cochera</li>
</ul>
<div class="gallery">
  <img src="https://static.argenprop.com/fotos/9870001/1.jpg">
  <img src="https://static.argenprop.com/fotos/9870001/2.jpg">
  <img src="https://static.argenprop.com/fotos/9870001/1.jpg">
</div>
</body></html>`

	p, err := a.ExtractDetail(html, "https://www.argenprop.com/propiedades/9870001-departamento-en-venta-palermo")
	if err != nil {
		t.Fatalf("ExtractDetail: %v", err)
	}
	if p.Title != "Departamento en Venta en Palermo" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Price != 239000 || p.Currency != "USD" {
		t.Errorf("price = %v %s", p.Price, p.Currency)
	}
	if p.CoveredArea == nil || *p.CoveredArea != 96 {
		t.Errorf("covered area = %v", p.CoveredArea)
	}
	if p.TotalArea == nil || *p.TotalArea != 110 {
		t.Errorf("total area = %v", p.TotalArea)
	}
	if p.Bedrooms == nil || *p.Bedrooms != 3 {
		t.Errorf("bedrooms = %v, want 3 from 4 ambientes", p.Bedrooms)
	}
	if deref(p.Address) != "Av. Santa Fe 3200" {
		t.Errorf("address = %q", deref(p.Address))
	}
	if deref(p.Street) != "Av. Santa Fe" || deref(p.StreetNumber) != "3200" {
		t.Errorf("street = %q %q, want Av. Santa Fe / 3200", deref(p.Street), deref(p.StreetNumber))
	}
	if deref(p.Neighborhood) != "Palermo" {
		t.Errorf("neighborhood = %q", deref(p.Neighborhood))
	}
	if p.City != "Capital Federal" || p.Province != "Capital Federal" {
		t.Errorf("city/province = %q/%q", p.City, p.Province)
	}
	if len(p.Images) != 2 {
		t.Fatalf("got %d images, want 2 after dedup", len(p.Images))
	}
	if !p.Images[0].IsPrimary || p.Images[1].IsPrimary {
		t.Error("only the first image should be primary")
	}
}

func TestArgenpropExtractDetailAddressWithoutNumber(t *testing.T) {
	a := NewArgenprop(SlugTable{})

	html := `
<html><body>
<h1>Casa en Venta</h1>
<p class="titlebar__address">Colectora Panamericana s/n</p>
</body></html>`

	p, err := a.ExtractDetail(html, "https://www.argenprop.com/propiedades/9870003-casa")
	if err != nil {
		t.Fatalf("ExtractDetail: %v", err)
	}
	if deref(p.Address) != "Colectora Panamericana s/n" {
		t.Errorf("address = %q", deref(p.Address))
	}
	if deref(p.Street) != "Colectora Panamericana s/n" {
		t.Errorf("street without a number should carry the whole line, got %q", deref(p.Street))
	}
	if p.StreetNumber != nil {
		t.Errorf("street number = %q, want nil", *p.StreetNumber)
	}
}

func TestArgenpropExtractDetailAddressFallbackScan(t *testing.T) {
	a := NewArgenprop(SlugTable{})

	html := `
<html><body>
<h1>PH en Venta</h1>
<div class="section-description"><p>Excelente PH reciclado a nuevo.</p></div>
<span>Gorriti 4328</span>
</body></html>`

	p, err := a.ExtractDetail(html, "https://www.argenprop.com/propiedades/9870004-ph")
	if err != nil {
		t.Fatalf("ExtractDetail: %v", err)
	}
	if deref(p.Address) != "Gorriti 4328" {
		t.Errorf("address = %q, want the street-shaped text node", deref(p.Address))
	}
	if deref(p.Street) != "Gorriti" || deref(p.StreetNumber) != "4328" {
		t.Errorf("street = %q %q", deref(p.Street), deref(p.StreetNumber))
	}
}
