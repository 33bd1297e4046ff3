package scrape

import (
	"testing"

	"propwatch/internal/domain"
)

func TestZonapropBuildSearchURL(t *testing.T) {
	z := NewZonaprop(SlugTable{})

	search := domain.SavedSearch{
		PropertyType:  sp("departamento"),
		OperationType: "venta",
		City:          sp("Capital Federal"),
		Currency:      "USD",
		MinPrice:      fp(100000),
		MaxPrice:      fp(200000),
		MinArea:       fp(50),
		MinBedrooms:   ip(3),
	}

	u, err := z.BuildSearchURL(search, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	want := "https://www.zonaprop.com.ar/departamentos-venta-capital-federal-100000-200000-dolar-50-9999-m2-cubiertos-3-ambientes-o-mas.html"
	if u != want {
		t.Errorf("page 1 = %q, want %q", u, want)
	}

	u2, _ := z.BuildSearchURL(search, 2)
	if u2 != want+"?pagina=2" {
		t.Errorf("page 2 = %q, want %q", u2, want+"?pagina=2")
	}
}

func TestZonapropBedroomSegments(t *testing.T) {
	z := NewZonaprop(SlugTable{})

	cases := []struct {
		min, max *int
		want     string
	}{
		{ip(2), ip(2), "https://www.zonaprop.com.ar/departamentos-venta-2-ambientes.html"},
		{ip(2), ip(4), "https://www.zonaprop.com.ar/departamentos-venta-2-a-4-ambientes.html"},
		{ip(3), nil, "https://www.zonaprop.com.ar/departamentos-venta-3-ambientes-o-mas.html"},
	}
	for _, c := range cases {
		u, err := z.BuildSearchURL(domain.SavedSearch{OperationType: "venta", MinBedrooms: c.min, MaxBedrooms: c.max}, 1)
		if err != nil {
			t.Fatalf("BuildSearchURL: %v", err)
		}
		if u != c.want {
			t.Errorf("got %q, want %q", u, c.want)
		}
	}
}

func TestZonapropSingleNeighborhoodOnly(t *testing.T) {
	z := NewZonaprop(SlugTable{})

	one, _ := z.BuildSearchURL(domain.SavedSearch{
		OperationType: "venta",
		City:          sp("Capital Federal"),
		Neighborhoods: []string{"Palermo"},
	}, 1)
	if one != "https://www.zonaprop.com.ar/departamentos-venta-palermo.html" {
		t.Errorf("one neighborhood: got %q", one)
	}

	// Two neighborhoods cannot be expressed in the path, fall back to city.
	two, _ := z.BuildSearchURL(domain.SavedSearch{
		OperationType: "venta",
		City:          sp("Capital Federal"),
		Neighborhoods: []string{"Palermo", "Recoleta"},
	}, 1)
	if two != "https://www.zonaprop.com.ar/departamentos-venta-capital-federal.html" {
		t.Errorf("two neighborhoods: got %q", two)
	}
}

func TestZonapropIsDetailURL(t *testing.T) {
	cases := []struct {
		href string
		want bool
	}{
		{"/propiedades/clasificado/alclapin-depto-palermo-54321098.html", true},
		{"/departamentos-venta-palermo.html", false},
		{"/departamentos-venta-palermo-54321098.html", false},
		{"/propiedades/depto-123.html", false},
	}
	for _, c := range cases {
		if got := zonapropIsDetailURL(c.href); got != c.want {
			t.Errorf("zonapropIsDetailURL(%q) = %v, want %v", c.href, got, c.want)
		}
	}
}

const zonapropListHTML = `
<html><body>
<div data-qa="posting PROPERTY">
  <a href="/propiedades/clasificado/alclapin-depto-palermo-54321098.html?n_src=Listado&n_pos=1">ver aviso</a>
  <h2 data-qa="POSTING_CARD_TITLE">Departamento 3 ambientes con balcón</h2>
  <div data-qa="POSTING_CARD_PRICE">USD 155.000</div>
  <div data-qa="POSTING_CARD_LOCATION">Palermo, Capital Federal</div>
</div>
<div data-qa="posting PROPERTY">
  <a href="/sin-aviso">nada</a>
</div>
</body></html>`

func TestZonapropExtractCards(t *testing.T) {
	z := NewZonaprop(SlugTable{})

	cards := z.ExtractCards(zonapropListHTML)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1 (card without a detail link is dropped)", len(cards))
	}

	c := cards[0]
	if c.SourceURL != "https://www.zonaprop.com.ar/propiedades/clasificado/alclapin-depto-palermo-54321098.html" {
		t.Errorf("tracking params should be stripped: %q", c.SourceURL)
	}
	if deref(c.SourceID) != "54321098" {
		t.Errorf("source id = %q", deref(c.SourceID))
	}
	if deref(c.Title) != "Departamento 3 ambientes con balcón" {
		t.Errorf("title = %q", deref(c.Title))
	}
	if c.Price == nil || *c.Price != 155000 || deref(c.Currency) != "USD" {
		t.Errorf("price = %v %q", c.Price, deref(c.Currency))
	}
}

func TestZonapropExtractDetail(t *testing.T) {
	z := NewZonaprop(SlugTable{})

	html := `
<html><body>
<h1>Departamento en venta 4 ambientes</h1>
<div data-qa="POSTING_CARD_PRICE">USD 239.000</div>
<h4>Gorriti 4300, Palermo, Capital Federal</h4>
<h2 class="title-type-sup-property">Departamento · 96m² · 4 ambientes · 1 cochera</h2>
<li class="icon-feature">2 baños</li>
<script>
var gallery = {"url1200x1200":"https://imgar.zonapropcdn.com/avisos/1/00/54/32/10/98/1200x1200/foto1.jpg","x":1,"url1200x1200":"https://imgar.zonapropcdn.com/avisos/1/00/54/32/10/98/1200x1200/foto2.jpg","y":2,"url1200x1200":"https://imgar.zonapropcdn.com/avisos/empresas/logo/1200x1200/emp.jpg"};
</script>
</body></html>`

	p, err := z.ExtractDetail(html, "https://www.zonaprop.com.ar/propiedades/clasificado/depto-54321098.html?n_src=x")
	if err != nil {
		t.Fatalf("ExtractDetail: %v", err)
	}
	if deref(p.SourceURL) != "https://www.zonaprop.com.ar/propiedades/clasificado/depto-54321098.html" {
		t.Errorf("source url = %q", deref(p.SourceURL))
	}
	if deref(p.SourceID) != "54321098" {
		t.Errorf("source id = %q", deref(p.SourceID))
	}
	if p.Price != 239000 || p.Currency != "USD" {
		t.Errorf("price = %v %s", p.Price, p.Currency)
	}
	if deref(p.Address) != "Gorriti 4300" {
		t.Errorf("address = %q", deref(p.Address))
	}
	if deref(p.Neighborhood) != "Palermo" {
		t.Errorf("neighborhood = %q", deref(p.Neighborhood))
	}
	if p.CoveredArea == nil || *p.CoveredArea != 96 {
		t.Errorf("covered area = %v", p.CoveredArea)
	}
	if p.Bedrooms == nil || *p.Bedrooms != 3 {
		t.Errorf("bedrooms = %v, want 3 from 4 ambientes", p.Bedrooms)
	}
	if p.Bathrooms == nil || *p.Bathrooms != 2 {
		t.Errorf("bathrooms = %v", p.Bathrooms)
	}
	if len(p.Images) != 2 {
		t.Fatalf("got %d images, want 2 (agency logo under /empresas/ excluded)", len(p.Images))
	}
	if p.Images[0].URL != "https://imgar.zonapropcdn.com/avisos/1/00/54/32/10/98/1200x1200/foto1.jpg" {
		t.Errorf("first image = %q", p.Images[0].URL)
	}
}

func TestZonapropHasNextPage(t *testing.T) {
	z := NewZonaprop(SlugTable{})

	if !z.HasNextPage(`<a data-qa="PAGING_NEXT" href="?pagina=2">Siguiente</a>`) {
		t.Error("PAGING_NEXT link should mean another page")
	}
	if z.HasNextPage(`<div data-qa="posting PROPERTY"></div>`) {
		t.Error("no pagination markers should mean last page")
	}
}
