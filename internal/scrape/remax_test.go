package scrape

import (
	"errors"
	"strings"
	"testing"

	"propwatch/internal/domain"
)

func remaxTestTables() RemaxTables {
	return RemaxTables{
		Locations: map[string]RemaxLocation{
			"palermo":  {ID: "25006", DisplayName: "Palermo"},
			"belgrano": {ID: "25012", DisplayName: "Belgrano"},
		},
		PropertyTypes: map[string]string{
			"departamento": "1,2",
			"casa":         "3",
		},
	}
}

func TestRemaxBuildSearchURL(t *testing.T) {
	r := NewRemax(remaxTestTables())

	search := domain.SavedSearch{
		PropertyType:  sp("departamento"),
		OperationType: "venta",
		Neighborhoods: []string{"Palermo"},
		Currency:      "USD",
		MinPrice:      fp(100000),
		MaxPrice:      fp(200000),
	}

	u, err := r.BuildSearchURL(search, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	want := "https://www.remax.com.ar/listings/buy" +
		"?page=0&pageSize=24&sort=-createdAt&in:operationId=1&in:eStageId=0,1,2,3,4" +
		"&in:typeId=1,2&pricein=1:100000:200000" +
		"&locations=in%3A%3A%3A%3A25006%40Palermo%3A%3A%3A"
	if u != want {
		t.Errorf("got  %q\nwant %q", u, want)
	}

	// Pages are 0-based on the wire.
	u3, _ := r.BuildSearchURL(search, 3)
	if !strings.Contains(u3, "page=2&") {
		t.Errorf("page 3 should carry page=2: %q", u3)
	}
}

func TestRemaxRentPath(t *testing.T) {
	r := NewRemax(remaxTestTables())

	u, err := r.BuildSearchURL(domain.SavedSearch{OperationType: "alquiler"}, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	if !strings.HasPrefix(u, "https://www.remax.com.ar/listings/rent?") {
		t.Errorf("alquiler should use /listings/rent: %q", u)
	}
	if !strings.Contains(u, "in:operationId=2") {
		t.Errorf("alquiler should map to operationId=2: %q", u)
	}
}

func TestRemaxUnknownLocationFailsBeforeFetch(t *testing.T) {
	r := NewRemax(remaxTestTables())

	_, err := r.BuildSearchURL(domain.SavedSearch{
		OperationType: "venta",
		Neighborhoods: []string{"Bariloche Centro"},
	}, 1)
	if err == nil {
		t.Fatal("expected an error for a location missing from the lookup table")
	}
	var locErr *domain.LocationNotCachedError
	if !errors.As(err, &locErr) {
		t.Fatalf("error type = %T, want *domain.LocationNotCachedError", err)
	}
	if locErr.Key != "Bariloche Centro" {
		t.Errorf("key = %q", locErr.Key)
	}
	if len(locErr.Available) != 2 {
		t.Errorf("available keys = %d, want 2", len(locErr.Available))
	}
}

func TestRemaxNoLocationIsFine(t *testing.T) {
	r := NewRemax(remaxTestTables())

	u, err := r.BuildSearchURL(domain.SavedSearch{OperationType: "venta"}, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	if strings.Contains(u, "locations=") {
		t.Errorf("no requested location should mean no locations param: %q", u)
	}
}

func TestRemaxCityPartialMatch(t *testing.T) {
	r := NewRemax(remaxTestTables())

	u, err := r.BuildSearchURL(domain.SavedSearch{
		OperationType: "venta",
		City:          sp("Belgrano R"),
	}, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	if !strings.Contains(u, "25012") {
		t.Errorf("partial city match should resolve belgrano: %q", u)
	}
}

const remaxListHTML = `
<html><body>
<div class="card-remax">
  <a class="card-remax__href" href="/listings/departamento-en-venta-palermo-3-ambientes">ver</a>
  <h3>Departamento en venta Palermo 3 ambientes</h3>
  <div class="card__price">USD 120.000</div>
  <div class="card__ubication">Palermo, Capital Federal</div>
</div>
<a href="/listings/buy?page=2">siguiente</a>
<a href="/listings/sell">vender</a>
</body></html>`

func TestRemaxExtractCards(t *testing.T) {
	r := NewRemax(remaxTestTables())

	cards := r.ExtractCards(remaxListHTML)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1 (navigation links skipped)", len(cards))
	}

	c := cards[0]
	if c.SourceURL != "https://www.remax.com.ar/listings/departamento-en-venta-palermo-3-ambientes" {
		t.Errorf("source url = %q", c.SourceURL)
	}
	if deref(c.SourceID) != "departamento-en-venta-palermo-3-ambientes" {
		t.Errorf("source id = %q", deref(c.SourceID))
	}
	if c.Price == nil || *c.Price != 120000 || deref(c.Currency) != "USD" {
		t.Errorf("price = %v %q", c.Price, deref(c.Currency))
	}
	if deref(c.LocationPreview) != "Palermo, Capital Federal" {
		t.Errorf("location = %q", deref(c.LocationPreview))
	}
}

func TestRemaxSlug(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://www.remax.com.ar/listings/depto-palermo", "depto-palermo"},
		{"https://www.remax.com.ar/listings/buy?page=0", ""},
		{"https://www.remax.com.ar/listings/rent", ""},
		{"https://www.remax.com.ar/agentes/juan", ""},
	}
	for _, c := range cases {
		if got := remaxSlug(c.in); got != c.want {
			t.Errorf("remaxSlug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRemaxCDNImageURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{
			"listings/6f1a2b3c-d4e5/9a8b7c6d.webp",
			"https://d1acdg20u0pmxj.cloudfront.net/listings/6f1a2b3c-d4e5/1080xAUTO/9a8b7c6d.jpg",
		},
		{
			"listings/6f1a2b3c-d4e5/raw/9a8b7c6d.webp",
			"https://d1acdg20u0pmxj.cloudfront.net/listings/6f1a2b3c-d4e5/1080xAUTO/9a8b7c6d.jpg",
		},
		{
			"https://already.absolute/img.jpg",
			"https://already.absolute/img.jpg",
		},
		{"", ""},
	}
	for _, c := range cases {
		if got := remaxCDNImageURL(c.in); got != c.want {
			t.Errorf("remaxCDNImageURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRemaxPhotosBySlug(t *testing.T) {
	ngState := `{
	  "listings-key": {
	    "b": {"data": {"data": [
	      {"slug": "depto-palermo", "photos": [
	        {"rawValue": "listings/6f1a2b3c/9a8b7c6d.webp", "value": ""},
	        {"rawValue": "", "value": "listings/6f1a2b3c/raw/11223344.webp"}
	      ]},
	      {"slug": "sin-fotos", "photos": []}
	    ]}}
	  },
	  "other-key": {"b": {"data": {"data": []}}}
	}`

	photos := remaxPhotosBySlug(ngState)
	urls := photos["depto-palermo"]
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2", len(urls))
	}
	if urls[0] != "https://d1acdg20u0pmxj.cloudfront.net/listings/6f1a2b3c/1080xAUTO/9a8b7c6d.jpg" {
		t.Errorf("first url = %q", urls[0])
	}
	if _, ok := photos["sin-fotos"]; ok {
		t.Error("slug without photos should be absent")
	}
}

func TestRemaxHasNextPage(t *testing.T) {
	r := NewRemax(remaxTestTables())

	if !r.HasNextPage(`<button aria-label="Siguiente página"><span>></span></button>`) {
		t.Error("enabled next button should mean another page")
	}
	if r.HasNextPage(`<button aria-label="Siguiente página" disabled><span>></span></button>`) {
		t.Error("disabled next button should mean last page")
	}
	if r.HasNextPage(`<div class="qr-listings"></div>`) {
		t.Error("no pagination markers should mean last page")
	}
}
