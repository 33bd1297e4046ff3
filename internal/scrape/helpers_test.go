package scrape

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Palermo", "palermo"},
		{"Núñez", "nunez"},
		{"Villa Gral. Mitre", "villa-gral-mitre"},
		{"  San Telmo  ", "san-telmo"},
		{"Agronomía", "agronomia"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseFeatures(t *testing.T) {
	f := ParseFeatures("96 m² cubiertos · 110 m² totales · 4 ambientes · 2 baños · 1 cochera")
	if f.CoveredArea != 96 || f.TotalArea != 110 {
		t.Errorf("areas = (%v, %v), want (96, 110)", f.CoveredArea, f.TotalArea)
	}
	if f.Bedrooms != 3 {
		t.Errorf("bedrooms from 4 ambientes = %d, want 3", f.Bedrooms)
	}
	if f.Bathrooms != 2 || f.ParkingSpaces != 1 {
		t.Errorf("bathrooms=%d parking=%d, want 2 and 1", f.Bathrooms, f.ParkingSpaces)
	}
}

func TestParseFeaturesDormitoriosWinOverAmbientes(t *testing.T) {
	f := ParseFeatures("3 ambientes · 2 dormitorios")
	if f.Bedrooms != 2 {
		t.Errorf("bedrooms = %d, want 2 (dormitorios take priority)", f.Bedrooms)
	}
}

func TestParseFeaturesMonoambiente(t *testing.T) {
	f := ParseFeatures("1 ambiente · 35 m²")
	if f.Bedrooms != 0 {
		t.Errorf("monoambiente bedrooms = %d, want 0", f.Bedrooms)
	}
	if f.CoveredArea != 35 {
		t.Errorf("covered area = %v, want 35", f.CoveredArea)
	}
}

func TestTruncateCutsOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("é", 300)

	got := truncate(s, 499)
	if len(got) > 499 {
		t.Fatalf("len = %d, want at most 499", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated string is not valid UTF-8")
	}
	if got != strings.Repeat("é", 249) {
		t.Fatalf("got %d runes, want 249", utf8.RuneCountInString(got))
	}

	if truncate("corto", 10) != "corto" {
		t.Fatal("strings under the limit must pass through unchanged")
	}
}

func TestHasMoreByRange(t *testing.T) {
	cases := []struct {
		in       string
		more, ok bool
	}{
		{"Mostrando 1-20 de 150 resultados", true, true},
		{"Mostrando 141-150 de 150 resultados", false, true},
		{"Mostrando 1-20 de 1.500 avisos", true, true},
		{"sin resultados", false, false},
	}
	for _, c := range cases {
		more, ok := hasMoreByRange(c.in)
		if more != c.more || ok != c.ok {
			t.Errorf("hasMoreByRange(%q) = (%v, %v), want (%v, %v)", c.in, more, ok, c.more, c.ok)
		}
	}
}

func TestStripTracking(t *testing.T) {
	got := stripTracking("https://www.zonaprop.com.ar/propiedades/depto-54321098.html?n_src=Listado&n_pos=1#galeria")
	want := "https://www.zonaprop.com.ar/propiedades/depto-54321098.html"
	if got != want {
		t.Errorf("stripTracking = %q, want %q", got, want)
	}
}

func TestAbsURL(t *testing.T) {
	cases := []struct{ base, href, want string }{
		{"https://www.argenprop.com", "/departamento-en-venta--123456", "https://www.argenprop.com/departamento-en-venta--123456"},
		{"https://www.argenprop.com", "//static.argenprop.com/img/1.jpg", "https://static.argenprop.com/img/1.jpg"},
		{"https://www.argenprop.com", "https://other.com/x", "https://other.com/x"},
		{"https://www.argenprop.com", "", ""},
	}
	for _, c := range cases {
		if got := absURL(c.base, c.href); got != c.want {
			t.Errorf("absURL(%q, %q) = %q, want %q", c.base, c.href, got, c.want)
		}
	}
}
