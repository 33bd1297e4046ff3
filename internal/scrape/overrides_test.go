package scrape

import (
	"os"
	"path/filepath"
	"testing"

	"propwatch/internal/domain"
)

func TestLoadOverridesEmptyPath(t *testing.T) {
	ov, err := LoadOverrides("")
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if len(ov) != 0 {
		t.Errorf("empty path should mean no overrides, got %d portals", len(ov))
	}
}

func TestLoadOverridesAppliesToURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portals.yaml")
	data := `
argenprop:
  neighborhoods:
    palermo hollywood: palermo-hollywood
zonaprop:
  locations:
    bariloche: bariloche
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	ov, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}

	a := NewArgenprop(ov[domain.PortalArgenprop])
	u, err := a.BuildSearchURL(domain.SavedSearch{
		OperationType: "venta",
		Neighborhoods: []string{"Palermo Hollywood"},
	}, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	if u != "https://www.argenprop.com/departamentos/venta/palermo-hollywood" {
		t.Errorf("override neighborhood: got %q", u)
	}

	z := NewZonaprop(ov[domain.PortalZonaprop])
	u, err = z.BuildSearchURL(domain.SavedSearch{OperationType: "venta", City: sp("Bariloche")}, 1)
	if err != nil {
		t.Fatalf("BuildSearchURL: %v", err)
	}
	if u != "https://www.zonaprop.com.ar/departamentos-venta-bariloche.html" {
		t.Errorf("override location: got %q", u)
	}
}

func TestRegistryCoversEveryPortal(t *testing.T) {
	reg := NewRegistry(remaxTestTables(), Overrides{})
	for _, portal := range []string{domain.PortalArgenprop, domain.PortalZonaprop, domain.PortalRemax, domain.PortalMercadoLibre} {
		adapter, ok := reg[portal]
		if !ok {
			t.Fatalf("registry missing %s", portal)
		}
		if adapter.Portal() != portal {
			t.Errorf("adapter for %s reports %s", portal, adapter.Portal())
		}
		if adapter.MaxPages() <= 0 || adapter.PageDelay() <= 0 {
			t.Errorf("%s: paging limits must be positive", portal)
		}
	}
}
