package geo

import "testing"

func TestCleanRawAddress(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Superí al 2500", "Superí 2500"},
		{"Gorriti 4300, Palermo, Capital Federal", "Gorriti 4300"},
		{"Av. Cabildo 1234 Piso 3 Dto A", "Av. Cabildo 1234"},
		{"Rivera e/ Conesa y Av. Crámer", "Rivera"},
		{"Honduras S/N", "Honduras"},
		{"Córdoba entre Uriburu y Junín", "Córdoba"},
		{"Lavalle esq. Montevideo", "Lavalle"},
		{"Moldes 1757, UF 4, Belgrano, CABA", "Moldes 1757"},
		{"Olazábal 2100 PB", "Olazábal 2100"},
		{"  Paraguay 5400  ", "Paraguay 5400"},
	}
	for _, c := range cases {
		if got := CleanRawAddress(c.in); got != c.want {
			t.Errorf("CleanRawAddress(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanRawAddressIdempotent(t *testing.T) {
	inputs := []string{
		"Superí al 2500, Piso 3, Núñez, CABA",
		"Gorriti 4300, Palermo, Capital Federal",
		"Honduras 5500",
	}
	for _, in := range inputs {
		once := CleanRawAddress(in)
		twice := CleanRawAddress(once)
		if once != twice {
			t.Errorf("CleanRawAddress not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestParseStreetAndNumber(t *testing.T) {
	cases := []struct {
		in, street, number string
	}{
		{"Superí 2900", "Superí", "2900"},
		{"Av. Cabildo 1234", "Av. Cabildo", "1234"},
		{"Dr. Tomás M. de Anchorena 1432", "Dr. Tomás M. de Anchorena", "1432"},
		{"Honduras", "Honduras", ""},
		{"", "", ""},
	}
	for _, c := range cases {
		street, number := ParseStreetAndNumber(c.in)
		if street != c.street || number != c.number {
			t.Errorf("ParseStreetAndNumber(%q) = (%q, %q), want (%q, %q)", c.in, street, number, c.street, c.number)
		}
	}
}

func TestDetectNeighborhood(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Gorriti 4300, Palermo, Capital Federal", "Palermo"},
		{"Superí 2500, núñez", "Núñez"},
		{"Av. Rivadavia 5000, villa crespo", "Villa Crespo"},
		{"Gorriti 4300", ""},
	}
	for _, c := range cases {
		if got := DetectNeighborhood(c.in); got != c.want {
			t.Errorf("DetectNeighborhood(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCity(t *testing.T) {
	cases := []struct{ in, want string }{
		{"CABA", "Capital Federal"},
		{"caba", "Capital Federal"},
		{"Ciudad de Buenos Aires", "Capital Federal"},
		{"C.A.B.A.", "Capital Federal"},
		{"Buenos Aires", "Buenos Aires"},
		{"Rosario", "Rosario"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeCity(c.in); got != c.want {
			t.Errorf("NormalizeCity(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeFieldsFillsGaps(t *testing.T) {
	f := NormalizeFields(Fields{
		Address: "Superí al 2500, Piso 3, Núñez, CABA",
		City:    "CABA",
	})
	if f.Address != "Superí 2500" {
		t.Errorf("address = %q", f.Address)
	}
	if f.Street != "Superí" || f.StreetNumber != "2500" {
		t.Errorf("street = %q %q", f.Street, f.StreetNumber)
	}
	if f.Neighborhood != "Núñez" {
		t.Errorf("neighborhood = %q", f.Neighborhood)
	}
	if f.City != "Capital Federal" {
		t.Errorf("city = %q", f.City)
	}
}

func TestNormalizeFieldsKeepsProvidedValues(t *testing.T) {
	f := NormalizeFields(Fields{
		Address:      "Gorriti 4300, Palermo",
		Street:       "Gorriti",
		StreetNumber: "4350",
		Neighborhood: "Palermo Soho",
		City:         "Capital Federal",
	})
	if f.StreetNumber != "4350" {
		t.Errorf("scraper-provided number should win: %q", f.StreetNumber)
	}
	if f.Neighborhood != "Palermo Soho" {
		t.Errorf("scraper-provided neighborhood should win: %q", f.Neighborhood)
	}
}

func TestNormalizeFieldsIdempotent(t *testing.T) {
	once := NormalizeFields(Fields{
		Address: "Superí al 2500, Núñez, CABA",
		City:    "CABA",
	})
	twice := NormalizeFields(once)
	if once != twice {
		t.Errorf("NormalizeFields not idempotent:\nonce  %+v\ntwice %+v", once, twice)
	}
}

func TestInBuenosAires(t *testing.T) {
	if !InBuenosAires(-34.6, -58.45) {
		t.Error("central CABA should be in bounds")
	}
	if InBuenosAires(-31.4, -64.2) {
		t.Error("Córdoba should be out of bounds")
	}
	if InBuenosAires(-34.6, -60.0) {
		t.Error("far west should be out of bounds")
	}
}

func TestMatchCentroid(t *testing.T) {
	if got := MatchCentroid(-34.5740, -58.4240); got != "palermo" {
		t.Errorf("exact palermo centroid = %q", got)
	}
	if got := MatchCentroid(-34.5745, -58.4245); got != "palermo" {
		t.Errorf("near palermo centroid = %q", got)
	}
	if got := MatchCentroid(-34.6000, -58.4500); got != "" {
		t.Errorf("street-level coords matched %q", got)
	}
}
