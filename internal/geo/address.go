package geo

import (
	"regexp"
	"strings"
)

// CABANeighborhoods are the canonical barrio names used for detection and
// address cleanup.
var CABANeighborhoods = []string{
	"Agronomía", "Almagro", "Balvanera", "Barracas", "Belgrano",
	"Boedo", "Caballito", "Chacarita", "Coghlan", "Colegiales",
	"Constitución", "Flores", "Floresta", "La Boca", "La Paternal",
	"Liniers", "Mataderos", "Monte Castro", "Monserrat", "Nueva Pompeya",
	"Núñez", "Palermo", "Parque Avellaneda", "Parque Chacabuco",
	"Parque Chas", "Parque Patricios", "Puerto Madero", "Recoleta",
	"Retiro", "Saavedra", "San Cristóbal", "San Nicolás", "San Telmo",
	"Vélez Sarsfield", "Versalles", "Villa Crespo", "Villa del Parque",
	"Villa Devoto", "Villa General Mitre", "Villa Lugano", "Villa Luro",
	"Villa Ortúzar", "Villa Pueyrredón", "Villa Real", "Villa Riachuelo",
	"Villa Santa Rita", "Villa Soldati", "Villa Urquiza",
}

var neighborhoodRe = func() *regexp.Regexp {
	quoted := make([]string, len(CABANeighborhoods))
	for i, n := range CABANeighborhoods {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}()

var cityAliases = map[string]string{
	"caba":                        "Capital Federal",
	"ciudad de buenos aires":      "Capital Federal",
	"ciudad autónoma de buenos aires": "Capital Federal",
	"c.a.b.a.":                    "Capital Federal",
	"c.a.b.a":                     "Capital Federal",
	"capital federal":             "Capital Federal",
	"buenos aires":                "Buenos Aires",
}

var (
	floorRe        = regexp.MustCompile(`(?i),?\s*piso\s*\d*`)
	pbRe           = regexp.MustCompile(`(?i)\s+PB\b`)
	ufRe           = regexp.MustCompile(`(?i),?\s*UF\s*\d+`)
	degreeFloorRe  = regexp.MustCompile(`\s+\d+°.*$`)
	dtoRe          = regexp.MustCompile(`(?i),?\s*Dto\.?\s*\w*$`)
	noNumberRe     = regexp.MustCompile(`(?i)\s+(S/?N|Sn|sin\s*n[úu]mero)\b`)
	alNumberRe     = regexp.MustCompile(`(?i)\s+al\s+(\d)`)
	entreRe        = regexp.MustCompile(`(?i)\s+entre\s+.*$`)
	entreSlashRe   = regexp.MustCompile(`\s+e/\s*.*$`)
	esquinaRe      = regexp.MustCompile(`(?i)\s+(esq\.?|esquina)\s+.*$`)
	trailingCityRe = regexp.MustCompile(`(?i),?\s*(Caba|Capital Federal|Ciudad de Buenos Aires|Buenos Aires)\s*$`)
	doubleCommaRe  = regexp.MustCompile(`,\s*,`)
	spacesRe       = regexp.MustCompile(`\s+`)
	streetNumberRe = regexp.MustCompile(`^(.+?)\s+(\d{1,5})\b`)
)

// CleanRawAddress strips the noise portals pack into address strings:
// floor and unit markers, "al 2500" phrasing, "entre X y Y" cross
// references, corner notation and trailing city or barrio labels.
//
//	"Superí al 2500, Piso 3, Núñez, CABA" -> "Superí 2500"
func CleanRawAddress(address string) string {
	cleaned := strings.TrimSpace(address)

	cleaned = floorRe.ReplaceAllString(cleaned, "")
	cleaned = pbRe.ReplaceAllString(cleaned, "")
	cleaned = ufRe.ReplaceAllString(cleaned, "")
	cleaned = degreeFloorRe.ReplaceAllString(cleaned, "")
	cleaned = dtoRe.ReplaceAllString(cleaned, "")
	cleaned = noNumberRe.ReplaceAllString(cleaned, "")
	cleaned = alNumberRe.ReplaceAllString(cleaned, " ${1}")
	cleaned = entreRe.ReplaceAllString(cleaned, "")
	cleaned = entreSlashRe.ReplaceAllString(cleaned, "")
	cleaned = esquinaRe.ReplaceAllString(cleaned, "")
	cleaned = trailingCityRe.ReplaceAllString(cleaned, "")
	cleaned = neighborhoodRe.ReplaceAllString(cleaned, "")

	cleaned = doubleCommaRe.ReplaceAllString(cleaned, ",")
	cleaned = strings.TrimSpace(spacesRe.ReplaceAllString(cleaned, " "))
	cleaned = strings.TrimSpace(strings.Trim(cleaned, ","))

	return cleaned
}

// ParseStreetAndNumber splits "Av. Cabildo 1234" into street and number.
// An address without a number comes back as street only.
func ParseStreetAndNumber(cleaned string) (string, string) {
	if cleaned == "" {
		return "", ""
	}
	if m := streetNumberRe.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	return cleaned, ""
}

// DetectNeighborhood finds a known barrio name inside an address string
// and returns it in canonical casing.
func DetectNeighborhood(address string) string {
	if address == "" {
		return ""
	}
	m := neighborhoodRe.FindStringSubmatch(address)
	if m == nil {
		return ""
	}
	lower := strings.ToLower(m[1])
	for _, canonical := range CABANeighborhoods {
		if strings.ToLower(canonical) == lower {
			return canonical
		}
	}
	return m[1]
}

// NormalizeCity maps the many spellings of CABA onto one canonical form.
func NormalizeCity(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return ""
	}
	if canonical, ok := cityAliases[strings.ToLower(city)]; ok {
		return canonical
	}
	return city
}

// Fields is one property's address block. Empty string means unknown.
type Fields struct {
	Address      string
	Street       string
	StreetNumber string
	Neighborhood string
	City         string
	Province     string
}

// NormalizeFields cleans the raw address and fills the gaps: street and
// number parsed out of the address when the scraper did not provide
// them, barrio detected from the raw text, city spelling normalized.
// Running it twice yields the same result.
func NormalizeFields(f Fields) Fields {
	cleaned := ""
	if f.Address != "" {
		cleaned = CleanRawAddress(f.Address)
	}

	if f.Street == "" && cleaned != "" {
		street, number := ParseStreetAndNumber(cleaned)
		f.Street = street
		if number != "" && f.StreetNumber == "" {
			f.StreetNumber = number
		}
	}

	if f.Neighborhood == "" && f.Address != "" {
		f.Neighborhood = DetectNeighborhood(f.Address)
	}

	f.City = NormalizeCity(f.City)
	f.Province = NormalizeCity(f.Province)

	if cleaned != "" {
		f.Address = cleaned
	}
	return f
}
