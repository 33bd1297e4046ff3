package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

// Features mined from a card or detail page feature strip, e.g.
// "96 m² cubiertos · 4 ambientes · 2 baños · 1 cochera".
type Features struct {
	TotalArea     float64
	CoveredArea   float64
	Bedrooms      int
	Bathrooms     int
	ParkingSpaces int
}

var (
	totalAreaRe   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m[²2]?\s*tot`)
	coveredAreaRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m[²2]?\s*cub`)
	anyAreaRe     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m[²2]`)
	ambientesRe   = regexp.MustCompile(`(\d+)\s*amb`)
	dormitoriosRe = regexp.MustCompile(`(\d+)\s*dorm`)
	banosRe       = regexp.MustCompile(`(\d+)\s*bañ`)
	cocherasRe    = regexp.MustCompile(`(\d+)\s*coch`)
)

// ParseFeatures mines areas, rooms, bathrooms and parking from free
// text. Dormitorios win over ambientes; an ambientes-only card reports
// ambientes minus one, the portals count the living room as one.
func ParseFeatures(text string) Features {
	t := strings.ToLower(text)
	var f Features

	if m := totalAreaRe.FindStringSubmatch(t); m != nil {
		f.TotalArea = parseAreaValue(m[1])
	}
	if m := coveredAreaRe.FindStringSubmatch(t); m != nil {
		f.CoveredArea = parseAreaValue(m[1])
	}
	if f.TotalArea == 0 && f.CoveredArea == 0 {
		if m := anyAreaRe.FindStringSubmatch(t); m != nil {
			f.CoveredArea = parseAreaValue(m[1])
		}
	}

	if m := dormitoriosRe.FindStringSubmatch(t); m != nil {
		f.Bedrooms, _ = strconv.Atoi(m[1])
	} else if m := ambientesRe.FindStringSubmatch(t); m != nil {
		amb, _ := strconv.Atoi(m[1])
		if amb > 1 {
			f.Bedrooms = amb - 1
		}
	}

	if m := banosRe.FindStringSubmatch(t); m != nil {
		f.Bathrooms, _ = strconv.Atoi(m[1])
	}
	if m := cocherasRe.FindStringSubmatch(t); m != nil {
		f.ParkingSpaces, _ = strconv.Atoi(m[1])
	}

	return f
}

func parseAreaValue(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}
