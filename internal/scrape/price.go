package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`[\d.,]+`)

// ParsePrice extracts amount and currency from portal price text.
//
// Argentine portals mix separators freely:
//
//	"USD 239.000"  -> 239000, USD
//	"$ 1.500.000"  -> 1500000, ARS
//	"U$S 150000"   -> 150000, USD
//	"1.000,50"     -> 1000.50, ""
//	"1,000,000"    -> 1000000, ""
//
// A bare "$" means pesos here. Returns (0, currency, false) when no
// number can be extracted.
func ParsePrice(priceText string) (float64, string, bool) {
	if strings.TrimSpace(priceText) == "" {
		return 0, "", false
	}
	text := strings.ToUpper(strings.TrimSpace(priceText))

	currency := ""
	switch {
	case strings.Contains(text, "USD"), strings.Contains(text, "U$S"), strings.Contains(text, "US$"):
		currency = "USD"
	case strings.Contains(text, "ARS"), strings.Contains(text, "AR$"):
		currency = "ARS"
	case strings.Contains(text, "$"):
		currency = "ARS"
	}

	num := numberRe.FindString(text)
	if num == "" {
		return 0, currency, false
	}

	dots := strings.Count(num, ".")
	commas := strings.Count(num, ",")

	switch {
	case dots > 1:
		// 1.000.000: dots are thousands separators.
		num = strings.ReplaceAll(num, ".", "")
	case commas > 1:
		// 1,000,000: commas are thousands separators.
		num = strings.ReplaceAll(num, ",", "")
	case commas == 1 && dots == 1:
		if strings.Index(num, ",") < strings.Index(num, ".") {
			// 1,000.00
			num = strings.ReplaceAll(num, ",", "")
		} else {
			// 1.000,00
			num = strings.ReplaceAll(num, ".", "")
			num = strings.ReplaceAll(num, ",", ".")
		}
	case commas == 1:
		// 1000,50 is a decimal, 150,000 a thousands separator.
		parts := strings.Split(num, ",")
		if len(parts) == 2 && len(parts[1]) == 2 {
			num = strings.ReplaceAll(num, ",", ".")
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case dots == 1:
		// 239.000 is thousands; a 2-digit tail stays decimal.
		parts := strings.Split(num, ".")
		if len(parts[len(parts)-1]) == 3 {
			num = strings.ReplaceAll(num, ".", "")
		}
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, currency, false
	}
	return v, currency, true
}
