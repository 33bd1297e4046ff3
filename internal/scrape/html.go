package scrape

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}

func absURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimRight(base, "/") + href
	}
	return strings.TrimRight(base, "/") + "/" + href
}

var lazyImgAttrs = []string{"src", "data-src", "data-lazy", "data-original"}

func imageURL(sel *goquery.Selection, base string) string {
	for _, attr := range lazyImgAttrs {
		v, ok := sel.Attr(attr)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || strings.HasPrefix(v, "data:") {
			continue
		}
		return absURL(base, v)
	}
	return ""
}

// stripTracking removes query string and fragment. Zonaprop appends
// ?n_src=Listado&n_pos=1 style params that break URL deduplication.
func stripTracking(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

var resultRangeRe = regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*de\s*(\d+)`)

// hasMoreByRange parses "Mostrando 1-20 de 150 resultados" style counters.
func hasMoreByRange(text string) (bool, bool) {
	m := resultRangeRe.FindStringSubmatch(strings.ReplaceAll(text, ".", ""))
	if m == nil {
		return false, false
	}
	end, _ := strconv.Atoi(m[2])
	total, _ := strconv.Atoi(m[3])
	return end < total, true
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// truncate caps s at n bytes, backing up to a rune boundary so portal
// text full of accented characters never ends in a split rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefF(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func derefI(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
