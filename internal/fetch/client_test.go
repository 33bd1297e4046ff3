package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"propwatch/internal/domain"
)

func testClient() *Client {
	c := NewClient(nil, "", false)
	c.minBodySize = 10
	return c
}

func TestFetchAcceptsPlainPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>departamento en venta palermo</body></html>"))
	}))
	defer srv.Close()

	html, err := testClient().Fetch(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(html, "palermo") {
		t.Fatalf("unexpected body: %q", html)
	}
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("<html><body>ok body long enough</body></html>"))
	}))
	defer srv.Close()

	if _, err := testClient().Fetch(context.Background(), srv.URL, Options{Timeout: 5 * time.Second}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(gotUA, "Chrome") {
		t.Errorf("User-Agent = %q, want Chrome-like", gotUA)
	}
	if !strings.HasPrefix(gotLang, "es-AR") {
		t.Errorf("Accept-Language = %q, want es-AR first", gotLang)
	}
}

func TestFetchRejectsChallengePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>Just a moment...</title></head><body>" +
			strings.Repeat("x", 2000) + "</body></html>"))
	}))
	defer srv.Close()

	_, err := testClient().Fetch(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	if !errors.Is(err, domain.ErrFetchExhausted) {
		t.Fatalf("err = %v, want ErrFetchExhausted", err)
	}
}

func TestFetchRejectsTinyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	_, err := testClient().Fetch(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	if !errors.Is(err, domain.ErrFetchExhausted) {
		t.Fatalf("err = %v, want ErrFetchExhausted", err)
	}
}

func TestFetchRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("gone ", 500), http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient().Fetch(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	if !errors.Is(err, domain.ErrFetchExhausted) {
		t.Fatalf("err = %v, want ErrFetchExhausted", err)
	}
}

func TestDecodeBodyLatin1Fallback(t *testing.T) {
	// "Belgrano, Nuñez" with a Latin-1 encoded ñ (0xF1).
	raw := []byte("Belgrano, Nu\xf1ez")
	got := decodeBody(raw)
	if got != "Belgrano, Nuñez" {
		t.Fatalf("decodeBody = %q", got)
	}

	utf8In := []byte("Nuñez")
	if got := decodeBody(utf8In); got != "Nuñez" {
		t.Fatalf("decodeBody utf8 = %q", got)
	}
}

func TestFindChallengeMarker(t *testing.T) {
	cases := []struct {
		html string
		want string
	}{
		{"<div id=cf-browser-verification></div>", "cf-browser-verification"},
		{"<title>Just a moment...</title>", "Just a moment"},
		{"<h1>Checking your browser before accessing</h1>", "Checking your browser"},
		{"<html>normal listing page</html>", ""},
	}
	for _, c := range cases {
		if got := findChallengeMarker(c.html); got != c.want {
			t.Errorf("findChallengeMarker(%q) = %q, want %q", c.html, got, c.want)
		}
	}
}
