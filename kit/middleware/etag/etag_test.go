package etag

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("hello"))
}

func TestAuto(t *testing.T) {
	h := Auto(nil)(http.HandlerFunc(hello))

	t.Run("SetsETag", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := w.Header().Get("ETag"); got != Of([]byte("hello")) {
			t.Errorf("unexpected etag %q", got)
		}
		if w.Body.String() != "hello" {
			t.Errorf("unexpected body %q", w.Body.String())
		}
	})

	t.Run("NotModified", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("If-None-Match", Of([]byte("hello")))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusNotModified {
			t.Fatalf("expected 304, got %d", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("expected empty body, got %q", w.Body.String())
		}
	})

	t.Run("SkipsNonGET", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		if w.Header().Get("ETag") != "" {
			t.Error("expected no etag for POST")
		}
	})

	t.Run("SkipsErrors", func(t *testing.T) {
		h := Auto(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
		if w.Header().Get("ETag") != "" {
			t.Error("expected no etag on error")
		}
		if !strings.Contains(w.Body.String(), "nope") {
			t.Errorf("unexpected body %q", w.Body.String())
		}
	})

	t.Run("SkipFunc", func(t *testing.T) {
		h := Auto(&Config{SkipFunc: func(r *http.Request) bool { return true }})(http.HandlerFunc(hello))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Header().Get("ETag") != "" {
			t.Error("expected no etag when skipped")
		}
	})
}

func TestMatches(t *testing.T) {
	tag := `W/"abc"`
	cases := map[string]bool{
		"":             false,
		"*":            true,
		`"abc"`:        true,
		`W/"abc"`:      true,
		`"x", W/"abc"`: true,
		`"x", "y"`:     false,
	}
	for header, want := range cases {
		if got := Matches(header, tag); got != want {
			t.Errorf("Matches(%q) = %v, want %v", header, got, want)
		}
	}
}
