package secureheaders

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("Defaults", func(t *testing.T) {
		w := httptest.NewRecorder()
		Middleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("expected nosniff, got %q", got)
		}
		if got := w.Header().Get("Strict-Transport-Security"); got != "" {
			t.Errorf("expected no HSTS by default, got %q", got)
		}
	})

	t.Run("ExtraAndHSTS", func(t *testing.T) {
		mw := New(Options{
			HSTS: true,
			Extra: map[string]string{
				"X-Frame-Options":         "",
				"Content-Security-Policy": "default-src 'self'",
			},
		})
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Header().Get("Strict-Transport-Security") == "" {
			t.Error("expected HSTS header")
		}
		if got := w.Header().Get("X-Frame-Options"); got != "" {
			t.Errorf("expected X-Frame-Options removed, got %q", got)
		}
		if got := w.Header().Get("Content-Security-Policy"); got != "default-src 'self'" {
			t.Errorf("unexpected CSP %q", got)
		}
	})
}
