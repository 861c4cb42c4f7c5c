// Package etag buffers successful GET/HEAD responses, tags them with a
// weak ETag derived from a BLAKE2b hash of the body, and answers
// matching If-None-Match requests with 304 Not Modified.
package etag

import (
	"bytes"
	"encoding/hex"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

type Config struct {
	// Optional. Requests for which SkipFunc returns true pass through untouched.
	SkipFunc func(r *http.Request) bool
}

func Auto(cfg *Config) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = &Config{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.SkipFunc != nil && cfg.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{header: w.Header(), status: http.StatusOK}
			next.ServeHTTP(bw, r)

			if bw.status != http.StatusOK {
				bw.flushTo(w)
				return
			}

			etag := w.Header().Get("ETag")
			if etag == "" {
				etag = Of(bw.body.Bytes())
				w.Header().Set("ETag", etag)
			}
			if Matches(r.Header.Get("If-None-Match"), etag) {
				w.Header().Del("Content-Length")
				w.Header().Del("Content-Type")
				w.WriteHeader(http.StatusNotModified)
				return
			}
			bw.flushTo(w)
		})
	}
}

// Of returns a weak ETag for body.
func Of(body []byte) string {
	sum := blake2b.Sum256(body)
	return `W/"` + hex.EncodeToString(sum[:12]) + `"`
}

// Matches reports whether an If-None-Match header value matches etag
// using weak comparison.
func Matches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for candidate := range strings.SplitSeq(ifNoneMatch, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}
	return false
}

type bufferedWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (bw *bufferedWriter) Header() http.Header { return bw.header }

func (bw *bufferedWriter) WriteHeader(status int) {
	if bw.wroteHeader {
		return
	}
	bw.wroteHeader = true
	bw.status = status
}

func (bw *bufferedWriter) Write(p []byte) (int, error) {
	bw.WriteHeader(http.StatusOK)
	return bw.body.Write(p)
}

func (bw *bufferedWriter) flushTo(w http.ResponseWriter) {
	w.WriteHeader(bw.status)
	if bw.body.Len() > 0 {
		_, _ = w.Write(bw.body.Bytes())
	}
}
