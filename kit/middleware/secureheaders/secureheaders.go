package secureheaders

import (
	"maps"
	"net/http"
)

// see https://owasp.org/www-project-secure-headers/ci/headers_add.json
var securityHeadersMap = map[string]string{
	"Cross-Origin-Opener-Policy":        "same-origin",
	"Cross-Origin-Resource-Policy":      "same-origin",
	"Permissions-Policy":                "accelerometer=(), autoplay=(), camera=(), display-capture=(), encrypted-media=(), fullscreen=(), geolocation=(), gyroscope=(), keyboard-map=(), magnetometer=(), microphone=(), midi=(), payment=(), picture-in-picture=(), publickey-credentials-get=(), screen-wake-lock=(), sync-xhr=(self), usb=(), web-share=(), xr-spatial-tracking=(), clipboard-read=(), clipboard-write=(), gamepad=(), hid=(), idle-detection=(), interest-cohort=(), serial=(), unload=()",
	"Referrer-Policy":                   "same-origin",
	"X-Content-Type-Options":            "nosniff",
	"X-Frame-Options":                   "deny",
	"X-Permitted-Cross-Domain-Policies": "none",
}

type Options struct {
	// Headers merged over the defaults. An empty value removes a default.
	Extra map[string]string
	// Sends Strict-Transport-Security. Leave off for plain-HTTP dev servers.
	HSTS bool
}

// Sets the default security-related headers on every response.
func Middleware(next http.Handler) http.Handler {
	return New(Options{})(next)
}

func New(opts Options) func(http.Handler) http.Handler {
	headers := maps.Clone(securityHeadersMap)
	if opts.HSTS {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}
	for k, v := range opts.Extra {
		if v == "" {
			delete(headers, k)
			continue
		}
		headers[k] = v
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for header, value := range headers {
				w.Header().Set(header, value)
			}
			w.Header().Del("Server")
			w.Header().Del("X-Powered-By")
			next.ServeHTTP(w, r)
		})
	}
}
