// Package server renders the blog per request over HTTP.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/river-now/riverblog/internal/assets"
	"github.com/river-now/riverblog/internal/content"
	"github.com/river-now/riverblog/internal/posts"
	"github.com/river-now/riverblog/internal/site"
	"github.com/river-now/riverblog/internal/theme"
	"github.com/river-now/riverblog/kit/jsonutil"
	"github.com/river-now/riverblog/kit/livereload"
	"github.com/river-now/riverblog/kit/middleware/etag"
	"github.com/river-now/riverblog/kit/middleware/secureheaders"
	"go.uber.org/zap"
)

const (
	BuildIDHeader  = "X-Build-ID"
	LiveReloadPath = "/__livereload"
	PublicPrefix   = "/public/"
)

type Options struct {
	// Required.
	Index *posts.Index
	// Required.
	Site *site.Renderer
	// Required.
	Assets *assets.Bundle
	// Optional. Theme for clients with no stored choice. Defaults to light.
	Theme theme.Theme
	// Optional. Sent as X-Build-ID on every response.
	BuildID string
	// Optional. Served as is under /public/.
	Public fs.FS
	// Optional. Serves the live-reload endpoint when set.
	LiveReload *livereload.Hub
	// Optional. Defaults to a no-op logger.
	Logger *zap.Logger
}

type Server struct {
	opts   Options
	logger *zap.Logger
	log    *zap.SugaredLogger
}

func New(opts Options) (*Server, error) {
	if opts.Index == nil || opts.Site == nil || opts.Assets == nil {
		return nil, errors.New("server: index, site and assets are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{opts: opts, logger: logger, log: logger.Sugar()}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.buildID)
	r.Use(accessLog(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(secureheaders.New(secureheaders.Options{
		Extra: map[string]string{"Content-Security-Policy": s.contentSecurityPolicy()},
	}))

	if s.opts.LiveReload != nil {
		r.Get(LiveReloadPath, s.opts.LiveReload.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(etag.Auto(nil))
		r.Use(chimw.Compress(5))
		r.Use(s.themeMiddleware)

		r.Get("/healthz", handleHealthz)
		r.Get(assets.Prefix+"{name}", s.handleAsset)
		if s.opts.Public != nil {
			r.Handle(PublicPrefix+"*", http.StripPrefix(PublicPrefix, http.FileServerFS(s.opts.Public)))
		}
		r.Get("/api/posts", s.handleAPIPosts)
		r.Get("/api/posts/{id}", s.handleAPIPost)
		r.Post("/theme", s.handleThemeToggle)
		r.Get("/", s.handleIndex)
		r.Get("/{id}", s.handlePost)
		r.NotFound(s.handleNotFound)
	})

	return r
}

func (s *Server) contentSecurityPolicy() string {
	connect := "'self'"
	if s.opts.LiveReload != nil {
		connect += " ws: wss:"
	}
	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' " + s.opts.Site.ThemeScriptSource(),
		"style-src 'self'",
		"img-src 'self' data: https:",
		"connect-src " + connect,
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")
}

func (s *Server) buildID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.BuildID != "" {
			w.Header().Set(BuildIDHeader, s.opts.BuildID)
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	log := logger.Sugar()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Infow("Request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"requestId", chimw.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// themeMiddleware gives each request its own theme holder, backed by
// the theme cookie and resolved against the browser's color scheme hint.
func (s *Server) themeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-CH", theme.PrefersColorSchemeHeader)
		w.Header().Add("Vary", theme.PrefersColorSchemeHeader)
		w.Header().Add("Vary", "Cookie")

		h := theme.NewHolder(theme.Options{
			Default: s.opts.Theme,
			Store:   theme.NewCookieStore(w, r),
			Prefers: theme.PrefersFromRequest(r),
			Logger:  s.logger,
		})
		next.ServeHTTP(w, r.WithContext(theme.WithHolder(r.Context(), h)))
	})
}

func pageData(r *http.Request) site.PageData {
	h, _ := theme.FromContext(r.Context())
	return site.PageData{Theme: h}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sorted, err := s.opts.Index.SortedPosts(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	setHTML(w)
	if err := s.opts.Site.Index(w, site.IndexData{PageData: pageData(r), Posts: sorted}); err != nil {
		s.log.Errorw("Rendering index", "error", err)
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := s.opts.Index.Loader().Get(r.Context(), id)
	switch {
	case content.IsNotFound(err):
		s.handleNotFound(w, r)
		return
	case err != nil:
		s.renderError(w, r, err)
		return
	}
	setHTML(w)
	if err := s.opts.Site.Post(w, site.PostData{PageData: pageData(r), Post: post}); err != nil {
		s.log.Errorw("Rendering post", "id", id, "error", err)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	setHTML(w)
	w.WriteHeader(http.StatusNotFound)
	if err := s.opts.Site.NotFound(w, pageData(r)); err != nil {
		s.log.Errorw("Rendering not found page", "error", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, cause error) {
	s.log.Errorw("Request failed", "path", r.URL.Path, "error", cause)
	setHTML(w)
	w.WriteHeader(http.StatusInternalServerError)
	if err := s.opts.Site.Error(w, pageData(r), cause); err != nil {
		s.log.Errorw("Rendering error page", "error", err)
	}
}

func setHTML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// handleThemeToggle flips the session theme. Browsers submitting the
// header form are redirected back; script callers asking for JSON get
// the new theme.
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	h, ok := theme.FromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	next := h.Toggle()

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		jsonutil.Respond(w, http.StatusOK, map[string]theme.Theme{"theme": next})
		return
	}
	http.Redirect(w, r, sameOriginReferer(r), http.StatusSeeOther)
}

func sameOriginReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host || ref.Path == "" {
		return "/"
	}
	return ref.RequestURI()
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) handleAPIPosts(w http.ResponseWriter, r *http.Request) {
	sorted, err := s.opts.Index.SortedPosts(r.Context())
	if err != nil {
		s.log.Errorw("Listing posts", "error", err)
		jsonutil.Respond(w, http.StatusInternalServerError, apiError{Error: "could not list posts"})
		return
	}
	jsonutil.Respond(w, http.StatusOK, sorted)
}

func (s *Server) handleAPIPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := s.opts.Index.Loader().Get(r.Context(), id)
	switch {
	case content.IsNotFound(err):
		jsonutil.Respond(w, http.StatusNotFound, apiError{Error: err.Error()})
	case err != nil:
		s.log.Errorw("Loading post", "id", id, "error", err)
		jsonutil.Respond(w, http.StatusInternalServerError, apiError{Error: "could not load post"})
	default:
		jsonutil.Respond(w, http.StatusOK, post)
	}
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := s.opts.Assets.Lookup(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(a.Body)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	log := logger.Sugar()
	errCh := make(chan error, 1)
	go func() {
		log.Infow("Starting server", "url", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Infow("Shutting down server", "url", "http://localhost"+srv.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewHTTPServer wraps h with the timeouts used in production.
func NewHTTPServer(addr string, h http.Handler, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:                         addr,
		Handler:                      h,
		ReadTimeout:                  15 * time.Second,
		WriteTimeout:                 30 * time.Second,
		IdleTimeout:                  60 * time.Second,
		ReadHeaderTimeout:            10 * time.Second,
		MaxHeaderBytes:               1 << 20,
		DisableGeneralOptionsHandler: true,
		ErrorLog:                     zap.NewStdLog(logger.Named("http")),
	}
}
