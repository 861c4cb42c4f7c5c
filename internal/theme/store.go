package theme

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Store persists a session's theme across reloads. Load returns an
// empty Theme and a nil error when nothing has been saved yet.
type Store interface {
	Load() (Theme, error)
	Save(Theme) error
}

/////////////////////////////////////////////////////////////////////
/////// COOKIE STORE
/////////////////////////////////////////////////////////////////////

const (
	CookieName   = "theme"
	cookieMaxAge = 365 * 24 * time.Hour
)

// CookieStore keeps the theme in a cookie. The cookie is readable by
// script so the page can apply the theme before first paint.
type CookieStore struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool
}

func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{r: r, w: w, secure: r.TLS != nil}
}

func (s *CookieStore) Load() (Theme, error) {
	c, err := s.r.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return Parse(c.Value)
}

func (s *CookieStore) Save(t Theme) error {
	if !t.Concrete() {
		return fmt.Errorf("refusing to store non-concrete theme %q", t)
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName,
		Value:    string(t),
		Path:     "/",
		MaxAge:   int(cookieMaxAge / time.Second),
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

/////////////////////////////////////////////////////////////////////
/////// FILE STORE
/////////////////////////////////////////////////////////////////////

// FileStore keeps the theme in a single small file.
type FileStore struct{ Path string }

// DefaultFilePath is <user config dir>/riverblog/theme.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "riverblog", "theme"), nil
}

func (s *FileStore) Load() (Theme, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return Parse(string(b))
}

func (s *FileStore) Save(t Theme) error {
	if !t.Concrete() {
		return fmt.Errorf("refusing to store non-concrete theme %q", t)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(string(t)+"\n"), 0o644)
}

/////////////////////////////////////////////////////////////////////
/////// MEMORY STORE
/////////////////////////////////////////////////////////////////////

// MemoryStore keeps the theme in memory. Setting LoadErr or SaveErr
// makes the corresponding operation fail.
type MemoryStore struct {
	mu      sync.Mutex
	value   Theme
	saves   int
	LoadErr error
	SaveErr error
}

func (s *MemoryStore) Load() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return "", s.LoadErr
	}
	return s.value, nil
}

func (s *MemoryStore) Save(t Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.value = t
	s.saves++
	return nil
}

// Saved returns the last successfully saved theme and the number of
// successful saves.
func (s *MemoryStore) Saved() (Theme, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.saves
}

/////////////////////////////////////////////////////////////////////
/////// PREFERENCE SOURCES
/////////////////////////////////////////////////////////////////////

// PrefersColorSchemeHeader is the client hint a browser sends once the
// server has advertised it with Accept-CH.
const PrefersColorSchemeHeader = "Sec-CH-Prefers-Color-Scheme"

func PrefersFromRequest(r *http.Request) PreferenceFunc {
	return func() Theme {
		v := strings.Trim(strings.TrimSpace(r.Header.Get(PrefersColorSchemeHeader)), `"`)
		if Theme(v) == Dark {
			return Dark
		}
		return Light
	}
}

func PrefersFromTerminal() PreferenceFunc {
	return func() Theme {
		if lipgloss.HasDarkBackground() {
			return Dark
		}
		return Light
	}
}
