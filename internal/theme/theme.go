// Package theme holds the light/dark presentation mode of one client
// session.
//
// A Holder is the single owned state cell for that mode. It is created
// by whoever owns the session (a request middleware, the CLI) and handed
// to consumers by reference, either directly or via WithHolder and
// FromContext. There is no package-level holder.
package theme

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Theme string

const (
	Light  Theme = "light"
	Dark   Theme = "dark"
	System Theme = "system"
)

func Parse(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("theme: unknown theme %q", s)
	}
	return t, nil
}

func (t Theme) Valid() bool { return t == Light || t == Dark || t == System }

// Concrete reports whether t is light or dark, the only values that are
// ever persisted.
func (t Theme) Concrete() bool { return t == Light || t == Dark }

// Opposite returns the other concrete theme. Anything that is not dark
// is treated as light.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) String() string { return string(t) }

// PreferenceFunc reports the environment's preferred concrete theme,
// used to resolve System. A zero or non-concrete result means light.
type PreferenceFunc func() Theme

type Options struct {
	// Optional. Used when the store holds nothing. Defaults to Light.
	Default Theme
	// Optional. Defaults to a fresh MemoryStore.
	Store Store
	// Optional. Resolves System. Defaults to always light.
	Prefers PreferenceFunc
	// Optional. Defaults to a no-op logger.
	Logger *zap.Logger
}

type Holder struct {
	mu      sync.Mutex
	current Theme
	store   Store
	prefers PreferenceFunc
	log     *zap.SugaredLogger
}

// NewHolder builds a holder whose initial state is the stored theme if
// one can be loaded, else the configured default.
func NewHolder(opts Options) *Holder {
	h := &Holder{
		current: opts.Default,
		store:   opts.Store,
		prefers: opts.Prefers,
	}
	if !h.current.Valid() {
		h.current = Light
	}
	if h.store == nil {
		h.store = &MemoryStore{}
	}
	if h.prefers == nil {
		h.prefers = func() Theme { return Light }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h.log = logger.Sugar()

	stored, err := h.store.Load()
	switch {
	case err != nil:
		h.log.Debugw("Ignoring theme load failure", "error", &PersistenceError{Op: "load", Err: err})
	case stored.Concrete():
		h.current = stored
	}
	return h
}

// Theme returns the active mode, which may be System.
func (h *Holder) Theme() Theme {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Resolved returns the concrete theme to render with.
func (h *Holder) Resolved() Theme {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resolve()
}

func (h *Holder) resolve() Theme {
	if h.current != System {
		return h.current
	}
	if p := h.prefers(); p.Concrete() {
		return p
	}
	return Light
}

// Toggle flips light and dark. From System it pins the opposite of the
// currently resolved preference. The new value is saved to the store;
// a failed save is logged and otherwise ignored.
func (h *Holder) Toggle() Theme {
	h.mu.Lock()
	next := h.resolve().Opposite()
	h.current = next
	h.mu.Unlock()

	if err := h.store.Save(next); err != nil {
		h.log.Debugw("Ignoring theme save failure", "error", &PersistenceError{Op: "save", Err: err})
	}
	return next
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("theme %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

type holderKey struct{}

func WithHolder(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func FromContext(ctx context.Context) (*Holder, bool) {
	h, ok := ctx.Value(holderKey{}).(*Holder)
	return h, ok && h != nil
}
