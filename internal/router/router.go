// Package router maps URL paths to view handlers and tracks navigation
// history for the single-page surface.
package router

import (
	"log/slog"
	"net/url"
	"strings"

	"mindcare/internal/logging"
)

// Params carries the named captures extracted from a matched path.
type Params map[string]string

// Handler renders the view bound to a route. Errors redirect to the default
// route rather than surfacing to the user.
type Handler func(path string, params Params) error

type route struct {
	pattern  string
	segments []string
	handler  Handler
}

// Router resolves paths against registered patterns in insertion order. The
// first matching pattern wins, so specificity is entirely registration-order
// dependent. Not safe for concurrent use.
type Router struct {
	logger       *slog.Logger
	routes       []route
	defaultRoute string

	history []string
	cursor  int // index of the current entry in history, -1 when empty
}

// New builds a router that falls back to defaultRoute when a path matches no
// pattern or its handler fails.
func New(logger *slog.Logger, defaultRoute string) *Router {
	return &Router{
		logger:       logging.NewComponentLogger(logger, "router"),
		defaultRoute: defaultRoute,
		cursor:       -1,
	}
}

// Register appends a pattern. Segments starting with ':' are named captures.
// Duplicate patterns coexist; the earlier registration shadows the later one.
func (r *Router) Register(pattern string, handler Handler) {
	r.routes = append(r.routes, route{
		pattern:  pattern,
		segments: splitPath(pattern),
		handler:  handler,
	})
}

// Navigate pushes a new history entry and resolves the path. Any forward
// entries beyond the current position are discarded.
func (r *Router) Navigate(path string) {
	r.history = append(r.history[:r.cursor+1], path)
	r.cursor = len(r.history) - 1
	r.resolve(path)
}

// Replace swaps the current history entry for path and resolves it.
func (r *Router) Replace(path string) {
	if r.cursor < 0 {
		r.Navigate(path)
		return
	}
	r.history[r.cursor] = path
	r.resolve(path)
}

// Back moves one entry backwards and re-resolves without touching history.
// It reports whether a move happened.
func (r *Router) Back() bool {
	if r.cursor <= 0 {
		return false
	}
	r.cursor--
	r.resolve(r.history[r.cursor])
	return true
}

// Forward moves one entry forwards and re-resolves without touching history.
func (r *Router) Forward() bool {
	if r.cursor < 0 || r.cursor >= len(r.history)-1 {
		return false
	}
	r.cursor++
	r.resolve(r.history[r.cursor])
	return true
}

// Current returns the path of the active history entry.
func (r *Router) Current() string {
	if r.cursor < 0 {
		return ""
	}
	return r.history[r.cursor]
}

// Resolve matches path against the registered patterns and invokes the bound
// handler, without touching history. No match, or a handler error, falls back
// to the default route.
func (r *Router) Resolve(path string) {
	r.resolve(path)
}

func (r *Router) resolve(path string) {
	for _, candidate := range r.routes {
		params, ok := match(candidate.segments, path)
		if !ok {
			continue
		}
		if err := candidate.handler(path, params); err != nil {
			r.logger.Error("view handler failed",
				logging.String("path", path),
				logging.String("pattern", candidate.pattern),
				logging.Error(err))
			r.fallback(path)
		}
		return
	}
	r.logger.Warn("no route matched", logging.String("path", path))
	r.fallback(path)
}

// fallback replaces the current entry with the default route so a broken
// path never lingers in history.
func (r *Router) fallback(path string) {
	if path == r.defaultRoute {
		return
	}
	r.Replace(r.defaultRoute)
}

// Match reports whether path matches pattern and returns the extracted
// parameters. It is a pure helper with no router state involved.
func Match(pattern, path string) (Params, bool) {
	return match(splitPath(pattern), path)
}

func match(patternSegments []string, path string) (Params, bool) {
	pathSegments := splitPath(path)
	if len(pathSegments) != len(patternSegments) {
		return nil, false
	}
	params := Params{}
	for i, want := range patternSegments {
		got := pathSegments[i]
		if strings.HasPrefix(want, ":") {
			decoded, err := url.PathUnescape(got)
			if err != nil {
				decoded = got
			}
			params[want[1:]] = decoded
			continue
		}
		if want != got {
			return nil, false
		}
	}
	return params, true
}

// splitPath breaks a path into its non-empty segments, so trailing slashes
// and duplicate separators do not affect matching. "/" yields no segments.
func splitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
