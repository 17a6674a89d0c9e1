// Package nav models the client's current view and forced navigation.
//
// A Router plays the role of the browser location: REPL commands move it
// around, and the session layer moves it when credentials are lost.
package nav

import (
	"strings"
	"sync"
)

// Navigator is what the auth and session layers need from the view layer.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Router is an in-memory Navigator. OnNavigate, when set, is called after
// every location change with the new path.
type Router struct {
	mu         sync.RWMutex
	location   string
	OnNavigate func(path string)
}

func NewRouter(start string) *Router {
	return &Router{location: start}
}

func (r *Router) Location() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

func (r *Router) Navigate(path string) {
	r.mu.Lock()
	r.location = path
	cb := r.OnNavigate
	r.mu.Unlock()

	if cb != nil {
		cb(path)
	}
}

// IsPublic reports whether path is one of publicPaths or below one of them.
// "/" matches only the root itself.
func IsPublic(path string, publicPaths []string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, p := range publicPaths {
		if p == "" {
			continue
		}
		if path == p {
			return true
		}
		if p != "/" && strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
