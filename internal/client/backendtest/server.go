// Package backendtest runs an in-process freshcart backend for tests.
//
// The server implements the auth, profile, wishlist and product endpoints
// the client consumes, issues HS256 JWT access tokens and rotating refresh
// tokens, and exposes knobs to expire tokens, delay or fail renewal, and
// fail wishlist writes.
package backendtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/freshcart/internal/client/models"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// User is a backend account.
type User struct {
	ID       string
	Email    string
	Password string
	Name     string
	Role     string
}

type ctxKey string

const userIDKey ctxKey = "userID"

type Server struct {
	*httptest.Server

	secret    []byte
	accessTTL time.Duration

	mu           sync.Mutex
	generation   int64
	users        map[string]User     // by id
	opaque       map[string]string   // access token -> user id
	refresh      map[string]string   // refresh token -> user id
	products     map[string]models.Product
	wishlists    map[string][]string // user id -> product ids
	rotate       bool
	refreshDelay time.Duration
	failRefresh  bool
	failWishlist bool

	requests     atomic.Int64
	refreshCalls atomic.Int64
	wishlistPuts atomic.Int64
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:    []byte("backendtest-" + uuid.NewString()),
		accessTTL: time.Hour,
		users:     map[string]User{},
		opaque:    map[string]string{},
		refresh:   map[string]string{},
		products:  map[string]models.Product{},
		wishlists: map[string][]string{},
		rotate:    true,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Get("/products/{productID}", s.handleProduct)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/users/profile", s.handleProfile)
		r.Get("/wishlist", s.handleWishlist)
		r.Post("/wishlist/{productID}", s.handleWishlistAdd)
		r.Delete("/wishlist/{productID}", s.handleWishlistRemove)
	})

	return r
}

// AddUser registers an account.
func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddProduct registers a catalog product under its key.
func (s *Server) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.Key()] = p
}

// AddAccessToken accepts an opaque bearer token for userID.
func (s *Server) AddAccessToken(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opaque[token] = userID
}

// IssueTokens mints a fresh token pair for userID as a login would.
func (s *Server) IssueTokens(t testing.TB, userID string) models.TokenPair {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, err := s.issueLocked(s.users[userID])
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return pair
}

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	clear(s.opaque)
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}

// SetRotation controls whether refresh returns a new refresh token.
func (s *Server) SetRotation(rotate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotate = rotate
}

// SetRefreshDelay makes the refresh endpoint wait before answering.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// FailRefresh makes the refresh endpoint answer 401.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// FailWishlistWrites makes wishlist POST and DELETE answer 500.
func (s *Server) FailWishlistWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWishlist = fail
}

// SetWishlist replaces userID's remote wishlist.
func (s *Server) SetWishlist(userID string, productIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wishlists[userID] = slices.Clone(productIDs)
}

// Wishlist returns userID's remote wishlist.
func (s *Server) Wishlist(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.wishlists[userID])
}

// Requests counts every request served.
func (s *Server) Requests() int64 { return s.requests.Load() }

// RefreshCalls counts calls to the refresh endpoint.
func (s *Server) RefreshCalls() int64 { return s.refreshCalls.Load() }

// WishlistWrites counts wishlist POST and DELETE calls.
func (s *Server) WishlistWrites() int64 { return s.wishlistPuts.Load() }

func (s *Server) issueLocked(u User) (models.TokenPair, error) {
	access, err := generateToken(u, s.generation, s.secret, s.accessTTL, time.Now())
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh := uuid.NewString()
	s.refresh[refresh] = u.ID

	return models.TokenPair{AccessToken: access, RefreshToken: refresh, Role: u.Role, UserID: u.ID}, nil
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		s.mu.Lock()
		userID, known := s.opaque[token]
		gen := s.generation
		s.mu.Unlock()

		if !known {
			var err error
			userID, err = parseToken(token, s.secret, gen, time.Now())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == in.Email && u.Password == in.Password {
			pair, err := s.issueLocked(u)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, pair)
			return
		}
	}
	writeError(w, http.StatusBadRequest, "wrong email or password")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	s.mu.Lock()
	delay := s.refreshDelay
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.refresh[in.RefreshToken]
	if !ok || s.failRefresh {
		writeError(w, http.StatusUnauthorized, "refresh token invalid or expired")
		return
	}

	access, err := generateToken(s.users[userID], s.generation, s.secret, s.accessTTL, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := models.TokenPair{AccessToken: access}
	if s.rotate {
		delete(s.refresh, in.RefreshToken)
		out.RefreshToken = uuid.NewString()
		s.refresh[out.RefreshToken] = userID
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(userIDKey).(string)

	s.mu.Lock()
	u, ok := s.users[userID]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, models.Profile{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  models.Ref{ID: "role-" + strings.ToLower(u.Role), Name: u.Role},
	})
}

func (s *Server) handleWishlist(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(userIDKey).(string)
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 8)

	s.mu.Lock()
	ids := s.wishlists[userID]
	items := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			items = append(items, p)
		}
	}
	s.mu.Unlock()

	total := len(items)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	lastPage := max(1, (total+limit-1)/limit)

	writeJSON(w, http.StatusOK, map[string]any{
		"data":     items[start:end],
		"total":    total,
		"page":     page,
		"lastPage": lastPage,
	})
}

func (s *Server) handleWishlistAdd(w http.ResponseWriter, r *http.Request) {
	s.writeWishlist(w, r, true)
}

func (s *Server) handleWishlistRemove(w http.ResponseWriter, r *http.Request) {
	s.writeWishlist(w, r, false)
}

func (s *Server) writeWishlist(w http.ResponseWriter, r *http.Request, add bool) {
	s.wishlistPuts.Add(1)
	userID, _ := r.Context().Value(userIDKey).(string)
	productID := chi.URLParam(r, "productID")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWishlist {
		writeError(w, http.StatusInternalServerError, "wishlist unavailable")
		return
	}
	if _, ok := s.products[productID]; !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	ids := s.wishlists[userID]
	idx := slices.Index(ids, productID)
	status := "added"
	switch {
	case add && idx < 0:
		s.wishlists[userID] = append(ids, productID)
	case !add && idx >= 0:
		s.wishlists[userID] = slices.Delete(slices.Clone(ids), idx, idx+1)
		status = "removed"
	case !add:
		status = "removed"
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.products[chi.URLParam(r, "productID")]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"statusCode": status, "message": msg})
}
