// Package credentials is the single owner of authentication artifacts.
//
// Tokens live in two mediums: the durable key-value store, which the client
// logic reads, and a cookie jar scoped to the backend, which mirrors the
// access token and role for server-side request inspection. No other
// package writes either medium's auth keys.
package credentials

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/freshcart/internal/client/storage"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/dmitrijs2005/freshcart/internal/logging"
	"golang.org/x/net/publicsuffix"
)

// Credentials is the credential set. Empty fields mean "absent".
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

type Store struct {
	mu     sync.RWMutex
	kv     storage.Store
	jar    http.CookieJar
	site   *url.URL
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

// NewJar returns a cookie jar that applies public-suffix domain rules.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewStore binds the store to a durable store and a cookie jar whose
// cookies are scoped to site. Cookie copies expire after ttl.
func NewStore(kv storage.Store, jar http.CookieJar, site *url.URL, ttl time.Duration, logger logging.Logger) *Store {
	return &Store{
		kv:     kv,
		jar:    jar,
		site:   site,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("component", "credentials"),
	}
}

// Save writes the access token unconditionally. RefreshToken and Role are
// written only when non-empty, so a renewal that does not rotate the
// refresh token keeps the stored one. A missing Role is taken from the
// token's role claim when it has one.
func (s *Store) Save(ctx context.Context, c Credentials) error {
	if c.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", common.ErrValidation)
	}

	role := c.Role
	if role == "" {
		if claims, err := common.ParseClaims(c.AccessToken); err == nil {
			role = claims.Role
		}
	}

	values := map[string]string{common.AccessTokenKey: c.AccessToken}
	if c.RefreshToken != "" {
		values[common.RefreshTokenKey] = c.RefreshToken
	}
	if role != "" {
		values[common.RoleKey] = role
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.SetMany(ctx, values); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	expires := s.now().Add(s.ttl)
	cookies := []*http.Cookie{{Name: common.TokenCookieName, Value: c.AccessToken, Path: "/", Expires: expires}}
	if role != "" {
		cookies = append(cookies, &http.Cookie{Name: common.RoleCookieName, Value: role, Path: "/", Expires: expires})
	}
	s.jar.SetCookies(s.site, cookies)

	return nil
}

// Read returns the stored credential set and whether an access token exists.
// It never fails: storage errors are logged and read as absence. The durable
// copy of the access token wins over the cookie copy.
func (s *Store) Read(ctx context.Context) (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Credentials{
		AccessToken:  s.get(ctx, common.AccessTokenKey),
		RefreshToken: s.get(ctx, common.RefreshTokenKey),
		Role:         s.get(ctx, common.RoleKey),
	}

	if c.AccessToken == "" || c.Role == "" {
		cookies := s.cookies()
		if c.AccessToken == "" {
			c.AccessToken = cookies[common.TokenCookieName]
		}
		if c.Role == "" {
			c.Role = cookies[common.RoleCookieName]
		}
	}

	return c, c.AccessToken != ""
}

// AccessToken is a shortcut for the access token of Read.
func (s *Store) AccessToken(ctx context.Context) string {
	c, _ := s.Read(ctx)
	return c.AccessToken
}

// HasCredentials reports whether an access token is stored.
func (s *Store) HasCredentials(ctx context.Context) bool {
	_, ok := s.Read(ctx)
	return ok
}

// Clear erases the access token, refresh token and role from the durable
// store and expires the token and role cookies. Readers block until both
// mediums are cleared.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Delete(ctx, common.AccessTokenKey, common.RefreshTokenKey, common.RoleKey)

	s.jar.SetCookies(s.site, []*http.Cookie{
		{Name: common.TokenCookieName, Path: "/", MaxAge: -1},
		{Name: common.RoleCookieName, Path: "/", MaxAge: -1},
	})

	if err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) string {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "credential read failed", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (s *Store) cookies() map[string]string {
	out := make(map[string]string)
	for _, c := range s.jar.Cookies(s.site) {
		out[c.Name] = c.Value
	}
	return out
}
