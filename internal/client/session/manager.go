// Package session owns the authenticated identity of the client.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/freshcart/internal/client/credentials"
	"github.com/dmitrijs2005/freshcart/internal/client/models"
	"github.com/dmitrijs2005/freshcart/internal/client/nav"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/dmitrijs2005/freshcart/internal/logging"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// API is the part of the backend client the session needs. Profile must be
// routed through the refresh-coordinating transport.
type API interface {
	Login(ctx context.Context, email, password string) (models.TokenPair, error)
	Profile(ctx context.Context) (models.Profile, error)
}

type CredentialStore interface {
	Read(ctx context.Context) (credentials.Credentials, bool)
	Save(ctx context.Context, c credentials.Credentials) error
	Clear(ctx context.Context) error
}

type Options struct {
	HomePath  string
	LoginPath string
}

// Listener is notified after every status transition.
type Listener func(ctx context.Context, status Status)

type Manager struct {
	api    API
	store  CredentialStore
	nav    nav.Navigator
	opts   Options
	logger logging.Logger

	mu        sync.RWMutex
	status    Status
	user      *models.Profile
	listeners []Listener
}

func NewManager(api API, store CredentialStore, navigator nav.Navigator, opts Options, logger logging.Logger) *Manager {
	return &Manager{
		api:    api,
		store:  store,
		nav:    navigator,
		opts:   opts,
		logger: logger.With("component", "session"),
		status: StatusUnknown,
	}
}

// OnChange registers l for status transitions.
func (m *Manager) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// User returns the cached profile of an authenticated session.
func (m *Manager) User() (models.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return models.Profile{}, false
	}
	return *m.user, true
}

// Restore settles the startup session. A stored credential whose profile
// cannot be fetched is cleared.
func (m *Manager) Restore(ctx context.Context) Status {
	if _, ok := m.store.Read(ctx); !ok {
		m.transition(ctx, StatusAnonymous, nil)
		return StatusAnonymous
	}

	p, err := m.api.Profile(ctx)
	if err != nil {
		m.logger.Warn(ctx, "session restore failed", "error", err)
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Error(ctx, "clearing credentials failed", "error", err)
		}
		m.transition(ctx, StatusAnonymous, nil)
		return StatusAnonymous
	}

	m.transition(ctx, StatusAuthenticated, &p)
	return StatusAuthenticated
}

// Login stores accessToken and fetches the profile. A profile failure is
// returned to the caller and leaves the stored token in place.
func (m *Manager) Login(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("%w: empty access token", common.ErrValidation)
	}
	if err := m.store.Save(ctx, credentials.Credentials{AccessToken: accessToken}); err != nil {
		return err
	}
	return m.establish(ctx)
}

// SignIn performs the full password login and stores the whole credential set.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	pair, err := m.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	err = m.store.Save(ctx, credentials.Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Role:         pair.Role,
	})
	if err != nil {
		return err
	}

	return m.establish(ctx)
}

func (m *Manager) establish(ctx context.Context) error {
	p, err := m.api.Profile(ctx)
	if err != nil {
		return fmt.Errorf("fetching profile: %w", err)
	}

	m.transition(ctx, StatusAuthenticated, &p)
	m.nav.Navigate(m.opts.HomePath)
	return nil
}

// Logout clears credentials and sends the navigator to the login page. The
// session is anonymous afterwards even if clearing storage failed.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.Clear(ctx)

	m.transition(ctx, StatusAnonymous, nil)
	m.nav.Navigate(m.opts.LoginPath)

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Expire settles an authenticated session to anonymous after its
// credentials were dropped elsewhere. It does not navigate.
func (m *Manager) Expire(ctx context.Context) {
	if m.Status() != StatusAuthenticated {
		return
	}
	m.logger.Warn(ctx, "session expired")
	m.transition(ctx, StatusAnonymous, nil)
}

func (m *Manager) transition(ctx context.Context, status Status, user *models.Profile) {
	m.mu.Lock()
	prev := m.status
	m.status = status
	m.user = user
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	m.logger.Info(ctx, "session transition", "from", prev.String(), "to", status.String())

	for _, l := range listeners {
		l(ctx, status)
	}
}
