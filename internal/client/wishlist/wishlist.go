// Package wishlist mirrors the signed-in user's wishlist with optimistic
// toggles.
//
// A toggle is applied locally before the backend confirms it. If the backend
// rejects it, the local state rolls back to the snapshot taken just before
// the toggle, or, when another mutation happened in between, only the
// toggled product is reverted.
package wishlist

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/freshcart/internal/client/models"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/dmitrijs2005/freshcart/internal/logging"
)

// loadLimit fetches the whole wishlist in one page.
const loadLimit = 10000

type API interface {
	Wishlist(ctx context.Context, page, limit int) ([]models.Product, error)
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
}

type Credentials interface {
	HasCredentials(ctx context.Context) bool
}

// ToggleResult describes a finished toggle. Added is the membership the
// toggle aimed for; RolledBack is set when the backend rejected it and the
// local change was undone.
type ToggleResult struct {
	ProductID  string
	Added      bool
	RolledBack bool
}

type Store struct {
	api    API
	creds  Credentials
	logger logging.Logger

	mu      sync.Mutex
	items   []models.Product
	version uint64
	// resets counts Reset calls; a toggle that fails after a reset leaves
	// the new state alone.
	resets  uint64
	loading bool
}

func New(api API, creds Credentials, logger logging.Logger) *Store {
	return &Store{api: api, creds: creds, logger: logger.With("component", "wishlist")}
}

// Load replaces local state with the remote wishlist. Without a credential
// the wishlist is emptied and no request is made.
func (s *Store) Load(ctx context.Context) error {
	if !s.creds.HasCredentials(ctx) {
		s.Reset()
		return nil
	}

	s.mu.Lock()
	s.loading = true
	resets := s.resets
	s.mu.Unlock()

	items, err := s.api.Wishlist(ctx, 1, loadLimit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resets != resets {
		return nil
	}
	s.loading = false
	if err != nil {
		s.logger.Warn(ctx, "wishlist load failed", "error", err)
		return fmt.Errorf("loading wishlist: %w", err)
	}

	s.items = dedupe(items)
	s.version++
	return nil
}

// Toggle adds product if absent and removes it if present.
func (s *Store) Toggle(ctx context.Context, p models.Product) (ToggleResult, error) {
	if !s.creds.HasCredentials(ctx) {
		return ToggleResult{}, common.ErrAuthRequired
	}
	id := p.Key()
	if id == "" {
		return ToggleResult{}, fmt.Errorf("%w: product without id", common.ErrValidation)
	}

	s.mu.Lock()
	snapshot := slices.Clone(s.items)
	pos := s.index(id)
	existed := pos >= 0
	if existed {
		s.items = slices.Delete(slices.Clone(s.items), pos, pos+1)
	} else {
		s.items = append(slices.Clone(s.items), p)
	}
	s.version++
	applied, resets := s.version, s.resets
	s.mu.Unlock()

	var err error
	if existed {
		err = s.api.RemoveFromWishlist(ctx, id)
	} else {
		err = s.api.AddToWishlist(ctx, id)
	}

	res := ToggleResult{ProductID: id, Added: !existed}
	if err == nil {
		return res, nil
	}

	s.mu.Lock()
	switch {
	case s.resets != resets:
	case s.version == applied:
		s.items = snapshot
	default:
		s.revert(p, existed, pos)
	}
	s.version++
	s.mu.Unlock()

	s.logger.Warn(ctx, "wishlist toggle rolled back", "product_id", id, "error", err)
	res.RolledBack = true
	return res, fmt.Errorf("toggling wishlist: %w", err)
}

// revert undoes a single toggle of p without touching other products.
func (s *Store) revert(p models.Product, existed bool, pos int) {
	i := s.index(p.Key())
	switch {
	case existed && i < 0:
		pos = min(pos, len(s.items))
		s.items = slices.Insert(slices.Clone(s.items), pos, p)
	case !existed && i >= 0:
		s.items = slices.Delete(slices.Clone(s.items), i, i+1)
	}
}

func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(id) >= 0
}

func (s *Store) Items() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Reset drops local state, e.g. after logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.loading = false
	s.version++
	s.resets++
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(p models.Product) bool { return p.Key() == id })
}

func dedupe(items []models.Product) []models.Product {
	out := make([]models.Product, 0, len(items))
	for _, p := range items {
		if p.Key() == "" || slices.ContainsFunc(out, func(o models.Product) bool { return o.Key() == p.Key() }) {
			continue
		}
		out = append(out, p)
	}
	return out
}
