// Package cart is the locally persisted shopping cart.
//
// The cart lives in memory and is mirrored to the durable key-value store
// under a fixed key after every mutation. It is independent of the session
// and survives logout. Writes are suppressed until Load has read the durable
// copy, so an empty in-memory cart never overwrites a saved one.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/freshcart/internal/client/models"
	"github.com/dmitrijs2005/freshcart/internal/client/storage"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/dmitrijs2005/freshcart/internal/logging"
	"github.com/shopspring/decimal"
)

type Direction int

const (
	Increment Direction = iota + 1
	Decrement
)

type Store struct {
	kv     storage.Store
	key    string
	logger logging.Logger

	mu     sync.Mutex
	items  []models.LineItem
	loaded bool
}

func New(kv storage.Store, logger logging.Logger) *Store {
	return &Store{
		kv:     kv,
		key:    common.CartStorageKey,
		logger: logger.With("component", "cart"),
	}
}

// Load reads the durable copy. A valid copy replaces the in-memory items; a
// missing or corrupt one keeps them, and a corrupt one is deleted. After
// Load returns nil, mutations are persisted. A storage read error leaves the
// cart unloaded.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("loading cart: %w", err)
	}

	if ok {
		var items []models.LineItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			s.logger.Warn(ctx, "discarding corrupt cart", "error", err)
			if err := s.kv.Delete(ctx, s.key); err != nil {
				s.logger.Error(ctx, "deleting corrupt cart failed", "error", err)
			}
		} else {
			s.items = normalize(items)
		}
	}

	s.loaded = true
	return s.persist(ctx)
}

// Loaded reports whether the durable copy has been read.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Add merges quantity of product into the cart.
func (s *Store) Add(ctx context.Context, p models.Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity %d must be at least 1", common.ErrValidation, quantity)
	}
	item := models.NewLineItem(p, quantity)
	if item.ID == "" {
		return fmt.Errorf("%w: product without id", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(item.ID); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, item)
	}
	return s.persist(ctx)
}

// Remove deletes the line item with id. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil
	}
	s.items = slices.Delete(s.items, i, i+1)
	return s.persist(ctx)
}

// Adjust changes the quantity of id by one. Quantity never drops below 1.
func (s *Store) Adjust(ctx context.Context, id string, dir Direction) error {
	if dir != Increment && dir != Decrement {
		return fmt.Errorf("%w: unknown direction %d", common.ErrValidation, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil
	}
	if dir == Increment {
		s.items[i].Quantity++
	} else {
		s.items[i].Quantity = max(1, s.items[i].Quantity-1)
	}
	return s.persist(ctx)
}

// Clear empties the cart and deletes the durable copy.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(it models.LineItem) bool { return it.ID == id })
}

// persist writes the whole cart. Called with mu held so writes land in
// mutation order.
func (s *Store) persist(ctx context.Context) error {
	if !s.loaded {
		return nil
	}

	items := s.items
	if items == nil {
		items = []models.LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}

// normalize enforces one row per id and quantity >= 1 on persisted data.
func normalize(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		it.Quantity = max(1, it.Quantity)
		if i := slices.IndexFunc(out, func(o models.LineItem) bool { return o.ID == it.ID }); i >= 0 {
			out[i].Quantity += it.Quantity
			continue
		}
		out = append(out, it)
	}
	return out
}
