package cli

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/freshcart/internal/client/cart"
	"github.com/dmitrijs2005/freshcart/internal/client/models"
)

// Product shows one catalog product and navigates to its page.
func (a *App) Product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("product <id>")
	}
	p, err := a.api.Product(ctx, args[0])
	if err != nil {
		return err
	}

	a.router.Navigate("/products/" + p.Key())
	a.say("%s", formatProduct(p, a.wishlist.Contains(p.Key())))
	return nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("add <id> [qty]")
	}
	qty := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError("add <id> [qty]")
		}
		qty = n
	}

	p, err := a.lookup(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.cart.Add(ctx, p, qty); err != nil {
		return err
	}
	a.ok("Added %d x %s to the cart.", qty, p.Name)
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("remove <id>")
	}
	return a.cart.Remove(ctx, args[0])
}

func (a *App) Inc(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("inc <id>")
	}
	return a.cart.Adjust(ctx, args[0], cart.Increment)
}

func (a *App) Dec(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("dec <id>")
	}
	return a.cart.Adjust(ctx, args[0], cart.Decrement)
}

func (a *App) Cart(ctx context.Context) error {
	items := a.cart.Items()
	if len(items) == 0 {
		a.say("Your cart is empty.")
		return nil
	}
	for _, it := range items {
		a.say("%s", formatLineItem(it))
	}
	a.say("%d item(s), total %s", a.cart.TotalItems(), a.cart.TotalPrice().StringFixed(2))
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	if err := a.cart.Clear(ctx); err != nil {
		return err
	}
	a.ok("Cart cleared.")
	return nil
}

func (a *App) Wishlist(ctx context.Context) error {
	if a.wishlist.Loading() {
		a.say("Wishlist is still loading.")
		return nil
	}
	items := a.wishlist.Items()
	if len(items) == 0 {
		a.say("Your wishlist is empty.")
		return nil
	}
	for _, p := range items {
		a.say("%s", formatProduct(p, true))
	}
	return nil
}

// Like toggles a product in the wishlist.
func (a *App) Like(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("like <id>")
	}

	p, err := a.lookup(ctx, args[0])
	if err != nil {
		return err
	}

	res, err := a.wishlist.Toggle(ctx, p)
	if err != nil {
		return err
	}
	if res.Added {
		a.ok("Added %s to the wishlist.", p.Name)
	} else {
		a.ok("Removed %s from the wishlist.", p.Name)
	}
	return nil
}

// lookup resolves a product id, preferring records already held locally.
func (a *App) lookup(ctx context.Context, id string) (models.Product, error) {
	for _, p := range a.wishlist.Items() {
		if p.Key() == id {
			return p, nil
		}
	}
	return a.api.Product(ctx, id)
}
