package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	TokenLogin(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Goto(ctx context.Context, args []string) error
	Product(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Inc(ctx context.Context, args []string) error
	Dec(ctx context.Context, args []string) error
	Cart(ctx context.Context) error
	Clear(ctx context.Context) error
	Wishlist(ctx context.Context) error
	Like(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the freshcart CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// Errors returned by handlers are printed and the loop continues. The loop
// exits on scanner EOF or when the user types "exit" or "quit".
//
// Commands:
//
//	help                  — show available commands
//	login [email]         — sign in (password is prompted)
//	token <access-token>  — sign in with an existing access token
//	logout                — sign out
//	whoami                — show the signed-in user
//	goto <path>           — change the current view
//	product <id>          — show a product
//	add <id> [qty]        — add to cart
//	remove <id>           — remove from cart
//	inc <id> | dec <id>   — change quantity by one
//	cart                  — show the cart
//	clear                 — empty the cart
//	wishlist              — show the wishlist
//	like <id>             — toggle a product in the wishlist
//	exit | quit           — leave the program
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("freshcart %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, logout, goto, product, add, remove, inc, dec, cart, clear, wishlist, like, exit")
			} else {
				printlnFn("Available commands: login, token, goto, product, add, remove, inc, dec, cart, clear, exit")
			}

		case "login":
			err = a.Login(ctx, args)
		case "token":
			err = a.TokenLogin(ctx, args)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "goto":
			err = a.Goto(ctx, args)
		case "product":
			err = a.Product(ctx, args)
		case "add":
			err = a.Add(ctx, args)
		case "remove":
			err = a.Remove(ctx, args)
		case "inc":
			err = a.Inc(ctx, args)
		case "dec":
			err = a.Dec(ctx, args)
		case "cart":
			err = a.Cart(ctx)
		case "clear":
			err = a.Clear(ctx)
		case "wishlist":
			err = a.Wishlist(ctx)
		case "like":
			err = a.Like(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(describeError(err))
		}
	}
}
