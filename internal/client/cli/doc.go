// Package cli provides the interactive freshcart command-line client.
//
// App is the composition root: it opens the local database, builds the
// credential store, the refresh-coordinating HTTP transport, the session
// manager and the cart and wishlist stores exactly once, and hands them to
// the REPL. Startup restores the session, loads the cart from disk and,
// when signed in, loads the wishlist.
//
// Commands:
//   - Session: login, token, logout, whoami
//   - Navigation: goto, product
//   - Cart: add, remove, inc, dec, cart, clear
//   - Wishlist: wishlist, like
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
