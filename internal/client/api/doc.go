// Package api is the REST client for the freshcart backend.
//
// # Overview
//
// Client speaks JSON over the *http.Client it is given. It does not attach
// credentials itself: the authenticated client is built on top of the
// refresh-coordinating transport from package auth, while the renewal
// client uses a plain transport so renewal never recurses into itself.
//
// Endpoints:
//
//	POST   /auth/login              Login
//	POST   /auth/refresh            Refresh
//	GET    /users/profile           Profile
//	GET    /wishlist?page&limit     Wishlist
//	POST   /wishlist/{productId}    AddToWishlist
//	DELETE /wishlist/{productId}    RemoveFromWishlist
//	GET    /products/{productId}    Product
//
// # Error Handling
//
// Non-2xx responses become *StatusError values that unwrap to the sentinel
// errors of package common (ErrUnauthorized, ErrNotFound, ErrValidation,
// ErrRemote). Requests that never produced a response wrap
// common.ErrUnavailable. A renewal failure reported by the transport keeps
// its common.ErrSessionExpired identity.
//
// Each call carries a fresh X-Request-ID header for log correlation.
package api
