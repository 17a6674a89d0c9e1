// Package common contains shared constants and sentinel errors used across
// freshcart client components.
package common

// Durable storage keys. Values are plain strings except CartStorageKey,
// which holds a JSON-encoded array of cart line items.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
	RoleKey         = "role"
	CartStorageKey  = "freshfood_cart"
)

// Cookie names mirrored for server-side inspection of requests.
const (
	TokenCookieName = "token"
	RoleCookieName  = "role"
)

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName correlates a logical request with its replay after
// credential renewal.
const RequestIDHeaderName = "X-Request-ID"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "
