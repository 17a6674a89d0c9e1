package backendtest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errStaleToken = errors.New("stale token generation")

// generateToken signs an HS256 access token. The jti carries the key
// generation so ExpireAccessTokens can invalidate everything issued before.
func generateToken(u User, generation int64, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := common.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fmt.Sprintf("%d.%s", generation, uuid.NewString()),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken verifies signature, expiry and generation and returns the user id.
func parseToken(token string, secret []byte, minGeneration int64, now time.Time) (string, error) {
	claims := &common.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", common.ErrInvalidToken
	}

	gen, _, _ := strings.Cut(claims.ID, ".")
	n, err := strconv.ParseInt(gen, 10, 64)
	if err != nil || n < minGeneration {
		return "", errStaleToken
	}

	return claims.UserID, nil
}
