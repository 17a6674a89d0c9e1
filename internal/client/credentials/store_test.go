package credentials

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/freshcart/internal/client/storage"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/dmitrijs2005/freshcart/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var site = &url.URL{Scheme: "http", Host: "shop.example.com", Path: "/"}

func setup(t *testing.T) (*Store, *storage.SQLiteStore, http.CookieJar) {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	kv := storage.NewSQLiteStore(db)
	jar, err := NewJar()
	require.NoError(t, err)

	return NewStore(kv, jar, site, 24*time.Hour, logging.Nop()), kv, jar
}

func cookieMap(jar http.CookieJar) map[string]string {
	m := map[string]string{}
	for _, c := range jar.Cookies(site) {
		m[c.Name] = c.Value
	}
	return m
}

func TestSave_WritesBothMediums(t *testing.T) {
	s, kv, jar := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Credentials{AccessToken: "A1", RefreshToken: "R1", Role: "Customer"}))

	c, ok := s.Read(ctx)
	require.True(t, ok)
	require.Equal(t, Credentials{AccessToken: "A1", RefreshToken: "R1", Role: "Customer"}, c)

	v, _, _ := kv.Get(ctx, common.RefreshTokenKey)
	require.Equal(t, "R1", v)

	cookies := cookieMap(jar)
	require.Equal(t, "A1", cookies[common.TokenCookieName])
	require.Equal(t, "Customer", cookies[common.RoleCookieName])
	_, leaked := cookies[common.RefreshTokenKey]
	require.False(t, leaked, "refresh token must never reach the cookie jar")
}

func TestSave_PartialKeepsUnspecifiedFields(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Credentials{AccessToken: "A1", RefreshToken: "R1", Role: "Customer"}))
	require.NoError(t, s.Save(ctx, Credentials{AccessToken: "A2"}))

	c, ok := s.Read(ctx)
	require.True(t, ok)
	require.Equal(t, "A2", c.AccessToken)
	require.Equal(t, "R1", c.RefreshToken)
	require.Equal(t, "Customer", c.Role)
}

func TestSave_RoleFromTokenClaim(t *testing.T) {
	s, _, jar := setup(t)
	ctx := context.Background()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, common.TokenClaims{Role: "Staff"}).SignedString([]byte("k"))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, Credentials{AccessToken: tok}))

	c, _ := s.Read(ctx)
	require.Equal(t, "Staff", c.Role)
	require.Equal(t, "Staff", cookieMap(jar)[common.RoleCookieName])
}

func TestSave_RejectsEmptyAccessToken(t *testing.T) {
	s, _, _ := setup(t)
	err := s.Save(context.Background(), Credentials{RefreshToken: "R"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestRead_Empty(t *testing.T) {
	s, _, _ := setup(t)
	c, ok := s.Read(context.Background())
	require.False(t, ok)
	require.Equal(t, Credentials{}, c)
	require.False(t, s.HasCredentials(context.Background()))
}

func TestRead_FallsBackToCookie(t *testing.T) {
	s, kv, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Credentials{AccessToken: "A1", Role: "Customer"}))
	require.NoError(t, kv.Delete(ctx, common.AccessTokenKey, common.RoleKey))

	c, ok := s.Read(ctx)
	require.True(t, ok)
	require.Equal(t, "A1", c.AccessToken)
	require.Equal(t, "Customer", c.Role)
}

func TestRead_PrefersDurableCopy(t *testing.T) {
	s, kv, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Credentials{AccessToken: "cookie-and-durable"}))
	require.NoError(t, kv.Set(ctx, common.AccessTokenKey, "durable-only"))

	require.Equal(t, "durable-only", s.AccessToken(ctx))
}

func TestClear_ErasesEverything(t *testing.T) {
	s, kv, jar := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Credentials{AccessToken: "A1", RefreshToken: "R1", Role: "Customer"}))
	require.NoError(t, s.Clear(ctx))

	_, ok := s.Read(ctx)
	require.False(t, ok)
	for _, k := range []string{common.AccessTokenKey, common.RefreshTokenKey, common.RoleKey} {
		_, present, err := kv.Get(ctx, k)
		require.NoError(t, err)
		require.False(t, present, k)
	}
	require.Empty(t, cookieMap(jar))
}

type brokenKV struct{ storage.Store }

func (brokenKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (brokenKV) Delete(context.Context, ...string) error { return errors.New("disk on fire") }

func TestRead_StorageErrorIsAbsence(t *testing.T) {
	jar, err := NewJar()
	require.NoError(t, err)
	s := NewStore(brokenKV{}, jar, site, time.Hour, logging.Nop())

	c, ok := s.Read(context.Background())
	require.False(t, ok)
	require.Empty(t, c.AccessToken)
}

func TestClear_StorageErrorStillExpiresCookies(t *testing.T) {
	jar, err := NewJar()
	require.NoError(t, err)
	jar.SetCookies(site, []*http.Cookie{{Name: common.TokenCookieName, Value: "A", Path: "/"}})
	s := NewStore(brokenKV{}, jar, site, time.Hour, logging.Nop())

	require.Error(t, s.Clear(context.Background()))
	require.Empty(t, cookieMap(jar))
}
