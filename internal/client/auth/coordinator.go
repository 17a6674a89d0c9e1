// Package auth attaches bearer credentials to outbound requests and
// recovers from authentication failures by renewing the access token.
//
// Coordinator is an http.RoundTripper. On a 401 it renews the credential
// once, no matter how many requests failed at the same time, and replays
// every failed request with the new token. When renewal fails the stored
// credentials are cleared and, unless the user is on a public view, the
// navigator is sent to the login page.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/freshcart/internal/client/credentials"
	"github.com/dmitrijs2005/freshcart/internal/client/models"
	"github.com/dmitrijs2005/freshcart/internal/client/nav"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/dmitrijs2005/freshcart/internal/logging"
	"golang.org/x/sync/singleflight"
)

const renewKey = "renew"

// Renewer exchanges a refresh token for a new token pair. It must not be
// routed through a Coordinator.
type Renewer interface {
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
}

// CredentialStore is the subset of credentials.Store the coordinator uses.
type CredentialStore interface {
	Read(ctx context.Context) (credentials.Credentials, bool)
	Save(ctx context.Context, c credentials.Credentials) error
	Clear(ctx context.Context) error
}

type Options struct {
	// PublicPaths are views where a failed renewal does not force navigation.
	PublicPaths []string
	// LoginPath is where protected views are sent after a failed renewal.
	LoginPath string
	// RenewTimeout bounds a single renewal call.
	RenewTimeout time.Duration
	// OnExpired, when set, runs once per failed renewal after the
	// credentials were cleared.
	OnExpired func(ctx context.Context)
}

type Coordinator struct {
	next    http.RoundTripper
	store   CredentialStore
	renewer Renewer
	nav     nav.Navigator
	opts    Options
	group   singleflight.Group
	logger  logging.Logger
}

func NewCoordinator(next http.RoundTripper, store CredentialStore, renewer Renewer, navigator nav.Navigator, opts Options, logger logging.Logger) *Coordinator {
	if next == nil {
		next = http.DefaultTransport
	}
	if opts.RenewTimeout <= 0 {
		opts.RenewTimeout = 10 * time.Second
	}
	return &Coordinator{
		next:    next,
		store:   store,
		renewer: renewer,
		nav:     navigator,
		opts:    opts,
		logger:  logger.With("component", "auth"),
	}
}

type retryKey struct{}

func isRetry(ctx context.Context) bool {
	v, _ := ctx.Value(retryKey{}).(bool)
	return v
}

func (c *Coordinator) RoundTrip(req *http.Request) (*http.Response, error) {
	req, err := replayable(req)
	if err != nil {
		return nil, err
	}

	creds, _ := c.store.Read(req.Context())
	sent := creds.AccessToken

	resp, err := c.next.RoundTrip(withToken(req.Context(), req, sent))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || isRetry(req.Context()) {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	ctx := context.WithValue(req.Context(), retryKey{}, true)

	token, err := c.awaitRenewal(ctx, sent)
	if err != nil {
		return nil, err
	}

	return c.replay(ctx, req, token)
}

// awaitRenewal returns a token newer than sent, renewing at most once for
// any number of concurrent callers.
func (c *Coordinator) awaitRenewal(ctx context.Context, sent string) (string, error) {
	if cur, ok := c.store.Read(ctx); ok && cur.AccessToken != sent {
		return cur.AccessToken, nil
	}

	ch := c.group.DoChan(renewKey, func() (any, error) {
		return c.renew(context.WithoutCancel(ctx), sent)
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Coordinator) renew(ctx context.Context, sent string) (string, error) {
	cur, _ := c.store.Read(ctx)
	if cur.AccessToken != "" && cur.AccessToken != sent {
		return cur.AccessToken, nil
	}

	if cur.RefreshToken == "" {
		return "", c.fail(ctx, common.ErrNoRefreshToken)
	}

	c.logger.Info(ctx, "renewing access token")

	rctx, cancel := context.WithTimeout(ctx, c.opts.RenewTimeout)
	defer cancel()

	pair, err := c.renewer.Refresh(rctx, cur.RefreshToken)
	if err != nil {
		return "", c.fail(ctx, err)
	}

	if err := c.store.Save(ctx, credentials.Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}); err != nil {
		return "", c.fail(ctx, fmt.Errorf("persisting renewed token: %w", err))
	}

	c.logger.Info(ctx, "access token renewed", "rotated", pair.RefreshToken != "")
	return pair.AccessToken, nil
}

// fail clears credentials and forces navigation away from protected views.
func (c *Coordinator) fail(ctx context.Context, cause error) error {
	c.logger.Warn(ctx, "token renewal failed", "error", cause)

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error(ctx, "clearing credentials failed", "error", err)
	}

	if loc := c.nav.Location(); !nav.IsPublic(loc, c.opts.PublicPaths) {
		c.logger.Info(ctx, "redirecting to login", "from", loc)
		c.nav.Navigate(c.opts.LoginPath)
	}

	if c.opts.OnExpired != nil {
		c.opts.OnExpired(ctx)
	}

	if errors.Is(cause, common.ErrSessionExpired) {
		return cause
	}
	return fmt.Errorf("%w: %w", common.ErrSessionExpired, cause)
}

func (c *Coordinator) replay(ctx context.Context, req *http.Request, token string) (*http.Response, error) {
	out := withToken(ctx, req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		out.Body = body
	}
	return c.next.RoundTrip(out)
}

func withToken(ctx context.Context, req *http.Request, token string) *http.Request {
	out := req.Clone(ctx)
	if token != "" {
		out.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	} else {
		out.Header.Del(common.AuthorizationHeaderName)
	}
	return out
}

// replayable makes sure the body can be sent twice.
func replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}

	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("buffering request body: %w", err)
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(b))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return out, nil
}
