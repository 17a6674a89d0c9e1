package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/freshcart/internal/client/models"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/dmitrijs2005/freshcart/internal/logging"
	"github.com/google/uuid"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  logging.Logger
}

func New(baseURL string, hc *http.Client, logger logging.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be absolute", common.ErrValidation, baseURL)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: u, http: hc, logger: logger.With("component", "api")}, nil
}

// BaseURL is the backend root; cookies are scoped to it.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type wishlistPage struct {
	Data []models.Product `json:"data"`
}

func (c *Client) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	var out models.TokenPair
	err := c.do(ctx, http.MethodPost, c.endpoint(nil, "auth", "login"), loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return models.TokenPair{}, err
	}
	if out.AccessToken == "" {
		return models.TokenPair{}, fmt.Errorf("%w: login response without access token", common.ErrRemote)
	}
	return out, nil
}

// Refresh exchanges a refresh token for a new access token. The returned
// RefreshToken is empty when the backend did not rotate it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	var out models.TokenPair
	err := c.do(ctx, http.MethodPost, c.endpoint(nil, "auth", "refresh"), refreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return models.TokenPair{}, err
	}
	if out.AccessToken == "" {
		return models.TokenPair{}, fmt.Errorf("%w: refresh response without access token", common.ErrRemote)
	}
	return out, nil
}

func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "users", "profile"), nil, &out); err != nil {
		return models.Profile{}, err
	}
	return out, nil
}

func (c *Client) Wishlist(ctx context.Context, page, limit int) ([]models.Product, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out wishlistPage
	if err := c.do(ctx, http.MethodGet, c.endpoint(q, "wishlist"), nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []models.Product{}, nil
	}
	return out.Data, nil
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodPost, c.endpoint(nil, "wishlist", productID), nil, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(nil, "wishlist", productID), nil, nil)
}

func (c *Client) Product(ctx context.Context, productID string) (models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "products", productID), nil, &out); err != nil {
		return models.Product{}, err
	}
	return out, nil
}

// endpoint joins escaped path segments onto the base URL.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.baseURL
	raw := strings.TrimSuffix(u.EscapedPath(), "/")
	for _, s := range segments {
		raw += "/" + url.PathEscape(s)
	}
	if p, err := url.PathUnescape(raw); err == nil {
		u.Path = p
	}
	u.RawPath = raw
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			return err
		}
		c.logger.Debug(ctx, "request failed", "method", method, "url", target, "request_id", reqID, "error", err)
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "request done", "method", method, "url", target, "request_id", reqID, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp.StatusCode, errorMessage(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", common.ErrRemote, err)
	}
	return nil
}

// errorMessage extracts {"message": ...} from an error body. The backend
// sends message either as a string or as a list of validation strings.
func errorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}

	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if json.Unmarshal(b, &payload) != nil || len(payload.Message) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(payload.Message, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(payload.Message, &list) == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
