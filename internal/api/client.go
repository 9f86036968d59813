package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrSessionExpired is returned once a 401 could not be cured by a
	// token refresh; the caller must start a fresh login.
	ErrSessionExpired = errors.New("session expired")

	// ErrRoleUnresolved gates role-prefixed calls until the session knows
	// who it is.
	ErrRoleUnresolved = errors.New("user role not resolved")

	// ErrResourceForbidden means the endpoint table does not expose the
	// resource to the session's role. Callers may treat it as "skip",
	// unlike a transport failure.
	ErrResourceForbidden = errors.New("resource not available to role")
)

// TokenSource supplies and receives the session's token pair. The session
// store implements it; the client never touches persistence directly.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(access, refresh string)
	Clear()
}

// Client is the authenticated HTTP client for the Cleverdining API. It
// attaches the bearer token to every request and transparently refreshes it
// once per request on a 401.
type Client struct {
	BaseURL string
	Tokens  TokenSource
	HTTP    *http.Client
	Logger  *log.Logger
}

func NewClient(baseURL string, tokens TokenSource, lg *log.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		Tokens:  tokens,
		Logger:  lg,
		HTTP: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// APIError carries a non-2xx response body for the caller's log line.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status=%d, body=%s", e.StatusCode, e.Body)
}

// do issues the request with the current bearer token. A 401 triggers
// exactly one refresh-and-replay; a second 401 propagates as an error so a
// broken refresh can never loop.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		if err := c.refresh(ctx); err != nil {
			c.Tokens.Clear()
			return fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		resp, err = c.send(ctx, method, path, query, body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			b, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return fmt.Errorf("%w: replay rejected: %s", ErrSessionExpired, string(b))
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("bad url %s%s: %w", c.BaseURL, path, err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Tokens.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	return c.HTTP.Do(req)
}

// refresh swaps the refresh token for a new access token. It deliberately
// bypasses do() so its own 401 cannot recurse into another refresh.
func (c *Client) refresh(ctx context.Context) error {
	rt := c.Tokens.RefreshToken()
	if rt == "" {
		return errors.New("no refresh token")
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/token/refresh/", nil, map[string]string{"refresh": rt})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("refresh status=%d, body=%s", resp.StatusCode, string(b))
	}

	var body struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if body.Refresh == "" {
		body.Refresh = rt
	}
	c.Tokens.SetTokens(body.Access, body.Refresh)
	c.Logger.Printf("🔑 Access token refreshed")
	return nil
}

// pageEnvelope is the {count, results} wrapper every paginated list uses.
type pageEnvelope[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// Page is a decoded slice of a paginated resource.
type Page[T any] struct {
	Count   int
	Page    int
	Results []T
}

// fetchPage GETs one page of a paginated resource with the upstream
// ?page=&search= convention. Page numbers start at 1; zero means "first".
func fetchPage[T any](ctx context.Context, c *Client, path string, page int, search string) (Page[T], error) {
	if page <= 0 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if search != "" {
		q.Set("search", search)
	}

	var env pageEnvelope[T]
	if err := c.do(ctx, http.MethodGet, path, q, nil, &env); err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Count: env.Count, Page: page, Results: env.Results}, nil
}
