package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/lyceum-io/lyceum/internal/profile"
)

// Client talks to the Lyceum backend HTTP API. Responses are treated as
// untrusted input; chat payloads pass through the chat normalizer before use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewClient creates a backend client authenticated with the profile's bearer
// token. Requests are rate limited client-side to stay under the backend's
// per-user quota.
func NewClient(p *profile.Profile) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(p.ServerURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid server url %q", p.ServerURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("invalid server url %q", p.ServerURL)
	}

	httpClient := &http.Client{}
	if p.AccessToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.AccessToken, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), src)
	}
	httpClient.Timeout = p.RequestTimeout

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		// 10 requests per second, with burst of 20
		limiter: rate.NewLimiter(rate.Every(time.Second/10), 20),
		timeout: p.RequestTimeout,
	}, nil
}

// envelope is the `{"data": {...}}` wrapper used by the session endpoints.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// do issues one JSON request and decodes the response body into out when out
// is non-nil. Non-2xx statuses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter interrupted")
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "failed to decode response body")
	}
	return nil
}

// unwrapData decodes the `data` envelope field into out.
func unwrapData(env *envelope, out any) error {
	if len(env.Data) == 0 {
		return errors.New("response has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "failed to decode data envelope")
	}
	return nil
}
