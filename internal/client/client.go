// Package client is a Go client for the user-info HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"userinfo-service/internal/models"
	"userinfo-service/internal/resilience"
)

// APIError is an {"Error": ...} reply. The server may send it with a 200
// status, so callers cannot rely on the status code alone.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// IsUnknownUser reports whether err is the server's unknown user reply.
func IsUnknownUser(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Message == models.MsgInvalidUserID
}

type Client struct {
	baseURL  string
	client   *http.Client
	attempts int
	delay    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 5 * time.Second},
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetchJSON retries transport failures and 5xx replies. API errors are
// returned straight away.
func (c *Client) fetchJSON(ctx context.Context, path string, query url.Values, target any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var apiErr *APIError
	err := resilience.Retry(ctx, c.attempts, c.delay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error: %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var errBody models.ErrorResponse
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			apiErr = &APIError{Status: resp.StatusCode, Message: errBody.Error}
			return nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr = &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			return nil
		}
		return json.Unmarshal(data, target)
	})
	if err != nil {
		return err
	}
	if apiErr != nil {
		return apiErr
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	q := url.Values{"id": {strconv.Itoa(id)}}
	if err := c.fetchJSON(ctx, "/user", q, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Greet(ctx context.Context) (string, error) {
	var resp models.GreetResponse
	if err := c.fetchJSON(ctx, "/greet", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Time returns the server's clock as a time in loc.
func (c *Client) Time(ctx context.Context, loc *time.Location) (time.Time, error) {
	var resp models.TimeResponse
	if err := c.fetchJSON(ctx, "/time", nil, &resp); err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(models.TimeLayout, resp.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse server time %q: %w", resp.Time, err)
	}
	return t, nil
}
