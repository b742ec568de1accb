// Package api is the JSON-over-HTTP client of the library backend.
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
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/libdesk/internal/errs"
)

// Credentials supplies the bearer token and hears about rejected ones.
// The session manager implements it.
type Credentials interface {
	AccessToken() string
	Rejected(ctx context.Context)
}

// Client talks to one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	creds   Credentials
}

// New builds a client. hc may be nil; its transport is wrapped with request logging either way.
func New(baseURL string, hc *http.Client, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	if log == nil {
		log = zap.NewNop()
	}
	var c http.Client
	if hc != nil {
		c = *hc
	}
	c.Transport = NewLoggingTransport(c.Transport, log)
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &c,
		log:     log,
	}, nil
}

// SetCredentials attaches the token source used for authenticated calls.
func (c *Client) SetCredentials(creds Credentials) { c.creds = creds }

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string { return c.baseURL }

type messageBody struct {
	Message string `json:"message"`
}

// do sends in as JSON and decodes the response into out. auth adds the session's bearer token
// and reports a 401 back to the credential source.
func (c *Client) do(ctx context.Context, method, path string, auth bool, in, out any) error {
	bearer := ""
	if auth && c.creds != nil {
		bearer = c.creds.AccessToken()
	}
	err := c.send(ctx, method, path, bearer, in, out)
	var apiErr *errs.APIError
	if auth && c.creds != nil && errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		c.creds.Rejected(ctx)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", errs.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", errs.ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &errs.APIError{Status: resp.StatusCode}
		var m messageBody
		if json.Unmarshal(raw, &m) == nil {
			apiErr.Message = m.Message
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return fmt.Errorf("%w: empty body from %s", errs.ErrMalformed, path)
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrMalformed, path, err)
	}
	return nil
}

// IsTransport reports whether err means the backend was not reached.
func IsTransport(err error) bool { return errors.Is(err, errs.ErrTransport) }

func malformed(path, why string) error {
	return fmt.Errorf("%w: %s: %s", errs.ErrMalformed, path, why)
}
