// Package api contains the code required to talk to the supported imageboards:
// thread URL parsing, page fetching, media link extraction and raw file requests.
package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	defaultPageTimeout = 15 * time.Second
	defaultFileTimeout = 10 * time.Second
)

// Client is used for every request made while downloading a thread.
type Client struct {
	client  *http.Client
	agents  UserAgentProvider
	limiter *rate.Limiter

	// base replaces scheme and host of every outgoing request when set.
	base *url.URL

	pageTimeout time.Duration
	fileTimeout time.Duration
}

func DefaultClient() *Client {
	c := &Client{
		agents:      RandomUserAgent{},
		pageTimeout: defaultPageTimeout,
	}
	return c.WithTimeout(defaultFileTimeout)
}

// WithTimeout sets the connect and response header timeout of file requests.
// The body itself is not bounded here, callers enforce an idle timeout while streaming.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.fileTimeout = timeout
	c.client = &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			TLSNextProto:          map[string]func(authority string, c *tls.Conn) http.RoundTripper{},
		},
	}
	return c
}

// WithPageTimeout bounds the whole thread page fetch, body included.
func (c *Client) WithPageTimeout(timeout time.Duration) *Client {
	c.pageTimeout = timeout
	return c
}

func (c *Client) WithBaseURL(u *url.URL) *Client {
	c.base = u
	return c
}

func (c *Client) WithUserAgent(p UserAgentProvider) *Client {
	if p == nil {
		p = NoUserAgent{}
	}
	c.agents = p
	return c
}

// WithRateLimit caps outgoing requests per second. Zero or less removes the cap.
func (c *Client) WithRateLimit(rps float64) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return c
}

func (c *Client) BaseURL() *url.URL {
	return c.base
}

func (c *Client) FileTimeout() time.Duration {
	return c.fileTimeout
}

// UserAgent returns a value from the configured provider.
func (c *Client) UserAgent() string {
	return c.agents.UserAgent()
}

// GetURL issues a GET request for surl, rewriting its host when a base URL is configured.
// The caller owns the response body.
func (c *Client) GetURL(ctx context.Context, surl string) (*http.Response, error) {
	u, err := c.resolve(surl)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: surl, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	if ua := c.agents.UserAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	log.Debug().Str("url", u.String()).Msg("GET")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: surl, Err: err}
	}

	return res, nil
}

func (c *Client) resolve(surl string) (*url.URL, error) {
	u, err := url.Parse(surl)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if c.base != nil {
		u.Scheme = c.base.Scheme
		u.Host = c.base.Host
	}
	return u, nil
}
