// Package client is a Go client for the /api/ui-components endpoints.
//
// Reads go through an in-process query cache keyed the same way the web
// hooks key theirs: ["ui-components"] for the unfiltered list,
// ["ui-components", id] and ["ui-components", "name", name] for single
// descriptors. Writes invalidate the list key and the affected descriptor.
package client

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hearthstay/server/pkg/config"
	"github.com/hearthstay/server/pkg/logger"
	jsoniter "github.com/json-iterator/go"
)

const userAgent = "hearthctl/0.1.0"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a Client
type Options struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	StaleFor time.Duration // how long cached queries are served; 0 disables the cache
}

// Client talks to one API server
type Client struct {
	http    *resty.Client
	queries *QueryCache
}

// New creates a client for opts.BaseURL
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("User-Agent", userAgent)
	httpClient.JSONMarshal = jsonAPI.Marshal
	httpClient.JSONUnmarshal = jsonAPI.Unmarshal
	if opts.Token != "" {
		httpClient.SetAuthToken(opts.Token)
	}

	httpClient.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		return nil
	})
	httpClient.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response", "status", resp.StatusCode(), "request_id", resp.Header().Get("X-Request-ID"))
		return nil
	})

	return &Client{
		http:    httpClient,
		queries: NewQueryCache(opts.StaleFor),
	}
}

// FromConfig builds a client from the CLI configuration
func FromConfig() *Client {
	return New(Options{
		BaseURL:  config.GetString("api.base_url"),
		Token:    config.GetString("api.token"),
		Timeout:  time.Duration(config.GetInt("api.timeout")) * time.Second,
		StaleFor: time.Duration(config.GetInt("api.stale_seconds")) * time.Second,
	})
}

// SetAuthToken replaces the bearer token sent with every request
func (c *Client) SetAuthToken(token string) {
	if token == "" {
		c.http.Token = ""
		return
	}
	c.http.SetAuthToken(token)
}

// Queries exposes the query cache
func (c *Client) Queries() *QueryCache {
	return c.queries
}

// check turns a transport error or non-2xx response into an error
func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return ParseError(resp)
	}
	return nil
}
