// Package client sends GraphQL requests to a store's Admin API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/aidanlsb/shopctl/internal/gql"
	"github.com/aidanlsb/shopctl/internal/value"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// AccessTokenHeader carries the Admin API access token.
	AccessTokenHeader = "X-Shopify-Access-Token"

	defaultTimeout = 60 * time.Second
)

// Client posts GraphQL documents to one endpoint.
type Client struct {
	Endpoint   string
	Token      string
	UserAgent  string
	HTTPClient *http.Client
}

// New returns a client for endpoint authenticated with token.
func New(endpoint, token string) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &MissingTokenError{Endpoint: endpoint}
	}
	return &Client{
		Endpoint:   endpoint,
		Token:      token,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Response is a decoded GraphQL response.
type Response struct {
	Data       value.Value
	Errors     []GraphQLError
	Extensions value.Value

	// Body is the response exactly as received.
	Body []byte

	Duration time.Duration
}

// GraphQLError is one entry of a response's top-level errors list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// ErrorCode returns extensions.code, if any.
func (e GraphQLError) ErrorCode() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

type envelope struct {
	Data       jsoniter.RawMessage `json:"data"`
	Errors     []GraphQLError      `json:"errors"`
	Extensions jsoniter.RawMessage `json:"extensions"`
}

// Do sends req once. Throttled requests fail like any other; their errors
// say so. Top-level errors are returned as *GraphQLErrors alongside the
// response, since data may be partial.
func (c *Client) Do(ctx context.Context, req gql.Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.send(ctx, body)
}

func (c *Client) send(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(AccessTokenHeader, c.Token)
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Endpoint: c.Endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &RequestError{Endpoint: c.Endpoint, Status: httpResp.StatusCode, Err: err}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &RequestError{Endpoint: c.Endpoint, Status: httpResp.StatusCode, Body: snippet(raw)}
	}

	resp, err := Decode(raw)
	if err != nil {
		return nil, &RequestError{Endpoint: c.Endpoint, Status: httpResp.StatusCode, Err: err}
	}
	resp.Duration = time.Since(start)

	if len(resp.Errors) > 0 {
		return resp, &GraphQLErrors{Errors: resp.Errors}
	}
	return resp, nil
}

// Decode parses a GraphQL response body. Data keeps the server's field
// order.
func Decode(raw []byte) (*Response, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	resp := &Response{Errors: env.Errors, Body: raw}
	if len(env.Data) > 0 {
		data, err := value.Parse(env.Data)
		if err != nil {
			return nil, fmt.Errorf("decode response data: %w", err)
		}
		resp.Data = data
	}
	if len(env.Extensions) > 0 {
		ext, err := value.Parse(env.Extensions)
		if err != nil {
			return nil, fmt.Errorf("decode response extensions: %w", err)
		}
		resp.Extensions = ext
	}
	return resp, nil
}

func snippet(body []byte) string {
	const max = 512
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
