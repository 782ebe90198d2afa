package servicelayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/seedandbeyond/snb-harvest/internal/config"
	"github.com/seedandbeyond/snb-harvest/internal/infra/metrics"
)

// Client talks to the SAP B1 Service Layer. One client serves one
// authenticated operator; the token is set after login and is not
// guarded by a lock (single logical thread of control).
type Client struct {
	cfg   config.Config
	log   *slog.Logger
	http  *http.Client
	batch *http.Client
	token string
}

func New(cfg config.Config, log *slog.Logger) *Client {
	return &Client{
		cfg:   cfg,
		log:   log,
		http:  &http.Client{Timeout: cfg.API.Timeout},
		batch: &http.Client{Timeout: cfg.API.BatchTimeout},
	}
}

func (c *Client) SetToken(token string) { c.token = token }
func (c *Client) Token() string         { return c.token }

// URL builds the absolute address for a relative Service Layer endpoint.
func (c *Client) URL(endpoint string) string {
	return c.cfg.URL(endpoint)
}

// QueryURL builds an endpoint address with an encoded OData query.
func (c *Client) QueryURL(endpoint string, q url.Values) string {
	return c.cfg.URL(endpoint) + "?" + q.Encode()
}

// Response is a raw Service Layer reply. Non-2xx statuses are returned
// here rather than as errors; callers decide what is fatal.
type Response struct {
	Status int
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// RemoteError is a non-success HTTP reply from a required call.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("service layer returned status %d", e.Status)
}

// Message digs the human-readable message out of the error body. The
// Service Layer is not consistent here, so this is best-effort; an empty
// string means the body carried nothing parseable and the caller picks
// its own fallback.
func (e *RemoteError) Message() string {
	var top struct {
		Message string `json:"Message"`
		Error   struct {
			Message struct {
				Value string `json:"value"`
			} `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &top); err == nil {
		if top.Message != "" {
			return top.Message
		}
		if top.Error.Message.Value != "" {
			return top.Error.Message.Value
		}
	}
	return ""
}

func (c *Client) Get(ctx context.Context, fullURL string) (*Response, error) {
	return c.do(ctx, http.MethodGet, fullURL, nil)
}

func (c *Client) Post(ctx context.Context, fullURL string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, fullURL, body)
}

func (c *Client) Patch(ctx context.Context, fullURL string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, fullURL, body)
}

func (c *Client) do(ctx context.Context, method, fullURL string, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}
	return c.doRaw(ctx, c.http, method, fullURL, "application/json", payload)
}

func (c *Client) doRaw(ctx context.Context, hc *http.Client, method, fullURL, contentType string, payload []byte) (*Response, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Basic "+c.token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		metrics.ServiceLayerRequests.WithLabelValues(method, "transport_error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, fullURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ServiceLayerRequests.WithLabelValues(method, "transport_error").Inc()
		return nil, fmt.Errorf("read body: %w", err)
	}

	out := &Response{Status: resp.StatusCode, Body: data}
	if out.OK() {
		metrics.ServiceLayerRequests.WithLabelValues(method, "ok").Inc()
	} else {
		metrics.ServiceLayerRequests.WithLabelValues(method, "http_error").Inc()
		c.log.Debug("service layer call failed",
			"method", method,
			"url", fullURL,
			"status", resp.StatusCode,
		)
	}
	return out, nil
}

// GetList fetches an OData collection and unwraps the "value" envelope.
func GetList[T any](ctx context.Context, c *Client, fullURL string) ([]T, error) {
	resp, err := c.Get(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &RemoteError{Status: resp.Status, Body: string(resp.Body)}
	}
	var envelope struct {
		Value []T `json:"value"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return envelope.Value, nil
}
