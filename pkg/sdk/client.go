package sdk

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
	"time"

	"github.com/kailas-cloud/ftsearch"
)

// Client talks to an ftsearch server. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	obs    *observer
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("ftsearch client: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("ftsearch client: base url must be http or https, got %q", baseURL)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	return &Client{base: base, apiKey: cfg.apiKey, http: hc, obs: obs}, nil
}

type insertRequest struct {
	Documents []ftsearch.Document `json:"documents"`
}

type insertResponse struct {
	IDs []string `json:"ids"`
}

// Insert stores docs in order and returns their ids. Documents without an
// "id" get one generated by the server.
func (c *Client) Insert(ctx context.Context, docs ...ftsearch.Document) ([]string, error) {
	start := time.Now()
	var resp insertResponse
	err := c.do(ctx, http.MethodPost, "/documents", insertRequest{Documents: docs}, &resp)
	c.obs.observe("insert", start, err)
	if err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

type batchResponse struct {
	Items []struct {
		ID     string     `json:"id"`
		Status string     `json:"status"`
		Error  *ItemError `json:"error"`
	} `json:"items"`
}

func (r batchResponse) results() []ftsearch.BatchResult {
	out := make([]ftsearch.BatchResult, len(r.Items))
	for i, it := range r.Items {
		out[i] = ftsearch.BatchResult{ID: it.ID, Status: it.Status}
		if it.Error != nil {
			out[i].Err = it.Error
		}
	}
	return out
}

// InsertBatch inserts docs independently and reports one result per
// document. The error is non-nil only when the request as a whole failed.
func (c *Client) InsertBatch(ctx context.Context, docs ...ftsearch.Document) ([]ftsearch.BatchResult, error) {
	start := time.Now()
	var resp batchResponse
	err := c.do(ctx, http.MethodPost, "/documents/batch", insertRequest{Documents: docs}, &resp)
	c.obs.observe("insert_batch", start, err)
	if err != nil {
		return nil, err
	}
	return resp.results(), nil
}

// RemoveBatch removes ids independently and reports one result per id.
func (c *Client) RemoveBatch(ctx context.Context, ids ...string) ([]ftsearch.BatchResult, error) {
	start := time.Now()
	var resp batchResponse
	err := c.do(ctx, http.MethodPost, "/documents/batch-delete", batchDeleteRequest{IDs: ids}, &resp)
	c.obs.observe("remove_batch", start, err)
	if err != nil {
		return nil, err
	}
	return resp.results(), nil
}

// Get returns the document with the given id.
func (c *Client) Get(ctx context.Context, id string) (ftsearch.Document, error) {
	start := time.Now()
	var doc ftsearch.Document
	err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil, &doc)
	c.obs.observe("get", start, err)
	return doc, err
}

// Update merges set into the document. A nil value removes the property.
func (c *Client) Update(ctx context.Context, id string, set ftsearch.Document) (ftsearch.Document, error) {
	start := time.Now()
	var doc ftsearch.Document
	err := c.do(ctx, http.MethodPatch, "/documents/"+url.PathEscape(id), set, &doc)
	c.obs.observe("update", start, err)
	return doc, err
}

// Remove deletes the document with the given id.
func (c *Client) Remove(ctx context.Context, id string) error {
	start := time.Now()
	err := c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(id), nil, nil)
	c.obs.observe("remove", start, err)
	return err
}

// Search runs params on the server. SortBy.Comparator cannot be sent and
// must be nil.
func (c *Client) Search(ctx context.Context, params ftsearch.SearchParams) (*ftsearch.Results, error) {
	if params.SortBy != nil && params.SortBy.Comparator != nil {
		return nil, fmt.Errorf("%w: comparators are not supported over HTTP", ftsearch.ErrInvalidParams)
	}
	start := time.Now()
	var res ftsearch.Results
	err := c.do(ctx, http.MethodPost, "/search", params, &res)
	c.obs.observe("search", start, err)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// PutPinRule creates or replaces a pin rule.
func (c *Client) PutPinRule(ctx context.Context, r ftsearch.PinRule) error {
	if r.ID == "" {
		return fmt.Errorf("%w: pin rule id is required", ftsearch.ErrInvalidParams)
	}
	start := time.Now()
	err := c.do(ctx, http.MethodPut, "/pin-rules/"+url.PathEscape(r.ID), r, nil)
	c.obs.observe("put_pin_rule", start, err)
	return err
}

// RemovePinRule deletes a pin rule.
func (c *Client) RemovePinRule(ctx context.Context, id string) error {
	start := time.Now()
	err := c.do(ctx, http.MethodDelete, "/pin-rules/"+url.PathEscape(id), nil, nil)
	c.obs.observe("remove_pin_rule", start, err)
	return err
}

// PinRules lists the server's pin rules.
func (c *Client) PinRules(ctx context.Context) ([]ftsearch.PinRule, error) {
	var resp struct {
		Items []ftsearch.PinRule `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/pin-rules", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Schema returns the server's declared properties.
func (c *Client) Schema(ctx context.Context) ([]ftsearch.Field, error) {
	var resp struct {
		Fields []ftsearch.Field `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "/schema", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

// Health returns the server's health report. An unhealthy server is not
// an error; check HealthReport.Healthy.
func (c *Client) Health(ctx context.Context) (ftsearch.HealthReport, error) {
	var report ftsearch.HealthReport
	err := c.do(ctx, http.MethodGet, "/health", nil, &report)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
		return report, nil
	}
	return report, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("ftsearch client: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("ftsearch client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ftsearch client: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ftsearch client: read response: %w", err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable && out != nil && len(data) > 0 {
		// health reports come back with 503
		_ = json.Unmarshal(data, out)
	}
	if resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("ftsearch client: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	apiErr := &APIError{Status: status}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Code, apiErr.Message = body.Code, body.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
