// Package client talks to the equipment API over HTTP. Every call tries the
// configured base URLs in order and sticks with the first one that answers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds connecting to an endpoint and waiting for its
// response headers. Body transfer is bounded only by the caller's context.
const DefaultProbeTimeout = 2 * time.Second

// DefaultBaseURLs are tried in order when none are configured.
var DefaultBaseURLs = []string{"http://127.0.0.1:8080", "http://127.0.0.1:8000"}

// ErrUnreachable is returned when no base URL accepted a connection.
var ErrUnreachable = errors.New("could not connect to backend")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type UploadResult struct {
	TotalCount       int            `json:"total_count"`
	AvgFlowrate      float64        `json:"avg_flowrate"`
	AvgPressure      float64        `json:"avg_pressure"`
	AvgTemperature   float64        `json:"avg_temperature"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

type HistoryItem struct {
	FileName       string    `json:"file_name"`
	UploadedAt     time.Time `json:"uploaded_at"`
	TotalEquipment int       `json:"total_equipment"`
	AvgFlowrate    float64   `json:"avg_flowrate"`
	AvgPressure    float64   `json:"avg_pressure"`
	AvgTemperature float64   `json:"avg_temperature"`
}

type Client struct {
	httpClient *http.Client
	username   string
	password   string

	mu    sync.Mutex
	bases []string
}

// New returns a client for the given base URLs using basic credentials.
func New(baseURLs []string, username, password string) *Client {
	if len(baseURLs) == 0 {
		baseURLs = DefaultBaseURLs
	}
	bases := make([]string, len(baseURLs))
	for i, b := range baseURLs {
		bases[i] = strings.TrimRight(b, "/")
	}
	return &Client{
		httpClient: &http.Client{Transport: newTransport(DefaultProbeTimeout)},
		username:   username,
		password:   password,
		bases:      bases,
	}
}

// WithTimeout sets the connect and response-header timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Transport = newTransport(d)
	return c
}

func newTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}

// BaseURL is the endpoint that answered most recently (or the first candidate).
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bases[0]
}

// Upload sends a CSV file from disk.
func (c *Client) Upload(ctx context.Context, path string) (*UploadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return c.UploadBytes(ctx, filepath.Base(path), content)
}

// UploadBytes sends CSV content under the given file name.
func (c *Client) UploadBytes(ctx context.Context, name string, content []byte) (*UploadResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}
	payload := body.Bytes()

	resp, err := c.do(ctx, func(base string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/upload/", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, readAPIError(resp)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

// History fetches the retained summaries, newest first.
func (c *Client) History(ctx context.Context) ([]HistoryItem, error) {
	resp, err := c.get(ctx, "/api/history/")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var items []HistoryItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return items, nil
}

// Report streams the newest PDF report into w.
func (c *Client) Report(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.get(ctx, "/api/report/")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, readAPIError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to download report: %w", err)
	}
	return n, nil
}

// Health returns the raw /health payload.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return health, &APIError{Status: resp.StatusCode, Message: fmt.Sprint(health["status"])}
	}
	return health, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, func(base string) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	})
}

// do tries each base URL until one accepts the connection. Only dial
// failures move on to the next base; HTTP error statuses and failures after
// the request was sent go back to the caller so uploads are never resent.
func (c *Client) do(ctx context.Context, build func(base string) (*http.Request, error)) (*http.Response, error) {
	c.mu.Lock()
	bases := append([]string(nil), c.bases...)
	c.mu.Unlock()

	var lastErr error
	for i, base := range bases {
		req, err := build(base)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.SetBasicAuth(c.username, c.password)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isDialError(err) {
				return nil, fmt.Errorf("request to %s failed: %w", base, err)
			}
			lastErr = err
			continue
		}

		if i > 0 {
			c.promote(base)
		}
		return resp, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUnreachable, lastErr)
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// promote moves base to the front so later calls try it first.
func (c *Client) promote(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []string{base}
	for _, b := range c.bases {
		if b != base {
			out = append(out, b)
		}
	}
	c.bases = out
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
