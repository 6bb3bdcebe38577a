// Package kbclient is the typed HTTP client for the knowledge-base backend.
// There is one method per backend endpoint.
package kbclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kb-dashboard/backend/internal/metrics"
	"github.com/kb-dashboard/backend/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultReadTimeout bounds the stats and graph reads.
	DefaultReadTimeout = 15 * time.Second

	// DefaultUploadTimeout bounds a single upload submission.
	DefaultUploadTimeout = 2 * time.Minute

	// UploadField is the multipart field that carries the document.
	UploadField = "file"

	defaultRateLimit = 10.0
	defaultBurst     = 5
)

// Endpoint paths relative to the base URL.
type Endpoints struct {
	Stats  string
	Graph  string
	Upload string
}

// DefaultEndpoints returns the paths used by the knowledge-base backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Stats:  "/kbData",
		Graph:  "/graph-data",
		Upload: "/upload",
	}
}

// Client is a rate-limited HTTP client for the knowledge-base backend.
type Client struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	baseURL       string
	endpoints     Endpoints
	tokens        TokenSource
	readTimeout   time.Duration
	uploadTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEndpoints overrides the endpoint paths.
func WithEndpoints(e Endpoints) ClientOption {
	return func(c *Client) {
		c.endpoints = e
	}
}

// WithTokenSource sets the credentials used when no token is forwarded.
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithTimeouts sets the read and upload deadlines. Zero keeps the default.
func WithTimeouts(read, upload time.Duration) ClientOption {
	return func(c *Client) {
		if read > 0 {
			c.readTimeout = read
		}
		if upload > 0 {
			c.uploadTimeout = upload
		}
	}
}

// WithRateLimit sets the outbound request rate.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewClient creates a new backend client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{},
		limiter:       rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		baseURL:       strings.TrimRight(baseURL, "/"),
		endpoints:     DefaultEndpoints(),
		readTimeout:   DefaultReadTimeout,
		uploadTimeout: DefaultUploadTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetKBData fetches the aggregate statistics snapshot.
func (c *Client) GetKBData(ctx context.Context) (*models.KBDataResponse, error) {
	var out models.KBDataResponse
	if err := c.getJSON(ctx, "stats", c.endpoints.Stats, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetGraphData fetches the entity graph and its category list.
func (c *Client) GetGraphData(ctx context.Context) (*models.GraphResponse, error) {
	var out models.GraphResponse
	if err := c.getJSON(ctx, "graph", c.endpoints.Graph, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends one document as multipart form data. A decodable body with a
// status is returned as-is even on a non-2xx answer, so the caller can show
// the backend's own message.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, r io.Reader) (*models.UploadResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.postMultipart(ctx, fileName, contentType, r)
	if err != nil {
		err = classify(ctx, err)
		c.observe("upload", err, start)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = classify(ctx, fmt.Errorf("reading upload response: %w", err))
		c.observe("upload", err, start)
		return nil, err
	}

	var out models.UploadResponse
	if jsonErr := json.Unmarshal(body, &out); jsonErr == nil && out.Status != "" {
		c.observe("upload", nil, start)
		return &out, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = &APIError{StatusCode: resp.StatusCode, Message: extractMessage(body)}
	} else {
		err = fmt.Errorf("%w: upload response has no status", ErrInvalidResponse)
	}
	c.observe("upload", err, start)
	return nil, err
}

func (c *Client) postMultipart(ctx context.Context, fileName, contentType string, r io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeFilePart(mw, fileName, contentType, r)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.endpoints.Upload, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		pr.Close()
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.Close()
		return nil, err
	}
	return resp, nil
}

func writeFilePart(mw *multipart.Writer, fileName, contentType string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadField, fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("writing form part: %w", err)
	}
	return nil
}

// getJSON performs one authenticated GET under the read deadline.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	start := time.Now()
	err := c.doGet(ctx, path, out)
	if err != nil {
		err = classify(ctx, err)
	}
	c.observe(endpoint, err, start)
	return err
}

func (c *Client) doGet(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// authorize sets the bearer token: the forwarded one first, then our own.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	token, ok := TokenFromContext(ctx)
	if !ok && c.tokens != nil {
		t, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		token = t
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// classify maps deadline failures to ErrTimeout.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func (c *Client) observe(endpoint string, err error, start time.Time) {
	result := "ok"
	switch {
	case errors.Is(err, ErrTimeout):
		result = "timeout"
	case err != nil:
		result = "error"
	}
	metrics.ObserveBackendRequest(endpoint, result, time.Since(start).Seconds())
}
