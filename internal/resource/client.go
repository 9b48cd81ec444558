package resource

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

	"github.com/aquamarinepk/aqm"
)

// Record is a single row of a collection as returned by the restaurant API.
type Record map[string]interface{}

// Result is the acknowledgement returned by mutating endpoints.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TransportError reports that the API could not be reached or answered with
// something that is not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectedError reports an application-level refusal: either `success: false`
// or a non-2xx status. Message holds the server text and may be empty.
type RejectedError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Text returns the server message or fallback when the server omitted one.
func (e *RejectedError) Text(fallback string) string {
	if strings.TrimSpace(e.Message) == "" {
		return fallback
	}
	return e.Message
}

// Message extracts the text a user should see for err.
func Message(err error, fallback string) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Text(fallback)
	}
	return fallback
}

// Client speaks the generic list/create/update/delete contract of the
// restaurant API. Paths are relative to the API base URL (".../api").
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     aqm.Logger
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger aqm.Logger) *Client {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if baseURL == "" {
		baseURL = "http://localhost:5000/api"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// List fetches GET /{resource} and returns the rows stored under key.
// A payload without key yields an empty list.
func (c *Client) List(ctx context.Context, resource, key string, query url.Values) ([]Record, error) {
	var records []Record
	if err := c.Collection(ctx, resource, query, key, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Collection decodes the array stored under key of GET /{path} into dest.
func (c *Client) Collection(ctx context.Context, path string, query url.Values, key string, dest interface{}) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}

	var payload map[string]json.RawMessage
	if err := c.Get(ctx, path, &payload); err != nil {
		return err
	}

	raw, ok := payload[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return &TransportError{Op: "GET /" + path, Err: fmt.Errorf("decode %s: %w", key, err)}
	}

	return nil
}

// Create posts payload to /{resource}. A `success: false` answer is returned
// as *RejectedError.
func (c *Client) Create(ctx context.Context, resource string, payload interface{}) error {
	var result Result
	if err := c.Post(ctx, resource, payload, &result); err != nil {
		return err
	}
	if !result.Success {
		return &RejectedError{Op: "POST /" + resource, Status: http.StatusOK, Message: result.Error}
	}
	return nil
}

// Update sends PUT /{resource}/{id}. The response body is ignored.
func (c *Client) Update(ctx context.Context, resource, id string, payload interface{}) error {
	if id == "" {
		return fmt.Errorf("missing %s id", resource)
	}
	return c.do(ctx, http.MethodPut, resource+"/"+url.PathEscape(id), payload, nil)
}

// Delete sends DELETE /{resource}/{id}. The response body is ignored.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	if id == "" {
		return fmt.Errorf("missing %s id", resource)
	}
	return c.do(ctx, http.MethodDelete, resource+"/"+url.PathEscape(id), nil, nil)
}

// Get decodes GET /{path} into dest.
func (c *Client) Get(ctx context.Context, path string, dest interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

// Post sends body as JSON to /{path} and decodes the answer into dest.
func (c *Client) Post(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("resource client not configured")
	}

	op := method + " /" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "op", op, "error", err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure Result
		_ = json.Unmarshal(raw, &failure)
		c.logger.Info("api request rejected", "op", op, "status", resp.StatusCode, "error", failure.Error)
		return &RejectedError{Op: op, Status: resp.StatusCode, Message: failure.Error}
	}

	if dest == nil {
		return nil
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return &TransportError{Op: op, Err: errors.New("empty response body")}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}
