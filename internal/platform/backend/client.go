package backend

import (
	"bytes"
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

	"golang.org/x/time/rate"

	"hwportal/internal/requestctx"
)

const (
	insertMethod   = "frappe.client.insert"
	maxErrorBody   = 64 * 1024
	maxSuccessBody = 32 * 1024 * 1024
)

// Observer receives one callback per outbound call.
type Observer interface {
	RecordUpstream(status int, duration time.Duration)
}

type Config struct {
	BaseURL           string
	APIKey            string
	APISecret         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	authToken  string
	observer   Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.APIKey != "" && cfg.APISecret != "" {
		c.authToken = "token " + cfg.APIKey + ":" + cfg.APISecret
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List calls a module list method with the given filters.
func (c *Client) List(ctx context.Context, method string, req ListRequest) (ListResponse, error) {
	var env listEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/method/"+method, nil, req, &env); err != nil {
		return ListResponse{}, err
	}
	if env.Data == nil && len(env.Message) > 0 && env.Message[0] == '{' {
		var inner listEnvelope
		if err := json.Unmarshal(env.Message, &inner); err != nil {
			return ListResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		env = inner
	}
	if env.Success != nil && !*env.Success {
		return ListResponse{}, &ServerError{Op: method, Status: http.StatusOK, Message: messageFromEnvelope(env)}
	}
	if env.Data == nil {
		return ListResponse{}, fmt.Errorf("%w: %s: missing data", ErrMalformedResponse, method)
	}
	return ListResponse{
		Items:            env.Data.Items,
		TotalCount:       int(env.Data.TotalCount),
		StatusAggregates: env.Data.StatusAggregates,
	}, nil
}

// GetList queries the generic resource collection endpoint.
func (c *Client) GetList(ctx context.Context, q CollectionQuery) ([]json.RawMessage, error) {
	query := url.Values{}
	if len(q.Fields) > 0 {
		fields, err := json.Marshal(q.Fields)
		if err != nil {
			return nil, err
		}
		query.Set("fields", string(fields))
	}
	if len(q.Filters) > 0 {
		filters, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, err
		}
		query.Set("filters", string(filters))
	}
	if q.OrderBy != "" {
		query.Set("order_by", q.OrderBy)
	}
	if q.Limit > 0 {
		query.Set("limit_page_length", strconv.Itoa(q.Limit))
	}

	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/resource/"+url.PathEscape(q.Doctype), query, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetDoc loads a single document into out.
func (c *Client) GetDoc(ctx context.Context, doctype, name string, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	path := "/api/resource/" + url.PathEscape(doctype) + "/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: %s/%s: missing data", ErrMalformedResponse, doctype, name)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// Insert creates a document and returns its name.
func (c *Client) Insert(ctx context.Context, doc map[string]any) (string, error) {
	var env struct {
		Data *struct {
			Name string `json:"name"`
		} `json:"data"`
		Message json.RawMessage `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/method/"+insertMethod, nil, map[string]any{"doc": doc}, &env); err != nil {
		return "", err
	}
	if env.Data != nil && env.Data.Name != "" {
		return env.Data.Name, nil
	}
	if len(env.Message) > 0 && env.Message[0] == '{' {
		var inner struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(env.Message, &inner); err == nil && inner.Name != "" {
			return inner.Name, nil
		}
	}
	return "", fmt.Errorf("%w: insert response has no document name", ErrMalformedResponse)
}

// BulkJobs calls the pre-aggregated job listing method.
func (c *Client) BulkJobs(ctx context.Context, method string, q BulkJobsQuery) (BulkJobsResponse, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(max(q.Page, 1)))
	query.Set("per_page", strconv.Itoa(max(q.PerPage, 1)))
	if q.Status != "" {
		query.Set("status", q.Status)
	}

	type jobsBody struct {
		Status  string          `json:"status"`
		Message json.RawMessage `json:"message"`
		Data    *struct {
			Jobs []json.RawMessage `json:"jobs"`
		} `json:"data"`
	}
	var env jobsBody
	if err := c.do(ctx, http.MethodGet, "/api/method/"+method, query, nil, &env); err != nil {
		return BulkJobsResponse{}, err
	}
	if env.Data == nil && env.Status == "" && len(env.Message) > 0 && env.Message[0] == '{' {
		var inner jobsBody
		if err := json.Unmarshal(env.Message, &inner); err != nil {
			return BulkJobsResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		env = inner
	}
	message := rawString(env.Message)
	if env.Status != "" && !strings.EqualFold(env.Status, "success") {
		return BulkJobsResponse{}, &ServerError{Op: method, Status: http.StatusOK, Message: message}
	}
	if env.Data == nil {
		return BulkJobsResponse{}, fmt.Errorf("%w: %s: missing data", ErrMalformedResponse, method)
	}
	return BulkJobsResponse{Jobs: env.Data.Jobs, Message: message}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: path, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}
	if session, ok := requestctx.GetUpstreamSession(ctx); ok {
		if session.CSRFToken != "" {
			req.Header.Set("X-Frappe-CSRF-Token", session.CSRFToken)
		}
		if session.SessionID != "" {
			req.AddCookie(&http.Cookie{Name: "sid", Value: session.SessionID})
		}
	}
	if requestID := requestctx.GetRequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(0, start)
		return &NetworkError{Op: path, Err: err}
	}
	defer resp.Body.Close()
	c.observe(resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ServerError{Op: path, Status: resp.StatusCode, Message: extractMessage(raw)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSuccessBody))
	if err != nil {
		return &NetworkError{Op: path, Err: err}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

func (c *Client) observe(status int, start time.Time) {
	if c.observer != nil {
		c.observer.RecordUpstream(status, time.Since(start))
	}
}

func messageFromEnvelope(env listEnvelope) string {
	if msg := rawString(env.Message); msg != "" {
		return msg
	}
	return errorField(env.Error)
}

// extractMessage digs the human-readable message out of an error body.
func extractMessage(raw []byte) string {
	var body struct {
		Message        json.RawMessage `json:"message"`
		Exception      string          `json:"exception"`
		ServerMessages string          `json:"_server_messages"`
		Error          json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if msg := serverMessages(body.ServerMessages); msg != "" {
		return msg
	}
	if msg := rawString(body.Message); msg != "" {
		return msg
	}
	if msg := errorField(body.Error); msg != "" {
		return msg
	}
	if body.Exception != "" {
		if _, after, ok := strings.Cut(body.Exception, ": "); ok {
			return after
		}
		return body.Exception
	}
	return ""
}

func serverMessages(raw string) string {
	if raw == "" {
		return ""
	}
	var encoded []string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil || len(encoded) == 0 {
		return ""
	}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(encoded[0]), &msg); err != nil {
		return encoded[0]
	}
	return msg.Message
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func errorField(raw json.RawMessage) string {
	if msg := rawString(raw); msg != "" {
		return msg
	}
	var obj struct {
		Message string `json:"message"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &obj) == nil {
		return obj.Message
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.Status == http.StatusNotFound
}
