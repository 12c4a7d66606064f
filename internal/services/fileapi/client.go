package fileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	AuthHeader      = "X-Auth-Token"
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 60 * time.Second
)

// Client represents a file API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

var _ ClientAPI = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new file API client. Every request carries token in the X-Auth-Token header.
func NewClient(baseURL, token string, opts ...Option) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the URL every endpoint is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes req and never returns nil. Failures that yield no status code
// are reported through Response.TransportErr.
func (c *Client) Do(ctx context.Context, req *Request) *Response {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL + req.Endpoint

	fail := func(err error) *Response {
		terr := &TransportError{Method: method, URL: target, Err: err}
		c.logger.Errorf("%s", terr)
		return &Response{TransportErr: terr}
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return fail(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set(AuthHeader, c.token)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("reading response body: %w", err))
	}

	c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     resp.StatusCode,
		"bytes":      len(raw),
		"duration":   time.Since(start).String(),
	}).Debugf("%s %s", method, target)

	out := &Response{StatusCode: resp.StatusCode, Raw: raw}
	var data any
	if len(raw) > 0 && json.Unmarshal(raw, &data) == nil {
		out.Data = data
	}
	return out
}

func encodeBody(req *Request) (io.Reader, string, error) {
	switch {
	case req.FilePath != "":
		return encodeFile(req.FilePath)
	case len(req.Form) > 0:
		return strings.NewReader(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", nil
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeFile(path string) (io.Reader, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(path))))
	header.Set("Content-Type", mimetype.Detect(data).String())

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}

// Health calls GET /health and expects 200.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	resp := c.Do(ctx, &Request{Endpoint: EndpointHealth, Method: http.MethodGet})
	return resp, resp.Expect(EndpointHealth, http.StatusOK)
}

// Upload sends filePath as multipart form data to POST /upload and expects 201.
func (c *Client) Upload(ctx context.Context, filePath string) (*Response, error) {
	info, err := os.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		return &Response{}, fmt.Errorf("%w: %s", ErrLocalFileMissing, filePath)
	}

	resp := c.Do(ctx, &Request{Endpoint: EndpointUpload, Method: http.MethodPost, FilePath: filePath})
	return resp, resp.Expect(EndpointUpload, http.StatusCreated)
}

// List calls GET /list, expects 200 and decodes the file listing.
func (c *Client) List(ctx context.Context) (*ListResponse, *Response, error) {
	resp := c.Do(ctx, &Request{Endpoint: EndpointList, Method: http.MethodGet})
	if err := resp.Expect(EndpointList, http.StatusOK); err != nil {
		return nil, resp, err
	}

	var result ListResponse
	if err := resp.Decode(&result); err != nil {
		return nil, resp, err
	}
	if result.Files == nil {
		result.Files = []FileMetadata{}
	}
	return &result, resp, nil
}

// Download fetches the raw bytes of name from GET /download/{name} and expects 200.
func (c *Client) Download(ctx context.Context, name string) (*Response, error) {
	endpoint := EndpointDownload + url.PathEscape(name)
	resp := c.Do(ctx, &Request{Endpoint: endpoint, Method: http.MethodGet})
	return resp, resp.Expect(endpoint, http.StatusOK)
}

// Delete removes name via DELETE /delete/{name} and expects 200.
func (c *Client) Delete(ctx context.Context, name string) (*Response, error) {
	endpoint := EndpointDelete + url.PathEscape(name)
	resp := c.Do(ctx, &Request{Endpoint: endpoint, Method: http.MethodDelete})
	return resp, resp.Expect(endpoint, http.StatusOK)
}
