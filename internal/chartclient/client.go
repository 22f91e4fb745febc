package chartclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/chartload/internal/tracing"
)

const (
	DefaultBaseURL    = "https://dev.timescalecreator.org"
	DefaultSubmitPath = "/chart"
	DefaultStatusPath = "/svgstatus/"

	contentType = "text/plain"
)

// HTTPError reports a response whose status arrived but whose body could not be read.
type HTTPError struct {
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Response is a fully read service response.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports whether the response status is 200.
func (r Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Options configure a Client.
type Options struct {
	BaseURL    string       // scheme and host, no trailing slash required
	SubmitPath string       // defaults to DefaultSubmitPath
	StatusPath string       // defaults to DefaultStatusPath; the hash is appended
	HTTP       *http.Client // defaults to NewHTTPClient(0)
	Propagate  bool         // inject W3C trace context headers
}

// Client issues submit, status and fetch calls against one chart service.
type Client struct {
	http       *http.Client
	base       string
	submitPath string
	statusPath string
	propagate  bool
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", base)
	}

	submitPath := opts.SubmitPath
	if submitPath == "" {
		submitPath = DefaultSubmitPath
	}
	statusPath := opts.StatusPath
	if statusPath == "" {
		statusPath = DefaultStatusPath
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}

	return &Client{
		http:       httpClient,
		base:       base,
		submitPath: submitPath,
		statusPath: statusPath,
		propagate:  opts.Propagate,
	}, nil
}

// Submit posts a chart payload.
func (c *Client) Submit(ctx context.Context, payload string) (Response, error) {
	return c.do(ctx, http.MethodPost, c.base+c.submitPath, payload)
}

// Status checks whether the chart identified by hash is ready.
func (c *Client) Status(ctx context.Context, hash string) (Response, error) {
	return c.do(ctx, http.MethodGet, c.base+c.statusPath+hash, "")
}

// Fetch retrieves the rendered chart at chartPath.
func (c *Client) Fetch(ctx context.Context, chartPath string) (Response, error) {
	return c.do(ctx, http.MethodGet, c.base+chartPath, "")
}

func (c *Client) do(ctx context.Context, method, target, body string) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != "" || method == http.MethodPost {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, &HTTPError{StatusCode: resp.StatusCode, Err: err}
	}
	return Response{StatusCode: resp.StatusCode, Body: string(data)}, nil
}

// IsTimeout reports whether err is a transport or context timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// StatusOf returns the status code carried by err, or 0 when there is none.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// NewHTTPClient returns a client tuned for many concurrent sessions against one host.
// A zero timeout leaves requests unbounded.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
