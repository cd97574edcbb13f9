package transit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
)

// DefaultTimeout bounds a single departure request.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps a monitor response, which is a few tens of KiB per stop.
const maxBodySize = 4 << 20

// RawResponse is the undecoded body of a monitor response.
type RawResponse struct {
	StopID StopID
	Body   []byte
}

// Client queries the departure monitor endpoint, one request per stop.
type Client struct {
	baseURL    string
	httpClient *http.Client
	watchdog   core.Watchdog
	logger     logr.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) { cl.httpClient.Timeout = d }
}

// WithWatchdog feeds wd after every successful request.
func WithWatchdog(wd core.Watchdog) ClientOption {
	return func(cl *Client) { cl.watchdog = wd }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logr.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a Client for baseURL, e.g. https://www.wienerlinien.at/ogd_realtime/monitor.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		watchdog:   core.NopWatchdog{},
		logger:     logr.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchRaw performs GET <baseURL>?rbl=<stopID>. Anything but a 200 response is a *FetchError.
func (c *Client) FetchRaw(ctx context.Context, stopID StopID) (RawResponse, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return RawResponse{}, &FetchError{StopID: stopID, Err: err}
	}
	q := u.Query()
	q.Set("rbl", string(stopID))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return RawResponse{}, &FetchError{StopID: stopID, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RawResponse{}, &FetchError{StopID: stopID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return RawResponse{}, &FetchError{
			StopID:     stopID,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d from %s", resp.StatusCode, u.Redacted()),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return RawResponse{}, &FetchError{StopID: stopID, StatusCode: 0, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.V(1).Info("Fetched departures", "stopID", stopID, "status", resp.StatusCode,
		"bytes", len(body), "elapsed", time.Since(start))
	c.watchdog.Feed()

	return RawResponse{StopID: stopID, Body: body}, nil
}
