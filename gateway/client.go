package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ad-astra-video/flow"
)

// Interface compliance check.
var _ flow.Opener = (*Client)(nil)

// Client implements [flow.Opener] for the pipeline gateway.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeoutSeconds int
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeoutSeconds sets the default job timeout forwarded to the gateway
// for requests that do not carry their own.
func WithTimeoutSeconds(seconds int) Option {
	return func(c *Client) { c.timeoutSeconds = seconds }
}

// New creates a gateway [Client] for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     http.DefaultClient,
		timeoutSeconds: defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open sends one generation request. Exactly one transport is opened per
// call and there are no retries. The returned stream is live for
// event-stream responses; single-document responses come back as an
// already-complete stream so callers can skip the streaming phase entirely.
func (c *Client) Open(ctx context.Context, req flow.Request) (flow.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	body, job, err := c.buildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+req.Path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set(jobHeader, job)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readHTTPError(resp)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		return newStream(ctx, resp.Body), nil
	}
	return newDocument(resp.Body)
}

func (c *Client) buildRequest(req flow.Request) ([]byte, string, error) {
	body, err := json.Marshal(apiRequest{
		Prompt:     req.Prompt,
		Parameters: req.Parameters,
		Stream:     true,
	})
	if err != nil {
		return nil, "", err
	}

	params := "{}"
	if len(req.Parameters) > 0 {
		raw, err := json.Marshal(req.Parameters)
		if err != nil {
			return nil, "", err
		}
		params = string(raw)
	}

	seconds := c.timeoutSeconds
	if req.Timeout > 0 {
		seconds = int(req.Timeout.Seconds())
	}

	job, err := json.Marshal(jobDescriptor{
		Request:        string(body),
		Parameters:     params,
		Capability:     req.Capability,
		TimeoutSeconds: seconds,
	})
	if err != nil {
		return nil, "", err
	}

	return body, base64.StdEncoding.EncodeToString(job), nil
}

// newDocument consumes a non-streaming response body and returns a stream
// that is complete from birth.
func newDocument(body io.ReadCloser) (flow.Stream, error) {
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}
	var doc apiDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("gateway: malformed response body: %w", flow.ErrProtocol)
	}
	if doc.Content == nil {
		return nil, fmt.Errorf("gateway: response missing content field: %w", flow.ErrProtocol)
	}
	return &document{text: *doc.Content}, nil
}

// document is a flow.Stream for single-document responses.
type document struct {
	text   string
	closed bool
}

var _ flow.Stream = (*document)(nil)

func (d *document) Next() (flow.Event, error) {
	if d.closed {
		return nil, flow.ErrStreamClosed
	}
	return nil, io.EOF
}

func (d *document) State() flow.StreamState { return flow.StreamStateComplete }

func (d *document) Text() (string, error) { return d.text, nil }

func (d *document) Close() error {
	d.closed = true
	return nil
}

// readHTTPError derives an error from a non-success response: the body when
// it says anything useful, the status code otherwise.
func readHTTPError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("gateway: HTTP %d", resp.StatusCode)
	}

	var parsed apiErrorBody
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Message != "" {
			return fmt.Errorf("gateway: HTTP %d: %s", resp.StatusCode, parsed.Message)
		}
		if len(parsed.Error) > 0 {
			return fmt.Errorf("gateway: HTTP %d: %s", resp.StatusCode, strings.Trim(string(parsed.Error), `"`))
		}
	}
	return fmt.Errorf("gateway: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
