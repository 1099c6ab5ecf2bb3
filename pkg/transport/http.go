package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gomathyk/sinkmux/pkg/options"
)

const (
	// KindHTTP posts payloads to HTTP endpoints over one shared client.
	// Each destination is a URL.
	KindHTTP = "http"

	httpOptionMethod      = "method"
	httpOptionTimeout     = "timeout.seconds"
	httpOptionContentType = "content.type"
	httpOptionURL         = "url"

	httpDefaultMethod         = http.MethodPost
	httpDefaultTimeoutSeconds = 5
	httpDefaultContentType    = "application/json"
)

type httpTransport struct {
	method      string
	contentType string
	timeout     time.Duration
	client      *resty.Client
	counter     deliveryCounter
	log         Logger
}

func newHTTPTransport(log Logger) Transport {
	return &httpTransport{log: ensureLogger(log)}
}

func (h *httpTransport) Initialize(_ context.Context, _ StreamSchema, resolved *options.OptionHolder) error {
	h.method = httpDefaultMethod
	if m, ok := resolved.Static(httpOptionMethod); ok && m != "" {
		h.method = strings.ToUpper(strings.TrimSpace(m))
	}

	h.contentType = httpDefaultContentType
	if ct, ok := resolved.Static(httpOptionContentType); ok && ct != "" {
		h.contentType = ct
	}

	h.timeout = httpDefaultTimeoutSeconds * time.Second
	if raw, ok := resolved.Static(httpOptionTimeout); ok && raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return &options.ConfigError{Reason: fmt.Sprintf("option %q must be a positive integer, got %q", httpOptionTimeout, raw)}
		}
		h.timeout = time.Duration(secs) * time.Second
	}
	return nil
}

func (h *httpTransport) Connect(_ context.Context) error {
	client := resty.New()
	client.SetTimeout(h.timeout)
	h.client = client
	return nil
}

func (h *httpTransport) Publish(ctx context.Context, payload []byte, opts *options.PublishContext) error {
	if h.client == nil {
		return fmt.Errorf("http publish: %w", ErrConnectionUnavailable)
	}

	url, err := dynamicValue(opts, httpOptionURL)
	if err != nil {
		return err
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", h.contentType).
		SetBody(payload).
		Execute(h.method, url)
	if err != nil {
		return connectionUnavailable(fmt.Sprintf("http request to %s", url), err)
	}
	if resp.IsError() {
		snippet := readBodySnippet(resp.Body())
		// Server-side failures are treated as recoverable; 4xx means the
		// destination itself is misconfigured.
		if resp.StatusCode() >= http.StatusInternalServerError {
			return connectionUnavailable(fmt.Sprintf("http response status %d", resp.StatusCode()),
				fmt.Errorf("%s", snippet))
		}
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), snippet)
	}
	h.counter.record(opts.SelectedDestination())
	return nil
}

func (h *httpTransport) Disconnect() error {
	h.client = nil
	return nil
}

func (h *httpTransport) Destroy() error {
	h.client = nil
	return nil
}

func (h *httpTransport) SupportedDynamicOptions() []string {
	return []string{httpOptionURL}
}

func (h *httpTransport) SnapshotState() map[string]any {
	return h.counter.snapshot()
}

func (h *httpTransport) RestoreState(state map[string]any) error {
	return h.counter.restore(state)
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
