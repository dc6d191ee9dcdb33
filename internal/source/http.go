package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultClientTimeout is the total request timeout.
	DefaultClientTimeout = 10 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 5 * time.Second
	// MaxResponseBytes caps how much of a listing is read.
	MaxResponseBytes = 32 << 20

	userAgent = "ParishDesk-Reporting/1.0"
)

// NewHTTPClient creates an HTTP client for backend listing calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		// Listings are never redirected; a redirect usually means a login page.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// RESTSource lists records from a backend JSON endpoint.
type RESTSource struct {
	name   string
	url    string
	token  string
	client *http.Client
}

// NewRESTSource creates a source for GET {baseURL}{path}.
func NewRESTSource(name, baseURL, path, token string, client *http.Client) *RESTSource {
	if client == nil {
		client = NewHTTPClient(DefaultClientTimeout)
	}
	return &RESTSource{
		name:   name,
		url:    strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"),
		token:  token,
		client: client,
	}
}

// Name returns the source name.
func (s *RESTSource) Name() string { return s.name }

// URL returns the endpoint the source reads.
func (s *RESTSource) URL() string { return s.url }

// Fetch performs the listing request and decodes the records.
func (s *RESTSource) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", s.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			Source:     s.name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	records, err := DecodeRecords(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	return records, nil
}
