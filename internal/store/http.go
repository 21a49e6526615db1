package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/samber/oops"
	"golang.org/x/time/rate"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxResponseBytes      = 4 << 20
	maxErrorBodyBytes     = 512
)

// HTTPStore talks to a remote configuration store over its REST API.
// Requests are never retried; every failure is returned to the caller.
type HTTPStore struct {
	baseURL *url.URL
	client  *http.Client
	token   string
	limiter *rate.Limiter
}

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithHTTPClient replaces the default client, primarily for tests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		if client != nil {
			s.client = client
		}
	}
}

// WithToken sends the token as a bearer credential on every request.
func WithToken(token string) HTTPOption {
	return func(s *HTTPStore) {
		s.token = strings.TrimSpace(token)
	}
}

// WithRequestRate paces outgoing requests. A non-positive rate disables pacing.
func WithRequestRate(ratePerSecond float64, burst int) HTTPOption {
	return func(s *HTTPStore) {
		if ratePerSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
}

// NewHTTPStore creates a client for the store rooted at baseURL, e.g.
// "http://backend:8080/api".
func NewHTTPStore(baseURL string, opts ...HTTPOption) (*HTTPStore, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse store URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store URL must use http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("store URL is missing a host: %q", baseURL)
	}

	s := &HTTPStore{
		baseURL: u,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List fetches every non-secret entry.
func (s *HTTPStore) List(ctx context.Context) ([]settings.Entry, error) {
	var entries []settings.Entry
	if err := s.doJSON(ctx, http.MethodGet, s.endpoint("configs"), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListCategory fetches the admin view of one category.
func (s *HTTPStore) ListCategory(ctx context.Context, category string) ([]settings.AdminEntry, error) {
	var entries []settings.AdminEntry
	endpoint := s.endpoint("configs", "admin", url.PathEscape(category))
	if err := s.doJSON(ctx, http.MethodGet, endpoint, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Patch sends updates as-is and returns what the store reports back.
func (s *HTTPStore) Patch(ctx context.Context, updates []settings.Update) ([]settings.AdminEntry, error) {
	var entries []settings.AdminEntry
	if err := s.doJSON(ctx, http.MethodPatch, s.endpoint("configs", "admin"), updates, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FinishSetup marks the initial setup as done.
func (s *HTTPStore) FinishSetup(ctx context.Context) ([]settings.AdminEntry, error) {
	var entries []settings.AdminEntry
	if err := s.doJSON(ctx, http.MethodPost, s.endpoint("configs", "admin", "finishSetup"), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SendTestEmail asks the store to deliver a test message to email.
func (s *HTTPStore) SendTestEmail(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	return s.doJSON(ctx, http.MethodPost, s.endpoint("configs", "admin", "testEmail"), payload, nil)
}

// ChangeLogo uploads a new logo image as the multipart field "file".
func (s *HTTPStore) ChangeLogo(ctx context.Context, filename string, logo io.Reader) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return oops.In("store").Wrapf(err, "create logo form")
	}
	if _, err := io.Copy(part, logo); err != nil {
		return oops.In("store").Wrapf(err, "read logo")
	}
	if err := form.Close(); err != nil {
		return oops.In("store").Wrapf(err, "close logo form")
	}

	_, err = s.do(ctx, http.MethodPost, s.endpoint("configs", "admin", "logo"), &body, form.FormDataContentType())
	return err
}

func (s *HTTPStore) endpoint(elem ...string) *url.URL {
	return s.baseURL.JoinPath(elem...)
}

func (s *HTTPStore) doJSON(ctx context.Context, method string, endpoint *url.URL, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := sonic.Marshal(in)
		if err != nil {
			return oops.In("store").With("method", method).Wrapf(err, "encode request")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	data, err := s.do(ctx, method, endpoint, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := sonic.Unmarshal(data, out); err != nil {
		return oops.In("store").
			With("method", method, "url", endpoint.String()).
			Wrapf(fmt.Errorf("%w: %w", ErrMalformedResponse, err), "decode response")
	}
	return nil
}

func (s *HTTPStore) do(ctx context.Context, method string, endpoint *url.URL, body io.Reader, contentType string) ([]byte, error) {
	errb := oops.In("store").With("method", method, "url", endpoint.String())

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, errb.Wrapf(fmt.Errorf("%w: %w", ErrUnavailable, err), "wait for request slot")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, errb.Wrapf(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errb.Wrapf(fmt.Errorf("%w: %w", ErrUnavailable, err), "send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
		return nil, errb.With("status", resp.StatusCode).Wrapf(statusErr, "unexpected status")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errb.Wrapf(fmt.Errorf("%w: %w", ErrUnavailable, err), "read response")
	}
	return data, nil
}
