package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "jobkit-webhook/1.0"

// Result describes one HTTP delivery attempt
type Result struct {
	Success    bool
	StatusCode int
	Duration   time.Duration
	Error      error
}

// Sender performs single signed HTTP delivery attempts. Retry scheduling
// lives with the Dispatcher, which persists attempt state between tries;
// the Sender itself is stateless apart from its connection pool.
//
// Zero value is not usable; use NewSender.
type Sender struct {
	client *http.Client
}

// NewSender creates a sender with a pooled HTTP client. Pool sizing favors a
// moderate number of distinct endpoints with repeated deliveries to each.
func NewSender() *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewSenderWithClient creates a sender using a custom HTTP client, for
// custom transports, proxies, or testing
func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		return NewSender()
	}
	return &Sender{client: client}
}

// Send performs one POST of the payload to the endpoint URL. A status in
// [200,300) is success; anything else, including transport errors, is a
// failed attempt reported through both the Result and the error.
func (s *Sender) Send(ctx context.Context, endpoint string, payload []byte, opts ...SendOption) (Result, error) {
	result := Result{}

	if err := validateEndpoint(endpoint); err != nil {
		result.Error = err
		return result, err
	}
	if len(payload) == 0 {
		result.Error = fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
		return result, result.Error
	}

	options := defaultSendOptions()
	for _, opt := range opts {
		opt(options)
	}

	client := s.client
	if options.httpClient != nil {
		client = options.httpClient
	}

	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, options.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		result.Duration = time.Since(start)
		result.Error = err
		return result, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range options.headers {
		req.Header.Set(k, v)
	}

	if options.secret != "" {
		signedAt := options.signedAt
		if signedAt.IsZero() {
			signedAt = time.Now()
		}
		signature, err := Sign(options.secret, payload, signedAt)
		if err != nil {
			result.Duration = time.Since(start)
			result.Error = err
			return result, fmt.Errorf("failed to sign payload: %w", err)
		}
		req.Header.Set(HeaderSignature, signature)
	}
	if options.eventID != "" {
		req.Header.Set(HeaderEventID, options.eventID)
	}

	resp, err := client.Do(req)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err
		if reqCtx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return result, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300

	if !result.Success {
		// Keep a sanitized slice of the response body for the failure record
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		errMsg := fmt.Sprintf("endpoint returned status %d", resp.StatusCode)
		if len(body) > 0 {
			bodyStr := strings.ReplaceAll(string(body), "\n", " ")
			if len(bodyStr) > 200 {
				bodyStr = bodyStr[:200] + "..."
			}
			errMsg += ": " + bodyStr
		}
		result.Error = fmt.Errorf("%w: %s", ErrDeliveryFailed, errMsg)
		return result, result.Error
	}

	return result, nil
}

// validateEndpoint fails fast on URLs that can never be delivered to.
// Only http and https are allowed, which also guards against SSRF via
// exotic schemes.
func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return nil
}
