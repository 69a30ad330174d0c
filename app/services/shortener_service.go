// Package services provides external service integrations and technical concerns like short links and tokens
package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/trackfluence/trackfluence/utils"
)

// ShortenerService produces short links for campaign target URLs
type ShortenerService interface {
	Shorten(ctx context.Context, longURL string) (string, error)
	Name() string
}

// ProviderError carries the upstream shortener's own failure detail so callers
// can surface it instead of a generic message
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
}

// IsProviderError reports whether err wraps a shortener provider failure
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// GenerateAffiliateCode returns a random uppercase alphanumeric referral code
func GenerateAffiliateCode() (string, error) {
	alphabet := utils.AffiliateCodeAlphabet
	code := make([]byte, utils.AffiliateCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate affiliate code: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

// BuildAffiliateLink composes a referral URL for the given domain and code
func BuildAffiliateLink(domain, code string) string {
	return "http://" + domain + utils.AffiliatePathPrefix + code
}

// LocalShortener generates referral links on the configured domain without
// calling any external provider
type LocalShortener struct {
	Domain string
}

// NewLocalShortener creates a shortener that mints links locally
func NewLocalShortener(domain string) *LocalShortener {
	return &LocalShortener{Domain: domain}
}

func (s *LocalShortener) Name() string { return "local" }

// Shorten produces a fresh referral link; the long URL is encoded into the
// campaign row, not the link itself
func (s *LocalShortener) Shorten(ctx context.Context, longURL string) (string, error) {
	code, err := GenerateAffiliateCode()
	if err != nil {
		return "", err
	}
	return BuildAffiliateLink(s.Domain, code), nil
}

// BitlyClient shortens URLs through the Bitly v4 API
// Docs: https://dev.bitly.com/api-reference#createBitlink
type BitlyClient struct {
	BaseURL      string
	AccessToken  string
	Domain       string
	HTTPClient   *http.Client
	RetryCount   int
	RetryBackoff time.Duration
}

// NewBitlyClient creates a Bitly-backed shortener client
func NewBitlyClient(baseURL, accessToken, domain string, timeout time.Duration, retryCount int, retryBackoff time.Duration) *BitlyClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retryBackoff <= 0 {
		retryBackoff = 500 * time.Millisecond
	}
	return &BitlyClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		AccessToken:  accessToken,
		Domain:       domain,
		HTTPClient:   &http.Client{Timeout: timeout},
		RetryCount:   retryCount,
		RetryBackoff: retryBackoff,
	}
}

func (c *BitlyClient) Name() string { return "bitly" }

type bitlyShortenReq struct {
	LongURL string `json:"long_url"`
	Domain  string `json:"domain,omitempty"`
}

type bitlyShortenResp struct {
	Link        string `json:"link"`
	ID          string `json:"id"`
	LongURL     string `json:"long_url"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// Shorten creates a short link for the given URL. Transient failures (network
// errors and 5xx responses) are retried once; 4xx responses are not retried
// because the request itself is at fault.
func (c *BitlyClient) Shorten(ctx context.Context, longURL string) (string, error) {
	var lastErr error
	attempts := c.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.RetryBackoff):
			}
		}

		link, retryable, err := c.shortenOnce(ctx, longURL)
		if err == nil {
			return link, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}

	return "", lastErr
}

func (c *BitlyClient) shortenOnce(ctx context.Context, longURL string) (link string, retryable bool, err error) {
	body := bitlyShortenReq{
		LongURL: longURL,
		Domain:  c.Domain,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/shorten", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("bitly request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("bitly response read failed: %w", err)
	}

	var out bitlyShortenResp
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode < http.StatusBadRequest {
			return "", false, fmt.Errorf("bitly response decode failed: %w", err)
		}
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if out.Link == "" {
			return "", false, &ProviderError{Provider: "bitly", StatusCode: resp.StatusCode, Message: "empty link in response"}
		}
		return out.Link, false, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", true, &ProviderError{Provider: "bitly", StatusCode: resp.StatusCode, Message: providerMessage(out, raw)}
	default:
		// Client errors are final; retrying the same bad request cannot help
		return "", false, &ProviderError{Provider: "bitly", StatusCode: resp.StatusCode, Message: providerMessage(out, raw)}
	}
}

func providerMessage(out bitlyShortenResp, raw []byte) string {
	if out.Description != "" {
		return out.Description
	}
	if out.Message != "" {
		return out.Message
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return "unknown provider error"
}
