// Package everyayah provides an HTTP client for the everyayah.com
// recitation archive, which serves one MP3 file per verse.
package everyayah

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the everyayah.com data root.
	DefaultBaseURL = "https://everyayah.com/data"

	// DefaultUserAgent identifies the application to the archive.
	DefaultUserAgent = "QuranInsight/0.3.0 (https://github.com/dscarebd/quran-insight-sub003)"

	// DefaultRateLimit is 2 requests per second, to stay polite toward a
	// free third-party host.
	DefaultRateLimit = 2

	// DefaultTimeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// MaxAudioSize is the maximum verse audio size to download (20MB).
	// The longest verses at 192kbps stay well under this.
	MaxAudioSize = 20 * 1024 * 1024
)

// Common errors
var (
	// ErrVerseNotFound indicates the verse audio does not exist on the
	// archive (permanent failure).
	ErrVerseNotFound = errors.New("verse audio not found")

	// ErrRateLimited indicates the archive rejected us for request volume.
	ErrRateLimited = errors.New("rate limited")

	// ErrTemporaryFailure indicates a transient server-side failure.
	ErrTemporaryFailure = errors.New("temporary failure")
)

// IsPermanentError returns true if the error indicates a permanent failure.
func IsPermanentError(err error) bool {
	return errors.Is(err, ErrVerseNotFound)
}

// Client fetches verse audio from the everyayah archive.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	rateLimit  int
	limiter    *rateLimiter
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit sets the rate limit in requests per second.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		c.rateLimit = rps
		c.limiter = newRateLimiter(rps)
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a new everyayah client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		rateLimit: DefaultRateLimit,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.limiter == nil {
		c.limiter = newRateLimiter(c.rateLimit)
	}

	return c
}

// VerseURL returns the archive URL for a verse: surah and verse numbers are
// zero-padded to three digits, e.g. Alafasy_128kbps/001001.mp3.
func (c *Client) VerseURL(folder string, surah, verse int) string {
	return fmt.Sprintf("%s/%s/%03d%03d.mp3", c.baseURL, folder, surah, verse)
}

// FetchVerse downloads the audio for one verse from the given reciter folder.
func (c *Client) FetchVerse(ctx context.Context, folder string, surah, verse int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := c.VerseURL(folder, surah, verse)

	log.Debug().
		Str("folder", folder).
		Int("surah", surah).
		Int("verse", verse).
		Str("url", url).
		Msg("Fetching verse audio")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "audio/mpeg, audio/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success - read the audio
	case http.StatusNotFound:
		log.Debug().Str("url", url).Msg("Verse audio not found on archive")
		return nil, ErrVerseNotFound
	case http.StatusTooManyRequests:
		log.Warn().Str("url", url).Msg("Archive rate limit exceeded")
		return nil, ErrRateLimited
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		log.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("Archive temporary error")
		return nil, ErrTemporaryFailure
	default:
		log.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("Archive unexpected status")
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	limitedReader := io.LimitReader(resp.Body, MaxAudioSize)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrVerseNotFound
	}

	log.Debug().
		Str("url", url).
		Int("size", len(data)).
		Msg("Fetched verse audio")

	return data, nil
}

// rateLimiter implements a simple token bucket rate limiter
type rateLimiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastRequest time.Time
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &rateLimiter{
		interval: time.Second / time.Duration(requestsPerSecond),
	}
}

// Wait blocks until a request can be made
func (r *rateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	nextAllowed := r.lastRequest.Add(r.interval)

	if now.Before(nextAllowed) {
		waitTime := nextAllowed.Sub(now)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.lastRequest = time.Now()
	return nil
}
