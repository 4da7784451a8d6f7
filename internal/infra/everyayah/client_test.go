package everyayah

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestFetchVerse_Success(t *testing.T) {
	audioData := []byte{0x49, 0x44, 0x33, 0x04} // ID3 tag magic bytes
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request format: /{folder}/SSSVVV.mp3
		if r.URL.Path != "/Alafasy_128kbps/001001.mp3" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audioData)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	data, err := client.FetchVerse(context.Background(), "Alafasy_128kbps", 1, 1)
	if err != nil {
		t.Fatalf("FetchVerse failed: %v", err)
	}
	if !bytes.Equal(data, audioData) {
		t.Errorf("expected %d bytes, got %d", len(audioData), len(data))
	}
}

func TestVerseURL_ZeroPadding(t *testing.T) {
	client := NewClient()

	tests := []struct {
		surah, verse int
		want         string
	}{
		{1, 1, "https://everyayah.com/data/Alafasy_128kbps/001001.mp3"},
		{2, 255, "https://everyayah.com/data/Alafasy_128kbps/002255.mp3"},
		{114, 6, "https://everyayah.com/data/Alafasy_128kbps/114006.mp3"},
	}

	for _, tt := range tests {
		got := client.VerseURL("Alafasy_128kbps", tt.surah, tt.verse)
		if got != tt.want {
			t.Errorf("VerseURL(%d,%d) = %q, want %q", tt.surah, tt.verse, got, tt.want)
		}
	}
}

func TestFetchVerse_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.FetchVerse(context.Background(), "Alafasy_128kbps", 1, 8)
	if !errors.Is(err, ErrVerseNotFound) {
		t.Errorf("expected ErrVerseNotFound, got %v", err)
	}
	if !IsPermanentError(err) {
		t.Error("404 should be a permanent error")
	}
}

func TestFetchVerse_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.FetchVerse(context.Background(), "Alafasy_128kbps", 1, 1)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if IsPermanentError(err) {
		t.Error("429 should not be a permanent error")
	}
}

func TestFetchVerse_TemporaryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.FetchVerse(context.Background(), "Alafasy_128kbps", 1, 1)
	if !errors.Is(err, ErrTemporaryFailure) {
		t.Errorf("expected ErrTemporaryFailure, got %v", err)
	}
}

func TestFetchVerse_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.FetchVerse(context.Background(), "Alafasy_128kbps", 1, 1)
	if !errors.Is(err, ErrVerseNotFound) {
		t.Errorf("expected ErrVerseNotFound for empty body, got %v", err)
	}
}

func TestRateLimiting(t *testing.T) {
	var mu sync.Mutex
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestCount++
		mu.Unlock()
		w.Write([]byte("audio"))
	}))
	defer server.Close()

	// 10 rps -> 100ms between requests
	client := NewClient(WithBaseURL(server.URL), WithRateLimit(10))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.FetchVerse(context.Background(), "Alafasy_128kbps", 1, i+1); err != nil {
			t.Fatalf("FetchVerse failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	mu.Lock()
	count := requestCount
	mu.Unlock()

	if count != 3 {
		t.Errorf("expected 3 requests, got %d", count)
	}
	// Three requests paced at 100ms must take at least 200ms
	if elapsed < 200*time.Millisecond {
		t.Errorf("rate limiter not pacing requests: took %v", elapsed)
	}
}

func TestRateLimiter_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(1))

	// First request consumes the token
	if _, err := client.FetchVerse(context.Background(), "Alafasy_128kbps", 1, 1); err != nil {
		t.Fatalf("FetchVerse failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchVerse(ctx, "Alafasy_128kbps", 1, 2)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline error, got %v", err)
	}
}
