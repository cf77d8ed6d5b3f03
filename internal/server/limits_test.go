package server_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/go-kokoro-g2p/internal/server"
)

// blockingPhonemizer blocks until its context is done or release is closed.
type blockingPhonemizer struct {
	release chan struct{}
	current atomic.Int32
	mu      sync.Mutex
	peak    int32
	entered chan struct{}
}

func (b *blockingPhonemizer) Phonemize(ctx context.Context, _, _ string, _ bool) (string, error) {
	n := b.current.Add(1)
	defer b.current.Add(-1)

	b.mu.Lock()
	if n > b.peak {
		b.peak = n
	}
	b.mu.Unlock()

	if b.entered != nil {
		b.entered <- struct{}{}
	}

	select {
	case <-b.release:
		return "ok", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestPhonemize_RequestTimeout(t *testing.T) {
	ph := &blockingPhonemizer{release: make(chan struct{})}
	h := server.NewHandler(ph, nil, server.WithRequestTimeout(20*time.Millisecond))

	rec := post(t, h, "/phonemize", `{"text":"Hello."}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("want 504 on timeout, got %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] == "" {
		t.Error("want non-empty error field")
	}
}

func TestPhonemize_ConcurrencyThrottling(t *testing.T) {
	const workers = 2
	const totalRequests = 5

	ph := &blockingPhonemizer{
		release: make(chan struct{}),
		entered: make(chan struct{}, totalRequests),
	}
	h := server.NewHandler(ph, nil, server.WithWorkers(workers))

	var wg sync.WaitGroup
	codes := make([]int, totalRequests)
	for i := range totalRequests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = post(t, h, "/phonemize", `{"text":"hi"}`).Code
		}()
	}

	// Wait until the worker slots are full, give the rest a moment to queue.
	for range workers {
		<-ph.entered
	}
	time.Sleep(20 * time.Millisecond)
	if got := ph.current.Load(); got != workers {
		t.Errorf("in flight = %d; want %d", got, workers)
	}

	close(ph.release)
	wg.Wait()

	ph.mu.Lock()
	peak := ph.peak
	ph.mu.Unlock()
	if peak > workers {
		t.Errorf("peak concurrency = %d; want <= %d", peak, workers)
	}
	for i, c := range codes {
		if c != http.StatusOK {
			t.Errorf("request %d: want 200, got %d", i, c)
		}
	}
}
