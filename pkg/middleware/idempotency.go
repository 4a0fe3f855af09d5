package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"
)

// IdempotencyStore keeps responses for replay. Entries expire after the
// store's TTL.
type IdempotencyStore interface {
	Get(key string) (*CachedResponse, bool)
	Set(key string, response *CachedResponse)
	Stop()
}

// CachedResponse is a completed response held for replay.
type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	CreatedAt  time.Time
}

func (cr *CachedResponse) replay(w http.ResponseWriter) {
	for key, values := range cr.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(cr.StatusCode)
	_, _ = w.Write(cr.Body)
}

// InMemoryIdempotencyStore holds cached responses in a map and sweeps
// expired entries hourly. Suitable for a single process; a multi-instance
// deployment needs a shared store behind the same interface.
type InMemoryIdempotencyStore struct {
	mu     sync.RWMutex
	store  map[string]*CachedResponse
	ttl    time.Duration
	stopCh chan struct{}
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		store:  make(map[string]*CachedResponse),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *InMemoryIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	s.mu.RLock()
	response, exists := s.store[key]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Since(response.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, false
	}
	return response, true
}

func (s *InMemoryIdempotencyStore) Set(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.CreatedAt = time.Now()
	s.store[key] = response
}

func (s *InMemoryIdempotencyStore) sweep() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.store {
				if time.Since(response.CreatedAt) > s.ttl {
					delete(s.store, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

// Stop ends the sweep goroutine.
func (s *InMemoryIdempotencyStore) Stop() {
	close(s.stopCh)
}

// bufferingWriter copies the outgoing response so it can be cached.
type bufferingWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (bw *bufferingWriter) WriteHeader(statusCode int) {
	bw.statusCode = statusCode
	bw.ResponseWriter.WriteHeader(statusCode)
}

func (bw *bufferingWriter) Write(b []byte) (int, error) {
	bw.body.Write(b)
	return bw.ResponseWriter.Write(b)
}

// Idempotency replays the cached response for a repeated Idempotency-Key,
// so a client retrying a booking request after a network failure gets the
// original outcome instead of a second attempt. Only 2xx responses are
// cached; a failed attempt may be retried fresh under the same key.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerName)
			if key == "" || !mutatesState(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if cached, found := store.Get(key); found {
				cached.replay(w)
				return
			}

			bw := &bufferingWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(bw, r)

			if bw.statusCode >= 200 && bw.statusCode < 300 {
				store.Set(key, &CachedResponse{
					StatusCode: bw.statusCode,
					Headers:    w.Header().Clone(),
					Body:       bw.body.Bytes(),
				})
			}
		})
	}
}

func mutatesState(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
