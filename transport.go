package checkend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Checkend/checkend-go/internal/debuglog"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultQueueSize = 100
)

// maxDrainResponseBytes bounds how much of a response body is read when
// draining it. Ingestion responses are short, but net/http needs bodies
// fully drained and closed for TCP keep-alive to work.
const maxDrainResponseBytes = 16 << 10

// Ack is the server acknowledgment for an accepted notice.
type Ack struct {
	ID        int64 `json:"id"`
	ProblemID int64 `json:"problem_id"`
}

// BeaconFunc is the best-effort "fire data at URL" primitive supplied by the
// hosting environment. It returns whether the platform accepted the data for
// out-of-band delivery; there is no server response.
type BeaconFunc func(url string, body []byte) bool

// Transport delivers encoded payloads to the ingestion service.
type Transport interface {
	// Enqueue appends the payload to the delivery queue and triggers a
	// drain. It reports false when the queue is at capacity and the
	// payload was dropped.
	Enqueue(payload *Payload) bool
	// SendNow bypasses the queue and transmits immediately, returning the
	// server acknowledgment or nil on any failure.
	SendNow(ctx context.Context, payload *Payload) *Ack
	// Flush waits until the queue is empty or the timeout elapses.
	Flush(timeout time.Duration) bool
}

// httpTransport is the default Transport. It owns a bounded FIFO queue
// drained by a single in-flight transmission, and picks the best-effort
// beacon over the confirmable POST when one is configured.
type httpTransport struct {
	endpoint  *Endpoint
	client    *http.Client
	timeout   time.Duration
	capacity  int
	beacon    BeaconFunc
	useBeacon bool

	mu       sync.Mutex
	queue    []*Payload
	draining bool
	pending  sync.WaitGroup
}

func newHTTPTransport(options ClientOptions, endpoint *Endpoint) *httpTransport {
	t := &httpTransport{
		endpoint:  endpoint,
		timeout:   options.Timeout,
		capacity:  options.MaxQueueSize,
		beacon:    options.Beacon,
		useBeacon: options.EnableBeacon,
	}

	if options.HTTPClient != nil {
		t.client = options.HTTPClient
	} else {
		t.client = &http.Client{Transport: options.HTTPTransport}
	}

	return t
}

func (t *httpTransport) Enqueue(payload *Payload) bool {
	t.mu.Lock()
	if len(t.queue) >= t.capacity {
		t.mu.Unlock()
		debuglog.Printf("warning: queue full (capacity %d), notice dropped", t.capacity)
		return false
	}
	t.queue = append(t.queue, payload)
	t.pending.Add(1)
	start := !t.draining
	if start {
		t.draining = true
	}
	t.mu.Unlock()

	if start {
		go t.drain()
	}
	return true
}

// drain pops and transmits queued payloads in FIFO order until the queue is
// empty. The queue length is re-checked every iteration so entries appended
// mid-drain are picked up by the active pass; the draining flag guarantees a
// single pass at a time.
func (t *httpTransport) drain() {
	for {
		t.mu.Lock()
		if len(t.queue) == 0 {
			t.draining = false
			t.mu.Unlock()
			return
		}
		payload := t.queue[0]
		t.queue = t.queue[1:]
		t.mu.Unlock()

		t.deliver(payload)
		t.pending.Done()
	}
}

// deliver is one queued transmission attempt: beacon first when permitted,
// confirmable POST otherwise. Failures are logged, never returned.
func (t *httpTransport) deliver(payload *Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		debuglog.Printf("warning: encoding notice failed: %v", err)
		return
	}

	if t.useBeacon && t.beacon != nil {
		if t.beacon(t.endpoint.BeaconURL(), body) {
			debuglog.Println("notice handed to beacon transport")
			return
		}
		debuglog.Println("beacon transport unavailable, falling back to request")
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	t.post(ctx, body)
}

// SendNow always uses the confirmable transport: the caller asked for a
// result and the beacon cannot produce one.
func (t *httpTransport) SendNow(ctx context.Context, payload *Payload) *Ack {
	body, err := json.Marshal(payload)
	if err != nil {
		debuglog.Printf("warning: encoding notice failed: %v", err)
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.post(ctx, body)
}

func (t *httpTransport) Flush(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		t.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		debuglog.Println("flush timed out with notices still queued")
		return false
	}
}

// post transmits one encoded payload and maps the response status onto the
// delivery outcome. All failures collapse to nil; only a 201 produces an Ack.
func (t *httpTransport) post(ctx context.Context, body []byte) *Ack {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint.NoticeURL(), bytes.NewReader(body))
	if err != nil {
		debuglog.Printf("warning: building request failed: %v", err)
		return nil
	}
	for key, value := range t.endpoint.RequestHeaders() {
		request.Header.Set(key, value)
	}

	response, err := t.client.Do(request)
	if err != nil {
		debuglog.Printf("error: sending notice failed: %v", err)
		return nil
	}
	defer func() {
		// Drain up to a limit and close, so the connection can be reused.
		_, _ = io.CopyN(io.Discard, response.Body, maxDrainResponseBytes)
		response.Body.Close()
	}()

	switch {
	case response.StatusCode == http.StatusCreated:
		var ack Ack
		if err := json.NewDecoder(io.LimitReader(response.Body, maxDrainResponseBytes)).Decode(&ack); err != nil {
			debuglog.Printf("warning: decoding acknowledgment failed: %v", err)
			return nil
		}
		debuglog.Printf("notice accepted: id=%d problem_id=%d", ack.ID, ack.ProblemID)
		return &ack
	case response.StatusCode == http.StatusBadRequest:
		debuglog.Println("warning: ingestion rejected malformed notice")
	case response.StatusCode == http.StatusUnauthorized:
		debuglog.Println("error: invalid API key, notice rejected")
	case response.StatusCode == http.StatusUnprocessableEntity:
		debuglog.Println("warning: notice failed server-side validation")
	case response.StatusCode == http.StatusTooManyRequests:
		debuglog.Println("warning: rate limited, notice dropped")
	case response.StatusCode >= 500:
		debuglog.Printf("error: server failure %d, notice dropped", response.StatusCode)
	default:
		debuglog.Printf("warning: unexpected response status %d", response.StatusCode)
	}
	return nil
}
