package checkend

import (
	"context"
	"sync"
	"time"
)

// MockTransport implements [Transport] for use in tests.
type MockTransport struct {
	mu          sync.Mutex
	payloads    []*Payload
	lastPayload *Payload

	// RejectEnqueue makes Enqueue behave as a full queue.
	RejectEnqueue bool
	// SendAck is returned by SendNow; nil simulates delivery failure.
	SendAck *Ack
}

func (t *MockTransport) Enqueue(payload *Payload) bool {
	if t.RejectEnqueue {
		return false
	}
	t.record(payload)
	return true
}

func (t *MockTransport) SendNow(_ context.Context, payload *Payload) *Ack {
	t.record(payload)
	return t.SendAck
}

func (t *MockTransport) Flush(_ time.Duration) bool {
	return true
}

func (t *MockTransport) record(payload *Payload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.payloads = append(t.payloads, payload)
	t.lastPayload = payload
}

// Payloads returns every payload handed to the transport, in order.
func (t *MockTransport) Payloads() []*Payload {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Payload(nil), t.payloads...)
}

// LastPayload returns the most recent payload, or nil.
func (t *MockTransport) LastPayload() *Payload {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastPayload
}
