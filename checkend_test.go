package checkend

import (
	"context"
	"errors"
	"testing"
	"time"
)

func resetDefaultClient() {
	defaultMu.Lock()
	defaultClient = nil
	defaultMu.Unlock()
}

func TestPackageLevelBeforeInitIsSafe(t *testing.T) {
	resetDefaultClient()

	// none of these may panic
	Notify(errors.New("boom"))
	NotifyPanic("boom")
	NotifyRejection("boom")
	NotifyUncaught(ErrorSignal{Message: "boom"})
	SetContext(Context{"a": 1})
	SetUser(Context{"id": 1})
	SetRequest(Context{"path": "/"})
	AddBeforeNotify(func(*Notice) bool { return true })

	if ack := NotifySync(context.Background(), errors.New("boom")); ack != nil {
		t.Error("expected nil ack before Init")
	}
	assertEqual(t, Flush(time.Millisecond), true)
	if CurrentClient() != nil {
		t.Error("expected nil client before Init")
	}
}

func TestInitEndToEnd(t *testing.T) {
	resetDefaultClient()
	server := newRecordingServer()
	defer server.Close()

	err := Init(ClientOptions{
		APIKey:      "test-key",
		Endpoint:    server.URL,
		Environment: "production",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resetDefaultClient()

	Notify(errors.New("boom"))
	assertEqual(t, Flush(5*time.Second), true)

	received := server.received()
	if len(received) != 1 {
		t.Fatalf("expected exactly one payload, got %d", len(received))
	}
	payload := received[0]
	assertEqual(t, payload.Error.Class, "Error")
	assertEqual(t, payload.Error.Message, "boom")
	assertEqual(t, payload.Context["environment"], "production")
	assertEqual(t, payload.Notifier.Name, "checkend-go")
}

func TestInitDisabledSendsNothing(t *testing.T) {
	resetDefaultClient()
	server := newRecordingServer()
	defer server.Close()

	err := Init(ClientOptions{
		APIKey:   "test-key",
		Endpoint: server.URL,
		Disabled: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resetDefaultClient()

	Notify(errors.New("boom"))
	assertEqual(t, Flush(5*time.Second), true)

	assertEqual(t, len(server.received()), 0)
}

func TestInitRateLimitedResolvesWithoutRetry(t *testing.T) {
	resetDefaultClient()
	server := newRecordingServer()
	server.status = 429
	defer server.Close()

	err := Init(ClientOptions{
		APIKey:   "test-key",
		Endpoint: server.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resetDefaultClient()

	if ack := NotifySync(context.Background(), errors.New("boom")); ack != nil {
		t.Error("expected nil ack on 429")
	}

	// nothing left queued for retry
	transport := CurrentClient().transport.(*httpTransport)
	transport.mu.Lock()
	assertEqual(t, len(transport.queue), 0)
	transport.mu.Unlock()
}

func TestInitReplacesDefaultClient(t *testing.T) {
	resetDefaultClient()
	defer resetDefaultClient()

	if err := Init(ClientOptions{APIKey: "first"}); err != nil {
		t.Fatal(err)
	}
	first := CurrentClient()

	if err := Init(ClientOptions{APIKey: "second"}); err != nil {
		t.Fatal(err)
	}

	assertNotEqual(t, CurrentClient(), first)
	assertEqual(t, CurrentClient().Options().APIKey, "second")
}
