package checkend

import (
	"context"
	"sync"
	"time"

	"github.com/Checkend/checkend-go/internal/debuglog"
)

// Version is the SDK version reported in the notifier metadata and the
// User-Agent header.
const Version = "0.5.0"

var (
	defaultMu     sync.RWMutex
	defaultClient *Client
)

// Init configures the process-wide default client used by the package-level
// functions. Calling it again replaces the previous default client.
func Init(options ClientOptions) error {
	client, err := NewClient(options)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultClient = client
	defaultMu.Unlock()
	return nil
}

// CurrentClient returns the default client, or nil before Init.
func CurrentClient() *Client {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultClient
}

func withDefault(f func(client *Client)) {
	client := CurrentClient()
	if client == nil {
		debuglog.Println("not initialized, call Init first")
		return
	}
	f(client)
}

// Notify reports an error through the default client.
func Notify(err interface{}, opts ...NoticeOption) {
	withDefault(func(client *Client) {
		client.Notify(err, opts...)
	})
}

// NotifySync reports an error through the default client and waits for the
// transmission result.
func NotifySync(ctx context.Context, err interface{}, opts ...NoticeOption) *Ack {
	client := CurrentClient()
	if client == nil {
		debuglog.Println("not initialized, call Init first")
		return nil
	}
	return client.NotifySync(ctx, err, opts...)
}

// NotifyUncaught reports a raw uncaught-error signal through the default
// client.
func NotifyUncaught(sig ErrorSignal, opts ...NoticeOption) {
	withDefault(func(client *Client) {
		client.NotifyUncaught(sig, opts...)
	})
}

// NotifyRejection reports an unhandled rejection reason through the default
// client.
func NotifyRejection(reason interface{}, opts ...NoticeOption) {
	withDefault(func(client *Client) {
		client.NotifyRejection(reason, opts...)
	})
}

// NotifyPanic reports a recovered panic value through the default client.
func NotifyPanic(recovered interface{}, opts ...NoticeOption) {
	withDefault(func(client *Client) {
		client.NotifyPanic(recovered, opts...)
	})
}

// SetContext merges ctx into the default client's process-wide context.
func SetContext(ctx Context) {
	withDefault(func(client *Client) {
		client.SetContext(ctx)
	})
}

// SetRequest merges request metadata on the default client.
func SetRequest(request Context) {
	withDefault(func(client *Client) {
		client.SetRequest(request)
	})
}

// SetUser merges user metadata on the default client.
func SetUser(user Context) {
	withDefault(func(client *Client) {
		client.SetUser(user)
	})
}

// AddBeforeNotify registers a before-notify callback on the default client.
func AddBeforeNotify(callback BeforeNotifyFunc) {
	withDefault(func(client *Client) {
		client.AddBeforeNotify(callback)
	})
}

// Flush waits until the default client's queue is empty or the timeout
// elapses.
func Flush(timeout time.Duration) bool {
	client := CurrentClient()
	if client == nil {
		return true
	}
	return client.Flush(timeout)
}
