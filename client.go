package checkend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Checkend/checkend-go/internal/debuglog"
)

// unhandledTag marks notices that reached the SDK through a global signal
// (uncaught error, rejection, or recovered panic) rather than an explicit
// Notify call.
const unhandledTag = "unhandled"

// Client is the orchestrator of the notice pipeline: it checks policy,
// merges and sanitizes metadata, normalizes errors into notices, runs
// before-notify callbacks, and hands the encoded payload to the transport.
type Client struct {
	options   ClientOptions
	endpoint  *Endpoint
	transport Transport
	sanitizer *sanitizer

	mu        sync.Mutex
	context   Context
	request   Context
	user      Context
	callbacks []BeforeNotifyFunc
}

// NewClient builds a Client from options. Invalid endpoint URLs are the only
// hard failure; a missing API key degrades the client to inert with a single
// warning.
func NewClient(options ClientOptions) (*Client, error) {
	options.setupDebugLog()
	options.setDefaults()

	endpoint, err := NewEndpoint(options.Endpoint, options.APIKey)
	if err != nil {
		return nil, err
	}

	transport := options.Transport
	if transport == nil {
		transport = newHTTPTransport(options, endpoint)
	}

	if options.APIKey == "" {
		debuglog.Println("warning: no API key configured, error reporting is disabled")
	}

	return &Client{
		options:   options,
		endpoint:  endpoint,
		transport: transport,
		sanitizer: newSanitizer(options.SensitiveKeys),
		callbacks: append([]BeforeNotifyFunc(nil), options.BeforeNotify...),
	}, nil
}

// Notify reports an error asynchronously: the notice is queued and the call
// returns immediately. The error may be a Go error, an ErrorSignal, a
// string, or any other value.
func (c *Client) Notify(err interface{}, opts ...NoticeOption) {
	if notice := c.prepare(paramsFromAny(err), nil, opts); notice != nil {
		c.transport.Enqueue(newPayload(notice))
	}
}

// NotifySync reports an error and waits for the transmission result. It
// returns the server acknowledgment, or nil when the notice was skipped,
// vetoed, or delivery failed. It never returns an error and never panics.
func (c *Client) NotifySync(ctx context.Context, err interface{}, opts ...NoticeOption) *Ack {
	notice := c.prepare(paramsFromAny(err), nil, opts)
	if notice == nil {
		return nil
	}
	return c.transport.SendNow(ctx, newPayload(notice))
}

// NotifyUncaught reports a raw uncaught-error signal handed over by a
// platform hook. The notice is force-tagged as unhandled.
func (c *Client) NotifyUncaught(sig ErrorSignal, opts ...NoticeOption) {
	if notice := c.prepare(paramsFromSignal(sig), []string{unhandledTag}, opts); notice != nil {
		c.transport.Enqueue(newPayload(notice))
	}
}

// NotifyRejection reports an unhandled rejection reason. Non-error reasons
// are normalized into a synthetic error before the ignore check: strings
// keep their text, anything else is stringified.
func (c *Client) NotifyRejection(reason interface{}, opts ...NoticeOption) {
	var params noticeParams
	switch r := reason.(type) {
	case error:
		params = paramsFromError(r)
	case string:
		params = noticeParams{errorClass: rejectionErrorClass, message: r}
	default:
		params = noticeParams{errorClass: rejectionErrorClass, message: fmt.Sprintf("%v", r)}
	}

	if notice := c.prepare(params, []string{unhandledTag}, opts); notice != nil {
		c.transport.Enqueue(newPayload(notice))
	}
}

// NotifyPanic reports a recovered panic value, force-tagged as unhandled.
// Intended for recover() sites such as HTTP middleware.
func (c *Client) NotifyPanic(recovered interface{}, opts ...NoticeOption) {
	if notice := c.prepare(paramsFromAny(recovered), []string{unhandledTag}, opts); notice != nil {
		c.transport.Enqueue(newPayload(notice))
	}
}

// Flush waits until all queued notices have been transmitted or the timeout
// elapses, reporting whether the queue fully drained.
func (c *Client) Flush(timeout time.Duration) bool {
	return c.transport.Flush(timeout)
}

// prepare runs the front half of the pipeline: policy checks, metadata
// merge and sanitization, normalization, and before-notify callbacks. A nil
// result means the notice was skipped.
func (c *Client) prepare(params noticeParams, forcedTags []string, opts []NoticeOption) *Notice {
	if !c.enabled() {
		debuglog.Println("reporting disabled, notice skipped")
		return nil
	}

	for _, opt := range opts {
		opt(&params)
	}
	params.tags = append(params.tags, forcedTags...)

	class := params.errorClass
	if class == "" {
		class = defaultErrorClass
	}
	if c.ignored(class, params.message) {
		debuglog.Printf("notice matches ignore list (%s), skipped", class)
		return nil
	}

	c.mu.Lock()
	params.context = mergeContext(c.context, params.context)
	params.request = mergeContext(c.request, params.request)
	params.user = mergeContext(c.user, params.user)
	callbacks := append([]BeforeNotifyFunc(nil), c.callbacks...)
	c.mu.Unlock()

	params.context = c.sanitizer.sanitize(params.context)
	params.request = c.sanitizer.sanitize(params.request)
	params.user = c.sanitizer.sanitize(params.user)

	notice := newNotice(params, c.options.Environment)

	for _, callback := range callbacks {
		if !c.invokeCallback(callback, notice) {
			debuglog.Printf("notice %s vetoed by before-notify callback", notice.ID)
			return nil
		}
	}

	return notice
}

func (c *Client) enabled() bool {
	return !c.options.Disabled && c.options.APIKey != ""
}

func (c *Client) ignored(class, message string) bool {
	for _, s := range c.options.IgnoreErrors {
		if s == class || s == message {
			return true
		}
	}
	for _, pattern := range c.options.IgnorePatterns {
		if pattern.MatchString(class) || pattern.MatchString(message) {
			return true
		}
	}
	return false
}

// invokeCallback isolates a single before-notify callback: a panic inside it
// is logged and treated as a pass-through.
func (c *Client) invokeCallback(callback BeforeNotifyFunc, notice *Notice) (pass bool) {
	defer func() {
		if r := recover(); r != nil {
			debuglog.Printf("warning: before-notify callback panicked: %v", r)
			pass = true
		}
	}()
	return callback(notice)
}

// AddBeforeNotify registers a callback to run before every delivery, after
// those passed in ClientOptions.
func (c *Client) AddBeforeNotify(callback BeforeNotifyFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, callback)
}

// SetContext merges ctx into the process-wide context attached to every
// notice.
func (c *Client) SetContext(ctx Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = mergeContext(c.context, ctx)
}

// Context returns a shallow copy of the process-wide context. Mutating the
// returned map does not affect the client.
func (c *Client) Context() Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ensureContext(mergeContext(c.context, nil))
}

// SetRequest merges request metadata attached to every notice.
func (c *Client) SetRequest(request Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.request = mergeContext(c.request, request)
}

// Request returns a shallow copy of the process-wide request metadata.
func (c *Client) Request() Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ensureContext(mergeContext(c.request, nil))
}

// SetUser merges user metadata attached to every notice.
func (c *Client) SetUser(user Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = mergeContext(c.user, user)
}

// User returns a shallow copy of the process-wide user metadata.
func (c *Client) User() Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ensureContext(mergeContext(c.user, nil))
}

// Options returns the settled options the client was built with.
func (c *Client) Options() ClientOptions {
	return c.options
}

// Endpoint returns the parsed ingestion endpoint.
func (c *Client) Endpoint() *Endpoint {
	return c.endpoint
}
