// Package checkendhttp provides net/http middleware that reports panics in
// downstream handlers to Checkend, enriched with request metadata.
package checkendhttp

import (
	"net/http"
	"strings"
	"time"

	checkend "github.com/Checkend/checkend-go"
)

// Options configure a Handler.
type Options struct {
	// Client reports recovered panics. When nil, the package-level
	// default client is used.
	Client *checkend.Client
	// Repanic re-raises the recovered panic after reporting, so an outer
	// recovery middleware still sees it.
	Repanic bool
	// WaitForDelivery flushes the delivery queue before the response
	// goroutine continues. Useful when the process may exit right after.
	WaitForDelivery bool
	// FlushTimeout bounds WaitForDelivery. Defaults to 2 seconds.
	FlushTimeout time.Duration
}

// Handler wraps http handlers with panic reporting.
type Handler struct {
	client          *checkend.Client
	repanic         bool
	waitForDelivery bool
	flushTimeout    time.Duration
}

// New returns a Handler with the given options.
func New(options Options) *Handler {
	timeout := options.FlushTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &Handler{
		client:          options.Client,
		repanic:         options.Repanic,
		waitForDelivery: options.WaitForDelivery,
		flushTimeout:    timeout,
	}
}

// Handle wraps handler so that a panic below it is reported before the
// middleware either swallows it or re-raises it.
func (h *Handler) Handle(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer h.recoverWithCheckend(r)
		handler.ServeHTTP(w, r)
	})
}

// HandleFunc is Handle for a plain handler function.
func (h *Handler) HandleFunc(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer h.recoverWithCheckend(r)
		handler(w, r)
	}
}

func (h *Handler) recoverWithCheckend(r *http.Request) {
	recovered := recover()
	if recovered == nil {
		return
	}

	client := h.client
	if client == nil {
		client = checkend.CurrentClient()
	}
	if client != nil {
		client.NotifyPanic(recovered, checkend.WithRequest(requestInfo(r)))
		if h.waitForDelivery {
			client.Flush(h.flushTimeout)
		}
	}

	if h.repanic {
		panic(recovered)
	}
}

// requestInfo flattens the interesting parts of a request into a notice
// request bag. Header keys are lowercased so sensitive-key redaction catches
// them regardless of canonicalization.
func requestInfo(r *http.Request) checkend.Context {
	headers := make(checkend.Context, len(r.Header))
	for key, values := range r.Header {
		headers[strings.ToLower(key)] = strings.Join(values, "; ")
	}

	return checkend.Context{
		"url":          r.URL.String(),
		"method":       r.Method,
		"query_string": r.URL.RawQuery,
		"remote_addr":  r.RemoteAddr,
		"headers":      headers,
	}
}
