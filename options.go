package checkend

import (
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Checkend/checkend-go/internal/debuglog"
)

// DefaultEndpoint is the hosted ingestion service.
const DefaultEndpoint = "https://api.checkend.io"

// BeforeNotifyFunc runs before a notice is delivered. Returning false vetoes
// delivery and skips the remaining callbacks. A callback may enrich the
// notice Context before it is encoded; a panicking callback is logged and
// treated as a pass-through.
type BeforeNotifyFunc func(notice *Notice) bool

// ClientOptions configures a Client. The zero value reports to the hosted
// service; without an APIKey (option or CHECKEND_API_KEY) the client is
// inert.
type ClientOptions struct {
	// Endpoint is the base URL of the ingestion service. Defaults to
	// DefaultEndpoint, or CHECKEND_ENDPOINT when set.
	Endpoint string
	// APIKey authenticates the project. Falls back to CHECKEND_API_KEY.
	APIKey string
	// Disabled turns off all capture and delivery.
	Disabled bool
	// Environment tags every notice, e.g. "production". Falls back to
	// CHECKEND_ENVIRONMENT.
	Environment string
	// Timeout bounds each confirmable transmission attempt. Defaults to
	// 15 seconds.
	Timeout time.Duration
	// MaxQueueSize caps the delivery queue. When full, new notices are
	// dropped. Defaults to 100.
	MaxQueueSize int
	// IgnoreErrors suppresses notices whose class or message equals one
	// of these strings exactly.
	IgnoreErrors []string
	// IgnorePatterns suppresses notices whose class or message matches
	// one of these patterns.
	IgnorePatterns []*regexp.Regexp
	// SensitiveKeys extends the built-in sensitive key set used to
	// redact context, request, and user data.
	SensitiveKeys []string
	// BeforeNotify callbacks run in order before every delivery.
	BeforeNotify []BeforeNotifyFunc
	// EnableBeacon allows the best-effort transport to be tried before
	// the confirmable one on queued deliveries.
	EnableBeacon bool
	// Beacon is the best-effort transport primitive supplied by the
	// hosting environment.
	Beacon BeaconFunc
	// Transport overrides the delivery transport. Mainly for testing.
	Transport Transport
	// HTTPClient overrides the confirmable transport's HTTP client.
	HTTPClient *http.Client
	// HTTPTransport overrides the underlying RoundTripper.
	HTTPTransport http.RoundTripper
	// Debug writes SDK debug logging to stderr (or DebugWriter).
	Debug bool
	// DebugWriter receives debug logging when Debug is set.
	DebugWriter io.Writer
}

// envOptions are environment fallbacks for options left unset, so a client
// can be configured entirely from the process environment.
type envOptions struct {
	APIKey      string `env:"CHECKEND_API_KEY"`
	Endpoint    string `env:"CHECKEND_ENDPOINT"`
	Environment string `env:"CHECKEND_ENVIRONMENT"`
	Disabled    bool   `env:"CHECKEND_DISABLED"`
}

func (o *ClientOptions) setDefaults() {
	var fallback envOptions
	if err := env.Parse(&fallback); err != nil {
		debuglog.Printf("warning: reading environment failed: %v", err)
	}

	if o.APIKey == "" {
		o.APIKey = fallback.APIKey
	}
	if o.Endpoint == "" {
		o.Endpoint = fallback.Endpoint
	}
	if o.Environment == "" {
		o.Environment = fallback.Environment
	}
	if !o.Disabled {
		o.Disabled = fallback.Disabled
	}

	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxQueueSize == 0 {
		o.MaxQueueSize = defaultQueueSize
	}
}

func (o *ClientOptions) setupDebugLog() {
	switch {
	case o.DebugWriter != nil:
		debuglog.SetLogger(log.New(o.DebugWriter, "[checkend] ", log.LstdFlags))
	case o.Debug:
		debuglog.SetOutput(os.Stderr)
	}
}
