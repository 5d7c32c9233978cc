package checkend

import "runtime"

// SDK identity reported in every payload's notifier block.
const (
	sdkName   = "checkend-go"
	language  = "go"
	userAgent = sdkName + "/" + Version
)

// Payload is the wire-format encoding of a Notice, posted as JSON to the
// ingestion endpoint.
type Payload struct {
	Error    PayloadError `json:"error"`
	Context  Context      `json:"context"`
	Request  Context      `json:"request"`
	User     Context      `json:"user"`
	Notifier NotifierInfo `json:"notifier"`
}

type PayloadError struct {
	Class       string   `json:"class"`
	Message     string   `json:"message"`
	Backtrace   []string `json:"backtrace"`
	OccurredAt  string   `json:"occurred_at"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type NotifierInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Language        string `json:"language"`
	LanguageVersion string `json:"language_version"`
}

var notifierInfo = NotifierInfo{
	Name:            sdkName,
	Version:         Version,
	Language:        language,
	LanguageVersion: runtime.Version(),
}

// newPayload maps a Notice onto the wire shape. It is total and
// deterministic: the same notice always encodes to the same payload.
func newPayload(notice *Notice) *Payload {
	backtrace := notice.Backtrace
	if backtrace == nil {
		backtrace = []string{}
	}

	context := ensureContext(notice.Context)
	if notice.Environment != "" {
		context = mergeContext(context, Context{"environment": notice.Environment})
	}

	return &Payload{
		Error: PayloadError{
			Class:       notice.ErrorClass,
			Message:     notice.Message,
			Backtrace:   backtrace,
			OccurredAt:  notice.OccurredAt,
			Fingerprint: notice.Fingerprint,
			Tags:        notice.Tags,
		},
		Context:  context,
		Request:  ensureContext(notice.Request),
		User:     ensureContext(notice.User),
		Notifier: notifierInfo,
	}
}
