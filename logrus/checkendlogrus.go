// Package checkendlogrus provides a Logrus hook that forwards log entries to
// Checkend as notices.
package checkendlogrus

import (
	"time"

	checkend "github.com/Checkend/checkend-go"
	"github.com/sirupsen/logrus"
)

// These log field keys carry typed notice metadata. When present with the
// expected type they are lifted out of the entry data instead of being
// passed along as plain context.
const (
	// FieldUser holds a checkend.Context with user attributes.
	FieldUser = "user"
	// FieldFingerprint holds a string grouping key.
	FieldFingerprint = "fingerprint"
	// FieldTags holds a []string of notice tags.
	FieldTags = "tags"
)

// A FallbackFunc handles entries the hook could not report, before Logrus's
// own error reporting kicks in.
type FallbackFunc func(entry *logrus.Entry) error

// Hook is a logrus.Hook reporting matching entries as Checkend notices. The
// entry's error field (logrus.ErrorKey) becomes the reported error; without
// one, the entry message is reported instead. Remaining fields travel in the
// notice context.
type Hook struct {
	client   *checkend.Client
	levels   []logrus.Level
	fallback FallbackFunc
}

var _ logrus.Hook = (*Hook)(nil)

// New returns a hook reporting entries at the given levels through client.
// With no levels, Error, Fatal, and Panic are reported.
func New(client *checkend.Client, levels ...logrus.Level) *Hook {
	if len(levels) == 0 {
		levels = []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}
	}
	return &Hook{client: client, levels: levels}
}

// SetFallback sets a handler for entries that could not be reported.
func (h *Hook) SetFallback(fallback FallbackFunc) {
	h.fallback = fallback
}

// Levels returns the levels this hook fires on.
func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

// Fire reports the entry as a notice.
func (h *Hook) Fire(entry *logrus.Entry) error {
	if h.client == nil {
		if h.fallback != nil {
			return h.fallback(entry)
		}
		return nil
	}

	var reported interface{} = entry.Message
	fields := make(checkend.Context, len(entry.Data))
	for key, value := range entry.Data {
		fields[key] = value
	}

	if err, ok := fields[logrus.ErrorKey].(error); ok {
		delete(fields, logrus.ErrorKey)
		reported = err
	}

	opts := []checkend.NoticeOption{checkend.WithTags("log." + entry.Level.String())}

	if user, ok := fields[FieldUser].(checkend.Context); ok {
		delete(fields, FieldUser)
		opts = append(opts, checkend.WithUser(user))
	}
	if fingerprint, ok := fields[FieldFingerprint].(string); ok {
		delete(fields, FieldFingerprint)
		opts = append(opts, checkend.WithFingerprint(fingerprint))
	}
	if tags, ok := fields[FieldTags].([]string); ok {
		delete(fields, FieldTags)
		opts = append(opts, checkend.WithTags(tags...))
	}
	if len(fields) > 0 {
		opts = append(opts, checkend.WithContext(fields))
	}

	h.client.Notify(reported, opts...)
	return nil
}

// Flush waits for queued notices to be transmitted.
func (h *Hook) Flush(timeout time.Duration) bool {
	if h.client == nil {
		return true
	}
	return h.client.Flush(timeout)
}
