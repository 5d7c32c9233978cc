package checkend

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

const (
	defaultErrorClass   = "Error"
	defaultMessage      = "Unknown error"
	rejectionErrorClass = "UnhandledRejection"

	maxMessageLength = 10000
	truncationMarker = "..."
)

// Context is an open string-keyed bag of metadata. The same shape is used for
// the context, request, and user sections of a notice.
type Context map[string]interface{}

// Notice is the canonical record of a single error occurrence, ready for wire
// encoding. Once built by the client it is not mutated by the delivery
// pipeline; before-notify callbacks may enrich the Context bag before the
// notice is encoded, which is the supported extension point.
type Notice struct {
	// ID identifies the notice in debug logs. It is not part of the wire
	// payload.
	ID string

	ErrorClass  string
	Message     string
	Backtrace   []string
	Fingerprint string
	Tags        []string
	Context     Context
	Request     Context
	User        Context
	Environment string
	OccurredAt  string
}

// noticeParams collects raw input and per-call overrides before
// normalization.
type noticeParams struct {
	errorClass  string
	message     string
	stack       string
	backtrace   []string
	source      string
	line        int
	column      int
	fingerprint string
	tags        []string
	context     Context
	request     Context
	user        Context
}

// NoticeOption is a per-call override passed to Notify and its variants.
type NoticeOption func(*noticeParams)

// WithContext merges ctx into the notice context, on top of the process-wide
// context.
func WithContext(ctx Context) NoticeOption {
	return func(p *noticeParams) {
		p.context = mergeContext(p.context, ctx)
	}
}

// WithRequest merges request metadata into the notice request section.
func WithRequest(request Context) NoticeOption {
	return func(p *noticeParams) {
		p.request = mergeContext(p.request, request)
	}
}

// WithUser merges user metadata into the notice user section.
func WithUser(user Context) NoticeOption {
	return func(p *noticeParams) {
		p.user = mergeContext(p.user, user)
	}
}

// WithTags appends grouping tags to the notice.
func WithTags(tags ...string) NoticeOption {
	return func(p *noticeParams) {
		p.tags = append(p.tags, tags...)
	}
}

// WithFingerprint sets the grouping key passed through verbatim to the
// server.
func WithFingerprint(fingerprint string) NoticeOption {
	return func(p *noticeParams) {
		p.fingerprint = fingerprint
	}
}

// WithErrorClass overrides the derived error class.
func WithErrorClass(class string) NoticeOption {
	return func(p *noticeParams) {
		p.errorClass = class
	}
}

// WithMessage overrides the derived error message.
func WithMessage(message string) NoticeOption {
	return func(p *noticeParams) {
		p.message = message
	}
}

// ErrorSignal is a raw error signal as delivered by a platform's global
// error hook: either an error object's fields or a message plus source
// location. Missing fields degrade to defaults rather than erroring.
type ErrorSignal struct {
	Name    string
	Message string
	Stack   string
	Source  string
	Line    int
	Column  int
}

// newNotice normalizes collected params into an immutable Notice.
func newNotice(p noticeParams, environment string) *Notice {
	class := p.errorClass
	if class == "" {
		class = defaultErrorClass
	}

	message := p.message
	if message == "" {
		message = defaultMessage
	}

	backtrace := p.backtrace
	if backtrace == nil {
		switch {
		case p.stack != "":
			backtrace = parseBacktrace(p.stack)
		case p.source != "":
			backtrace = []string{fmt.Sprintf("%s:%d:%d", p.source, p.line, p.column)}
		}
	}
	if backtrace == nil {
		backtrace = []string{}
	}

	return &Notice{
		ID:          uuid.NewString(),
		ErrorClass:  class,
		Message:     truncate(message),
		Backtrace:   backtrace,
		Fingerprint: p.fingerprint,
		Tags:        p.tags,
		Context:     ensureContext(p.context),
		Request:     ensureContext(p.request),
		User:        ensureContext(p.user),
		Environment: environment,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

// truncate caps a message at maxMessageLength runes. Overflowing messages are
// cut so that the result, marker included, is exactly the cap.
func truncate(message string) string {
	runes := []rune(message)
	if len(runes) <= maxMessageLength {
		return message
	}
	return string(runes[:maxMessageLength-len(truncationMarker)]) + truncationMarker
}

// paramsFromError derives class, message, and backtrace from a Go error.
func paramsFromError(err error) noticeParams {
	if err == nil {
		return noticeParams{}
	}
	return noticeParams{
		errorClass: errorClassOf(err),
		message:    err.Error(),
		backtrace:  extractErrorBacktrace(err),
	}
}

// paramsFromSignal maps a raw platform signal onto notice params.
func paramsFromSignal(sig ErrorSignal) noticeParams {
	return noticeParams{
		errorClass: sig.Name,
		message:    sig.Message,
		stack:      sig.Stack,
		source:     sig.Source,
		line:       sig.Line,
		column:     sig.Column,
	}
}

// paramsFromAny accepts whatever the caller or a recover() handed us.
func paramsFromAny(v interface{}) noticeParams {
	switch val := v.(type) {
	case nil:
		return noticeParams{}
	case error:
		return paramsFromError(val)
	case ErrorSignal:
		return paramsFromSignal(val)
	case string:
		return noticeParams{message: val}
	default:
		return noticeParams{message: fmt.Sprintf("%v", val)}
	}
}

// errorClassOf reports the dynamic type name of err. Stdlib error wrappers
// carry no class of their own and map to the default.
func errorClassOf(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return defaultErrorClass
	}
	name := t.String()
	if t.Kind() == reflect.Ptr {
		name = t.Elem().String()
	}
	switch name {
	case "errors.errorString", "errors.joinError", "fmt.wrapError", "fmt.wrapErrors",
		"errors.fundamental", "errors.withStack", "errors.withMessage":
		return defaultErrorClass
	}
	return name
}

func mergeContext(base, override Context) Context {
	if base == nil && override == nil {
		return nil
	}
	merged := make(Context, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func ensureContext(ctx Context) Context {
	if ctx == nil {
		return Context{}
	}
	return ctx
}
