// Package checkendzerolog provides a zerolog writer that forwards log events
// to Checkend as notices.
package checkendzerolog

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	checkend "github.com/Checkend/checkend-go"
	"github.com/rs/zerolog"
)

// Options configure a Writer.
type Options struct {
	// Levels that trigger a notice. Defaults to Error, Fatal, and Panic.
	Levels []zerolog.Level
	// FlushTimeout bounds the flush performed by Close. Defaults to 3
	// seconds.
	FlushTimeout time.Duration
}

func (o *Options) setDefaults() {
	if len(o.Levels) == 0 {
		o.Levels = []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel}
	}
	if o.FlushTimeout == 0 {
		o.FlushTimeout = 3 * time.Second
	}
}

// Writer is an io.WriteCloser and zerolog.LevelWriter that reports matching
// events through a Checkend client. Hook it up as an extra log output:
//
//	w, _ := checkendzerolog.New(client, checkendzerolog.Options{})
//	logger := zerolog.New(zerolog.MultiLevelWriter(os.Stderr, w))
type Writer struct {
	client       *checkend.Client
	levels       map[zerolog.Level]struct{}
	flushTimeout time.Duration
}

var _ zerolog.LevelWriter = (*Writer)(nil)
var _ io.WriteCloser = (*Writer)(nil)

// New returns a Writer reporting through client.
func New(client *checkend.Client, options Options) (*Writer, error) {
	if client == nil {
		return nil, errors.New("checkendzerolog: client cannot be nil")
	}

	options.setDefaults()
	levels := make(map[zerolog.Level]struct{}, len(options.Levels))
	for _, level := range options.Levels {
		levels[level] = struct{}{}
	}

	return &Writer{
		client:       client,
		levels:       levels,
		flushTimeout: options.FlushTimeout,
	}, nil
}

// Write parses the event level out of the JSON payload and defers to
// WriteLevel.
func (w *Writer) Write(p []byte) (int, error) {
	level := zerolog.NoLevel
	var event map[string]interface{}
	if err := json.Unmarshal(p, &event); err == nil {
		if raw, ok := event[zerolog.LevelFieldName].(string); ok {
			if parsed, err := zerolog.ParseLevel(raw); err == nil {
				level = parsed
			}
		}
	}
	return w.WriteLevel(level, p)
}

// WriteLevel reports the event as a notice when its level is enabled. The
// event's error field becomes the reported error, the message its context;
// all other fields travel in the notice context bag.
func (w *Writer) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if _, enabled := w.levels[level]; !enabled {
		return len(p), nil
	}

	var event map[string]interface{}
	if err := json.Unmarshal(p, &event); err != nil {
		// Not a JSON event, nothing to report.
		return len(p), nil
	}

	message, _ := event[zerolog.MessageFieldName].(string)
	errText, hasErr := event[zerolog.ErrorFieldName].(string)

	fields := make(checkend.Context, len(event))
	for key, value := range event {
		switch key {
		case zerolog.MessageFieldName, zerolog.ErrorFieldName, zerolog.LevelFieldName, zerolog.TimestampFieldName:
			continue
		}
		fields[key] = value
	}

	opts := []checkend.NoticeOption{checkend.WithTags("log." + level.String())}
	if len(fields) > 0 {
		opts = append(opts, checkend.WithContext(fields))
	}

	switch {
	case hasErr && message != "":
		opts = append(opts, checkend.WithContext(checkend.Context{"log_message": message}))
		w.client.Notify(errText, opts...)
	case hasErr:
		w.client.Notify(errText, opts...)
	default:
		w.client.Notify(message, opts...)
	}

	return len(p), nil
}

// Close flushes queued notices.
func (w *Writer) Close() error {
	if !w.client.Flush(w.flushTimeout) {
		return errors.New("checkendzerolog: flush timed out")
	}
	return nil
}
