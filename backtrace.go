package checkend

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	goerrors "github.com/go-errors/errors"
)

const (
	maxFrames   = 100
	frameMarker = "at "
)

// parseBacktrace splits a raw stack trace string into trimmed frame lines.
// Lines starting with the frame marker win; when none match, every non-empty
// line is kept instead. The result is capped at maxFrames.
func parseBacktrace(stack string) []string {
	var frames []string
	var fallback []string

	for _, line := range strings.Split(stack, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(fallback) < maxFrames {
			fallback = append(fallback, line)
		}
		if strings.HasPrefix(line, frameMarker) && len(frames) < maxFrames {
			frames = append(frames, line)
		}
	}

	if len(frames) > 0 {
		return frames
	}
	return fallback
}

// extractErrorBacktrace derives frame lines from errors that carry their own
// stack trace. Supported shapes: go-errors values and anything exposing a
// StackTrace() method returning a slice of program counters, which covers
// github.com/pkg/errors and its forks such as github.com/pingcap/errors.
func extractErrorBacktrace(err error) []string {
	if e, ok := err.(*goerrors.Error); ok {
		return framesFromGoErrors(e)
	}
	if pcs := stackTracePCs(err); len(pcs) > 0 {
		return framesFromPCs(pcs)
	}
	return nil
}

func framesFromGoErrors(e *goerrors.Error) []string {
	stackFrames := e.StackFrames()
	if len(stackFrames) > maxFrames {
		stackFrames = stackFrames[:maxFrames]
	}
	frames := make([]string, 0, len(stackFrames))
	for _, f := range stackFrames {
		frames = append(frames, fmt.Sprintf("%s%s.%s (%s:%d)", frameMarker, f.Package, f.Name, f.File, f.LineNumber))
	}
	return frames
}

// stackTracePCs pulls program counters out of a StackTrace() method by
// reflection. pkg/errors and pingcap/errors each return their own frame
// type, so a single interface assertion cannot cover both.
func stackTracePCs(err error) []uintptr {
	method := reflect.ValueOf(err).MethodByName("StackTrace")
	if !method.IsValid() || method.Type().NumIn() != 0 || method.Type().NumOut() != 1 {
		return nil
	}

	trace := method.Call(nil)[0]
	if trace.Kind() != reflect.Slice {
		return nil
	}

	n := trace.Len()
	if n > maxFrames {
		n = maxFrames
	}
	pcs := make([]uintptr, 0, n)
	for i := 0; i < n; i++ {
		frame := trace.Index(i)
		if frame.Kind() != reflect.Uintptr {
			return nil
		}
		pcs = append(pcs, uintptr(frame.Uint()))
	}
	return pcs
}

func framesFromPCs(pcs []uintptr) []string {
	var frames []string
	callersFrames := runtime.CallersFrames(pcs)
	for len(frames) < maxFrames {
		frame, more := callersFrames.Next()
		if frame.Function != "" || frame.File != "" {
			frames = append(frames, fmt.Sprintf("%s%s (%s:%d)", frameMarker, frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return frames
}
