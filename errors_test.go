package checkend

import (
	"errors"
	"strings"
	"testing"

	goErrors "github.com/go-errors/errors"
	pingcapErrors "github.com/pingcap/errors"
	pkgErrors "github.com/pkg/errors"
)

func redPkgErrorsRanger() error {
	return bluePkgErrorsRanger()
}

func bluePkgErrorsRanger() error {
	return pkgErrors.New("this is bad from pkgErrors")
}

func redPingcapErrorsRanger() error {
	return bluePingcapErrorsRanger()
}

func bluePingcapErrorsRanger() error {
	return pingcapErrors.New("this is bad from pingcapErrors")
}

func redGoErrorsRanger() error {
	return blueGoErrorsRanger()
}

func blueGoErrorsRanger() error {
	return goErrors.New("this is bad from goErrors")
}

func assertBacktraceMentions(t *testing.T, frames []string, fn string) {
	t.Helper()
	joined := strings.Join(frames, "\n")
	if !strings.Contains(joined, fn) {
		t.Errorf("backtrace does not mention %q:\n%s", fn, joined)
	}
}

func TestExtractErrorBacktracePkgErrors(t *testing.T) {
	frames := extractErrorBacktrace(redPkgErrorsRanger())
	if len(frames) == 0 {
		t.Fatal("expected frames from pkg/errors stack trace")
	}
	assertBacktraceMentions(t, frames, "bluePkgErrorsRanger")
	if !strings.HasPrefix(frames[0], frameMarker) {
		t.Errorf("frame missing marker: %q", frames[0])
	}
}

func TestExtractErrorBacktracePingcapErrors(t *testing.T) {
	frames := extractErrorBacktrace(redPingcapErrorsRanger())
	if len(frames) == 0 {
		t.Fatal("expected frames from pingcap/errors stack trace")
	}
	assertBacktraceMentions(t, frames, "bluePingcapErrorsRanger")
}

func TestExtractErrorBacktraceGoErrors(t *testing.T) {
	frames := extractErrorBacktrace(redGoErrorsRanger())
	if len(frames) == 0 {
		t.Fatal("expected frames from go-errors stack trace")
	}
	assertBacktraceMentions(t, frames, "blueGoErrorsRanger")
}

func TestExtractErrorBacktracePlainError(t *testing.T) {
	if frames := extractErrorBacktrace(errors.New("no stack here")); frames != nil {
		t.Errorf("expected nil for a stackless error, got %v", frames)
	}
}

func TestParamsFromErrorCarriesBacktrace(t *testing.T) {
	p := paramsFromError(redPkgErrorsRanger())
	assertEqual(t, p.message, "this is bad from pkgErrors")
	assertEqual(t, p.errorClass, "Error")
	if len(p.backtrace) == 0 {
		t.Fatal("expected backtrace")
	}
}
