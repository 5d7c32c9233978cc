package checkendlogrus

import (
	"errors"
	"io"
	"testing"

	checkend "github.com/Checkend/checkend-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*logrus.Logger, *checkend.MockTransport) {
	t.Helper()
	transport := &checkend.MockTransport{}
	client, err := checkend.NewClient(checkend.ClientOptions{
		APIKey:    "test-key",
		Transport: transport,
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.Out = io.Discard
	logger.AddHook(New(client))
	return logger, transport
}

func TestErrorEntryBecomesNotice(t *testing.T) {
	logger, transport := newTestLogger(t)

	logger.WithField("component", "billing").Error("charge failed")

	payload := transport.LastPayload()
	require.NotNil(t, payload)
	assert.Equal(t, "Error", payload.Error.Class)
	assert.Equal(t, "charge failed", payload.Error.Message)
	assert.Equal(t, "billing", payload.Context["component"])
	assert.Contains(t, payload.Error.Tags, "log.error")
}

func TestInfoEntryIgnoredByDefault(t *testing.T) {
	logger, transport := newTestLogger(t)

	logger.Info("all good")

	assert.Nil(t, transport.LastPayload())
}

func TestErrorFieldBecomesReportedError(t *testing.T) {
	logger, transport := newTestLogger(t)

	logger.WithError(errors.New("db connection lost")).Error("query failed")

	payload := transport.LastPayload()
	require.NotNil(t, payload)
	assert.Equal(t, "db connection lost", payload.Error.Message)
	// the error field must not leak into context
	assert.NotContains(t, payload.Context, logrus.ErrorKey)
}

func TestTypedFieldsAreLifted(t *testing.T) {
	logger, transport := newTestLogger(t)

	logger.WithFields(logrus.Fields{
		FieldUser:        checkend.Context{"id": 7},
		FieldFingerprint: "billing-failure",
		FieldTags:        []string{"critical"},
	}).Error("charge failed")

	payload := transport.LastPayload()
	require.NotNil(t, payload)
	assert.Equal(t, 7, payload.User["id"])
	assert.Equal(t, "billing-failure", payload.Error.Fingerprint)
	assert.Contains(t, payload.Error.Tags, "critical")
	assert.NotContains(t, payload.Context, FieldUser)
	assert.NotContains(t, payload.Context, FieldFingerprint)
}

func TestCustomLevels(t *testing.T) {
	transport := &checkend.MockTransport{}
	client, err := checkend.NewClient(checkend.ClientOptions{
		APIKey:    "test-key",
		Transport: transport,
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.Out = io.Discard
	logger.AddHook(New(client, logrus.WarnLevel))

	logger.Warn("heads up")
	require.NotNil(t, transport.LastPayload())

	logger.Error("boom")
	assert.Len(t, transport.Payloads(), 1, "error level not registered on this hook")
}

func TestNilClientFallback(t *testing.T) {
	hook := New(nil)
	fallbackCalled := false
	hook.SetFallback(func(*logrus.Entry) error {
		fallbackCalled = true
		return nil
	})

	require.NoError(t, hook.Fire(logrus.New().WithField("k", "v")))
	assert.True(t, fallbackCalled)
}
