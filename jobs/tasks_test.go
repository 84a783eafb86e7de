package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/infolibrary/infolibrary/internal/jobs"
)

type recordingMailer struct {
	to, subject, body string
	err               error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func TestLoginCodeJobSendsCode(t *testing.T) {
	mailer := &recordingMailer{}
	job := NewLoginCodeJob(mailer, jobmetrics.NewMetrics(prometheus.NewRegistry()), nil)
	task, err := NewLoginCodeTask(LoginCodePayload{To: "ada@library.test", Code: "48213"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, "ada@library.test", mailer.to)
	assert.Contains(t, mailer.body, "48213")
}

func TestLoginCodeJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewLoginCodeJob(&recordingMailer{}, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSendLoginCode, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLoginCodeJobRetriesMailerFailures(t *testing.T) {
	boom := errors.New("relay refused")
	job := NewLoginCodeJob(&recordingMailer{err: boom}, nil, nil)
	task, err := NewLoginCodeTask(LoginCodePayload{To: "ada@library.test", Code: "48213"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSMTPMailerWritesMessage(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "mail.local", Port: 1025, From: "no-reply@library.test"})
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Nil(t, a)
		return nil
	}

	require.NoError(t, mailer.Send(context.Background(), "ada@library.test", "Hello", "Body"))

	assert.Equal(t, "mail.local:1025", gotAddr)
	assert.Equal(t, []string{"ada@library.test"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: no-reply@library.test\r\n"))
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nBody"))

	err := mailer.Send(context.Background(), "ada@library.test\r\nBcc: x@y", "Hello", "Body")
	assert.Error(t, err)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthReportsQueueDepth(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3}}, nil).MountRoutes(r)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body queueHealth
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 3, body.Pending)

	r = chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("redis down")}, nil).MountRoutes(r)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
