package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/infolibrary/infolibrary/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendLoginCode delivers a one-time sign-in code by email.
	TaskTypeSendLoginCode = "mail:login_code"
)

// LoginCodePayload describes a login code delivery.
type LoginCodePayload struct {
	To   string `json:"to"`
	Code string `json:"code"`
}

// NewLoginCodeTask constructs an Asynq task.
func NewLoginCodeTask(payload LoginCodePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendLoginCode, data), nil
}

// Mailer sends a plain text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LoginCodeJob processes TaskTypeSendLoginCode tasks.
type LoginCodeJob struct {
	mailer  Mailer
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
}

// NewLoginCodeJob constructs the job handler. metrics may be nil.
func NewLoginCodeJob(mailer Mailer, metrics *jobmetrics.Metrics, logger *slog.Logger) *LoginCodeJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginCodeJob{mailer: mailer, metrics: metrics, logger: logger}
}

// Handle sends the code. Malformed payloads are not retried.
func (j *LoginCodeJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskTypeSendLoginCode)
	var payload LoginCodePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.To == "" || payload.Code == "" {
		j.logger.Warn("discard login code task", slog.Any("error", err))
		return tracker.End(fmt.Errorf("decode login code payload: %w", asynq.SkipRetry))
	}
	body := fmt.Sprintf("Your Information Library sign-in code is %s.\r\n\r\nIf you did not request it, ignore this message.\r\n", payload.Code)
	if err := j.mailer.Send(ctx, payload.To, "Your sign-in code", body); err != nil {
		return tracker.End(fmt.Errorf("send login code: %w", err))
	}
	j.logger.Info("login code sent", slog.String("to", payload.To))
	return tracker.End(nil)
}
