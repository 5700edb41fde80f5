package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atelier-erp/atelier/internal/invoices"
)

// OverdueLister yields SENT invoices whose due date has passed.
type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]invoices.Invoice, error)
}

// ReminderEnqueuer submits follow-up reminder emails.
type ReminderEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// OverdueScanJob sweeps for overdue invoices and queues one reminder per
// invoice found.
type OverdueScanJob struct {
	Lister   OverdueLister
	Enqueuer ReminderEnqueuer
	Logger   *slog.Logger
	clock    func() time.Time
}

// NewOverdueScanJob initialises the overdue sweep handler.
func NewOverdueScanJob(lister OverdueLister, enqueuer ReminderEnqueuer, logger *slog.Logger) *OverdueScanJob {
	return &OverdueScanJob{
		Lister:   lister,
		Enqueuer: enqueuer,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the overdue sweep.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Lister == nil {
		return errors.New("overdue scan: handler not configured")
	}
	now := j.clock()
	overdue, err := j.Lister.ListOverdue(ctx, now)
	if err != nil {
		j.logger().Error("overdue scan failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("overdue scan complete", slog.Int("count", len(overdue)))

	if j.Enqueuer == nil {
		return nil
	}
	for _, inv := range overdue {
		payload := SendEmailPayload{
			Subject: fmt.Sprintf("Invoice %s is overdue", inv.Number),
			Body: fmt.Sprintf("Invoice %s for %s was due on %s and remains unpaid.",
				inv.Number, inv.Total, inv.DueDate.Format("2006-01-02")),
		}
		if _, err := j.Enqueuer.EnqueueSendEmail(ctx, payload); err != nil {
			j.logger().Warn("enqueue reminder failed", slog.String("number", inv.Number), slog.Any("error", err))
		}
	}
	return nil
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
