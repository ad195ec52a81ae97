package notify

import (
	"context"
	"time"

	"agro-kyc/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TemplateDocumentStatus   = "document_status"
	TemplateKYCStatusChanged = "kyc_status_changed"
)

// Notification is a templated message for one user. Data holds the template
// variables.
type Notification struct {
	UserID     uuid.UUID         `json:"user_id"`
	TemplateID string            `json:"template_id"`
	Data       map[string]string `json:"data"`
	CreatedAt  time.Time         `json:"created_at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher sends notifications without blocking the caller. Delivery errors
// are logged and counted, never returned.
type Dispatcher struct {
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func NewDispatcher(notifier Notifier, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		timeout:  5 * time.Second,
	}
}

// Dispatch returns immediately. The returned channel is closed once delivery
// has been attempted; callers are free to ignore it.
func (d *Dispatcher) Dispatch(userID uuid.UUID, templateID string, data map[string]string) <-chan struct{} {
	done := make(chan struct{})
	n := Notification{
		UserID:     userID,
		TemplateID: templateID,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Notifier panicked", zap.Any("panic", r), zap.String("template_id", templateID))
				d.countFailure(templateID)
			}
		}()

		// Detached from the request context so a finished request does not
		// cancel delivery.
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, n); err != nil {
			d.logger.Warn("Failed to deliver notification",
				zap.Error(err),
				zap.String("user_id", userID.String()),
				zap.String("template_id", templateID),
			)
			d.countFailure(templateID)
		}
	}()

	return done
}

func (d *Dispatcher) countFailure(templateID string) {
	if d.metrics != nil {
		d.metrics.IncrementNotificationFailures(templateID)
	}
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("Notification",
		zap.String("user_id", n.UserID.String()),
		zap.String("template_id", n.TemplateID),
		zap.Any("data", n.Data),
	)
	return nil
}
