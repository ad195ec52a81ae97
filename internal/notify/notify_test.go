package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"agro-kyc/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

type blockingNotifier struct {
	release chan struct{}
}

func (b *blockingNotifier) Notify(ctx context.Context, _ Notification) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fakePublisher struct {
	channel string
	message []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not attempted")
	}
}

func TestDispatchDelivers(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(rec, zap.NewNop(), nil)
	userID := uuid.New()

	wait(t, d.Dispatch(userID, TemplateDocumentStatus, map[string]string{"status": "approved"}))

	require.Len(t, rec.sent, 1)
	assert.Equal(t, userID, rec.sent[0].UserID)
	assert.Equal(t, TemplateDocumentStatus, rec.sent[0].TemplateID)
	assert.Equal(t, "approved", rec.sent[0].Data["status"])
}

func TestDispatchDoesNotBlockCaller(t *testing.T) {
	b := &blockingNotifier{release: make(chan struct{})}
	d := NewDispatcher(b, zap.NewNop(), nil)

	start := time.Now()
	done := d.Dispatch(uuid.New(), TemplateKYCStatusChanged, nil)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(b.release)
	wait(t, done)
}

func TestDispatchFailureIsCounted(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	d := NewDispatcher(&recordingNotifier{err: errors.New("smtp down")}, zap.NewNop(), m)

	wait(t, d.Dispatch(uuid.New(), TemplateDocumentStatus, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailures.WithLabelValues(TemplateDocumentStatus)))
}

func TestRedisNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := NewRedisNotifier(pub, "kyc.notifications")
	userID := uuid.New()

	err := n.Notify(context.Background(), Notification{
		UserID:     userID,
		TemplateID: TemplateKYCStatusChanged,
		Data:       map[string]string{"kyc_status": "approved"},
	})
	require.NoError(t, err)

	assert.Equal(t, "kyc.notifications", pub.channel)
	var got Notification
	require.NoError(t, json.Unmarshal(pub.message, &got))
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "approved", got.Data["kyc_status"])
}

func TestRedisNotifierPropagatesError(t *testing.T) {
	n := NewRedisNotifier(&fakePublisher{err: errors.New("connection refused")}, "c")

	err := n.Notify(context.Background(), Notification{UserID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
