package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"agrichain/common/model"
	"agrichain/internal/framework"
	"agrichain/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeQueue struct {
	mu    sync.Mutex
	jobs  []*framework.Message
	acked []string
}

func (q *fakeQueue) Consume(queue string, timeout, ttr time.Duration) (*framework.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	msg := q.jobs[0]
	q.jobs = q.jobs[1:]
	return msg, nil
}

func (q *fakeQueue) Ack(queue, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, jobID)
	return nil
}

func (q *fakeQueue) ackedIDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.acked...)
}

type fakeHandler struct {
	mu      sync.Mutex
	handled []string
	failFor string
}

func (h *fakeHandler) HandleCallback(ctx context.Context, cb *model.RecommendationCallback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cb.AdvisoryID == h.failFor {
		return errors.New("db unavailable")
	}
	h.handled = append(h.handled, cb.AdvisoryID)
	return nil
}

func newConsumer(q *fakeQueue, h *fakeHandler) *CallbackConsumer {
	return NewCallbackConsumer(q, h, &Config{
		QueueName:    "recommendation_callback",
		Timeout:      time.Second,
		TTR:          30 * time.Second,
		PollInterval: time.Millisecond,
	}, logger.NewNopLogger())
}

func TestConsumeOne(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		failFor    string
		wantErr    bool
		wantAcked  bool
		wantHandle bool
	}{
		{"valid callback", `{"advisory_id":"1","status":"SUCCESS"}`, "", false, true, true},
		{"bad json is acked", `{oops`, "", true, true, false},
		{"missing status is acked", `{"advisory_id":"1"}`, "", true, true, false},
		{"handler failure is left for redelivery", `{"advisory_id":"1","status":"FAILED"}`, "1", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{jobs: []*framework.Message{{ID: "job-1", Data: []byte(tt.data)}}}
			h := &fakeHandler{failFor: tt.failFor}

			err := newConsumer(q, h).consumeOne(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAcked, len(q.ackedIDs()) == 1)
			assert.Equal(t, tt.wantHandle, len(h.handled) == 1)
		})
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	q := &fakeQueue{jobs: []*framework.Message{
		{ID: "a", Data: []byte(`{"advisory_id":"1","status":"SUCCESS"}`)},
		{ID: "b", Data: []byte(`{"advisory_id":"2","status":"SUCCESS"}`)},
	}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- newConsumer(q, &fakeHandler{}).Start(ctx) }()

	assert.Eventually(t, func() bool { return len(q.ackedIDs()) == 2 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
