package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewKafkaPublisher(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "settlement-events")
	assert.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "settlement-events")
	require.NoError(t, err)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "settlement-events", w.Topic)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Message{
		Kind: KindTicketConfirmed, RecordID: "tkt-1", UserID: "usr-1", EventID: "evt-1",
		PaymentIntentID: "pi_1", Amount: 2000, Currency: "usd", OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("tkt-1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, []kafka.Header{{Key: "kind", Value: []byte(KindTicketConfirmed)}}, msg.Headers)

	var decoded Message
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, int64(2000), decoded.Amount)
	assert.Equal(t, "evt-1", decoded.EventID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_PublishStampsTimeAndPropagatesErrors(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), Message{Kind: KindTipCompleted, RecordID: "tip-1"}))
	assert.False(t, w.msgs[0].Time.IsZero())

	w.err = errors.New("broker down")
	assert.Error(t, p.Publish(context.Background(), Message{Kind: KindTipCompleted, RecordID: "tip-1"}))
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), Message{Kind: KindPayoutSent}))
	assert.NoError(t, Noop{}.Close())
}
