package rabbit

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type sentMsg struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent []sentMsg
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMsg{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeAck struct {
	acks, nacks int
	requeue     bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acks++; return nil }

func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	return nil
}

func (a *fakeAck) Reject(uint64, bool) error { return nil }

func delivery(ack *fakeAck, attempts any) amqp.Delivery {
	h := amqp.Table{"x-correlation-id": "c1"}
	if attempts != nil {
		h[HeaderAttempts] = attempts
	}
	return amqp.Delivery{Acknowledger: ack, RoutingKey: "orders.created", Body: []byte(`{}`), Headers: h}
}

func TestGetAttempts(t *testing.T) {
	cases := []struct {
		in   any
		want int32
	}{
		{nil, 0},
		{int32(2), 2},
		{int64(3), 3},
		{4, 4},
		{float64(5), 5},
		{"6", 0},
	}
	for _, c := range cases {
		h := amqp.Table{}
		if c.in != nil {
			h[HeaderAttempts] = c.in
		}
		if got := GetAttempts(h); got != c.want {
			t.Fatalf("GetAttempts(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPublishJSONIsPersistent(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, ExchangeEvents)
	if err := p.PublishJSON(context.Background(), "orders.created", map[string]string{"id": "1"}, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("sent %d", len(ch.sent))
	}
	m := ch.sent[0]
	if m.exchange != ExchangeEvents || m.key != "orders.created" || m.msg.DeliveryMode != amqp.Persistent || m.msg.ContentType != "application/json" {
		t.Fatalf("unexpected publishing %+v", m)
	}
	if string(m.msg.Body) != `{"id":"1"}` {
		t.Fatalf("body %s", m.msg.Body)
	}
}

func TestRetryOrDLQRetriesUnderLimit(t *testing.T) {
	retry, dlq := &fakeChannel{}, &fakeChannel{}
	ack := &fakeAck{}

	err := RetryOrDLQ(context.Background(), delivery(ack, int32(1)), "notification", 3,
		NewPublisher(retry, ExchangeRetry), NewPublisher(dlq, ExchangeDLX), "notification.dlq")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(retry.sent) != 1 || len(dlq.sent) != 0 {
		t.Fatalf("retry=%d dlq=%d", len(retry.sent), len(dlq.sent))
	}
	m := retry.sent[0]
	if m.key != "notification.orders.created" {
		t.Fatalf("retry key %q", m.key)
	}
	if GetAttempts(m.msg.Headers) != 2 || m.msg.Headers["x-correlation-id"] != "c1" {
		t.Fatalf("headers %v", m.msg.Headers)
	}
	if ack.acks != 1 || ack.nacks != 0 {
		t.Fatalf("acks=%d nacks=%d", ack.acks, ack.nacks)
	}
}

func TestRetryOrDLQDeadLettersOverLimit(t *testing.T) {
	retry, dlq := &fakeChannel{}, &fakeChannel{}
	ack := &fakeAck{}

	err := RetryOrDLQ(context.Background(), delivery(ack, int32(3)), "notification", 3,
		NewPublisher(retry, ExchangeRetry), NewPublisher(dlq, ExchangeDLX), "notification.dlq")
	if err != nil {
		t.Fatalf("dlq: %v", err)
	}
	if len(retry.sent) != 0 || len(dlq.sent) != 1 || dlq.sent[0].key != "notification.dlq" {
		t.Fatalf("retry=%v dlq=%v", retry.sent, dlq.sent)
	}
	if ack.acks != 1 {
		t.Fatalf("acks=%d", ack.acks)
	}
}

func TestRetryOrDLQRequeuesWhenRepublishFails(t *testing.T) {
	boom := errors.New("channel closed")
	ack := &fakeAck{}

	err := RetryOrDLQ(context.Background(), delivery(ack, nil), "notification", 3,
		NewPublisher(&fakeChannel{err: boom}, ExchangeRetry), NewPublisher(&fakeChannel{}, ExchangeDLX), "notification.dlq")
	if !errors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if ack.nacks != 1 || !ack.requeue || ack.acks != 0 {
		t.Fatalf("acks=%d nacks=%d requeue=%v", ack.acks, ack.nacks, ack.requeue)
	}
}
