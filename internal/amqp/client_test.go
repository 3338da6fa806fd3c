package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

type fakeChannel struct {
	declareErr error
	publishErr error
	exchange   string
	queue      string
	bound      [3]string
	published  []amqp091.Publishing
	keys       []string
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.exchange = name
	return f.declareErr
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	f.queue = name
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error {
	f.bound = [3]string{name, key, exchange}
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func sampleRecord() core.Record {
	return core.NewRecord(time.Date(2025, 2, 21, 9, 30, 0, 0, time.UTC), "Food", "Lunch at Cafe", decimal.RequireFromString("12.50"))
}

func TestSetupDeclaresTopology(t *testing.T) {
	ch := &fakeChannel{}
	if _, err := newClientWithChannel(ch, "expenses", "expense_recorded"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if ch.exchange != "expenses" || ch.queue != "expense_recorded" {
		t.Fatalf("unexpected topology: %+v", ch)
	}
	if ch.bound != [3]string{"expense_recorded", "expense_recorded", "expenses"} {
		t.Fatalf("unexpected binding %v", ch.bound)
	}
}

func TestSetupError(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	if _, err := newClientWithChannel(ch, "x", "q"); err == nil {
		t.Fatal("expected setup error")
	}
}

func TestPublishRecord(t *testing.T) {
	ch := &fakeChannel{}
	c, err := newClientWithChannel(ch, "expenses", "expense_recorded")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := c.PublishRecord(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "expenses/expense_recorded" {
		t.Fatalf("unexpected publish calls %v", ch.keys)
	}
	pub := ch.published[0]
	if pub.ContentType != "application/json" || pub.DeliveryMode != amqp091.Persistent || pub.MessageId == "" {
		t.Fatalf("unexpected publishing %+v", pub)
	}

	var body map[string]any
	if err := json.Unmarshal(pub.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["date"] != "2025-02-21 09:30:00" || body["amount"] != "12.5" || body["category"] != "Food" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["id"] != pub.MessageId {
		t.Fatalf("message id mismatch: %v vs %s", body["id"], pub.MessageId)
	}
}

func TestPublishRecordError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	c, _ := newClientWithChannel(ch, "x", "q")
	if err := c.PublishRecord(context.Background(), sampleRecord()); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestNewRecordAddedMessage(t *testing.T) {
	in := sampleRecord()
	msg := NewRecordAddedMessage(in)
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back RecordAddedMessage
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID == "" || back.ID == NewRecordAddedMessage(in).ID {
		t.Fatalf("expected a fresh message id, got %q", back.ID)
	}
	if back.Date != in.Timestamp() || back.Category != in.Category || back.Description != in.Description || back.Amount != "12.5" {
		t.Fatalf("unexpected message %+v", back)
	}
	if back.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	c, _ := newClientWithChannel(ch, "x", "q")
	if err := c.Close(); err != nil || !ch.closed {
		t.Fatalf("Close: err=%v closed=%v", err, ch.closed)
	}
}
