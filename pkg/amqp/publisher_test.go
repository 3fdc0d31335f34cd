package amqp

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declaredName string
	declaredKind string
	durable      bool
	confirmed    bool
	declareErr   error
	publishErr   error
	closed       bool
	published    []amqp.Publishing
	keys         []string
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	f.declaredName = name
	f.declaredKind = kind
	f.durable = durable
	return f.declareErr
}

func (f *fakeChannel) Confirm(bool) error {
	f.confirmed = true
	return nil
}

func (f *fakeChannel) PublishWithDeferredConfirmWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil, nil
}

func (f *fakeChannel) IsClosed() bool { return f.closed }

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewPublisherDeclaresDurableTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "reservations.events")
	require.NoError(t, err)

	assert.Equal(t, "reservations.events", ch.declaredName)
	assert.Equal(t, "topic", ch.declaredKind)
	assert.True(t, ch.durable)
	assert.True(t, ch.confirmed)
	assert.Equal(t, "reservations.events", p.Exchange())
}

func TestNewPublisherClosesChannelOnDeclareFailure(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := newPublisher(ch, "reservations.events")
	require.Error(t, err)
	assert.True(t, ch.closed)
}

func TestPublishSendsPersistentMessage(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "reservations.events")
	require.NoError(t, err)

	err = p.Publish(context.Background(), Message{
		Key:       "booking.created",
		Body:      []byte(`{"eventId":"abc"}`),
		MessageID: "abc",
		Headers:   map[string]any{"tenant_id": "t1"},
	})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, []string{"booking.created"}, ch.keys)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "abc", msg.MessageId)
	assert.Equal(t, "t1", msg.Headers["tenant_id"])
	assert.False(t, msg.Timestamp.IsZero())
}

func TestPublishRequiresRoutingKey(t *testing.T) {
	p, err := newPublisher(&fakeChannel{}, "x")
	require.NoError(t, err)
	assert.Error(t, p.Publish(context.Background(), Message{Body: []byte("{}")}))
}

func TestPublishWrapsChannelError(t *testing.T) {
	boom := errors.New("channel closed")
	p, err := newPublisher(&fakeChannel{publishErr: boom}, "x")
	require.NoError(t, err)

	err = p.Publish(context.Background(), Message{Key: "booking.cancelled"})
	assert.ErrorIs(t, err, boom)
}

func TestPingReflectsChannelState(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "x")
	require.NoError(t, err)
	require.NoError(t, p.Ping(context.Background()))

	ch.closed = true
	assert.Error(t, p.Ping(context.Background()))

	var nilPub *Publisher
	assert.ErrorIs(t, nilPub.Ping(context.Background()), ErrNotInitialized)
	assert.ErrorIs(t, nilPub.Publish(context.Background(), Message{Key: "k"}), ErrNotInitialized)
}
