package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"curator-bot/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJetStream struct {
	jetstream.JetStream
	msgs   []*nats.Msg
	config jetstream.StreamConfig
	err    error
}

func (f *fakeJetStream) PublishMsg(_ context.Context, msg *nats.Msg, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	return &jetstream.PubAck{Stream: StreamName, Sequence: uint64(len(f.msgs))}, nil
}

func (f *fakeJetStream) CreateOrUpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.config = cfg
	return nil, f.err
}

func publishedEvent() events.BaseEvent {
	return events.BaseEvent{
		Type:       events.RecordPublished,
		Data:       map[string]interface{}{"record_id": "0a1b", "title": "Harbour"},
		OccurredAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestPublisher_Publish(t *testing.T) {
	js := &fakeJetStream{}
	p := &Publisher{js: js}

	require.NoError(t, p.Publish(context.Background(), "msg-1", publishedEvent()))
	require.Len(t, js.msgs, 1)

	msg := js.msgs[0]
	assert.Equal(t, "events.record.published", msg.Subject)
	assert.Equal(t, "msg-1", msg.Header.Get(nats.MsgIdHdr))

	decoded, err := events.Decode(msg.Data)
	require.NoError(t, err)
	assert.Equal(t, events.RecordPublished, decoded.Type)
	assert.Equal(t, "Harbour", decoded.Data["title"])
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{js: &fakeJetStream{err: errors.New("no responders")}}

	err := p.Publish(context.Background(), "msg-1", publishedEvent())
	assert.ErrorContains(t, err, "events.record.published")
	assert.ErrorContains(t, err, "no responders")
}

func TestPublisher_EnsureStream(t *testing.T) {
	js := &fakeJetStream{}
	p := &Publisher{js: js}

	require.NoError(t, p.ensureStream(context.Background()))
	assert.Equal(t, StreamName, js.config.Name)
	assert.Equal(t, []string{"events.record.>"}, js.config.Subjects)
	assert.Positive(t, js.config.Duplicates)

	js.err = errors.New("insufficient resources")
	assert.ErrorContains(t, p.ensureStream(context.Background()), StreamName)
}

func TestPublisher_CloseWithoutConnection(t *testing.T) {
	assert.NotPanics(t, (&Publisher{}).Close)
}
