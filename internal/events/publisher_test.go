package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"alcyxob/coach-app/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisherKeysByRelationship(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "coach.events"}

	trainer, client := primitive.NewObjectID(), primitive.NewObjectID()
	workout := primitive.NewObjectID()
	evt := New(domain.EventWorkoutActivated, trainer, client)
	evt.WorkoutID = &workout

	require.NoError(t, p.Publish(context.Background(), evt))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, trainer.Hex()+":"+client.Hex(), string(msg.Key))
	require.Equal(t, "event_type", msg.Headers[0].Key)
	require.Equal(t, "workout.activated", string(msg.Headers[0].Value))

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, evt.ID, decoded.ID)
	require.Equal(t, workout, *decoded.WorkoutID)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "t"}

	err := p.Publish(context.Background(), New(domain.EventClientRemoved, primitive.NewObjectID(), primitive.NewObjectID()))
	require.ErrorContains(t, err, "broker down")
	require.ErrorContains(t, err, "client.removed")
}
