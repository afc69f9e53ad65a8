package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnaterm/internal/fna"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestNotifyWritesKeyedMessage(t *testing.T) {
	w := &captureWriter{}
	p := &Publisher{writer: w, topic: "fna_events"}
	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	err := p.Notify(context.Background(), fna.Event{Type: fna.EventHeaderSaved, HeaderID: "h1", ClientID: "c1", At: at})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "fna_events", msg.Topic)
	assert.Equal(t, "c1", string(msg.Key))
	assert.Equal(t, "fna_header.saved", string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "fna_header.saved", body["event"])
	assert.Equal(t, "h1", body["header_id"])
}

func TestNotifyWrapsWriteError(t *testing.T) {
	p := &Publisher{writer: &captureWriter{err: errors.New("leader not available")}, topic: "t"}
	err := p.Notify(context.Background(), fna.Event{Type: fna.EventHeaderCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish fna_header.created")
}
