package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	written []kafka.Message
	delay   time.Duration
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	time.Sleep(w.delay)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

func TestProducer_FlushWaitsForBufferedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &fakeWriter{delay: 10 * time.Millisecond}
	p := newProducer(w, 16, nil)
	p.Start(ctx)

	for i := 0; i < 5; i++ {
		require.True(t, p.Publish(kafka.Message{Topic: "t", Value: []byte{byte(i)}}))
	}
	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, 5, w.count())

	// nothing pending
	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, 5, w.count())
}

func TestProducer_FlushHonoursContext(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1, nil) // never started
	require.True(t, p.Publish(kafka.Message{Topic: "t"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Flush(ctx), context.DeadlineExceeded)
}

func TestProducer_FlushAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 4, nil)
	p.Start(context.Background())
	require.True(t, p.Publish(kafka.Message{Topic: "t"}))
	p.Close()

	require.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, 1, w.count())
	assert.True(t, w.closed)
}

func TestProducer_SendIsSynchronous(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 1, nil)

	require.NoError(t, p.Send(context.Background(), kafka.Message{Topic: "t"}, kafka.Message{Topic: "t"}))
	assert.Equal(t, 2, w.count())

	w.err = errors.New("leader not available")
	assert.Error(t, p.Send(context.Background(), kafka.Message{Topic: "t"}))
}
