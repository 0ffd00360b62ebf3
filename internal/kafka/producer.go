package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// outbound is either a message or, when flushed is set, a marker the writer
// goroutine closes once everything queued before it has been written.
type outbound struct {
	msg     kafka.Message
	flushed chan struct{}
}

// Producer buffers messages in memory and writes them from one goroutine so
// request handlers never wait on the brokers.
type Producer struct {
	w     messageWriter
	inbox chan outbound
	done  chan struct{}
	log   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewProducer writes to whatever topic each message names.
func NewProducer(brokers []string, buf int, log *slog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}, buf, log)
}

func newProducer(w messageWriter, buf int, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}
	return &Producer{
		w:     w,
		inbox: make(chan outbound, buf),
		done:  make(chan struct{}),
		log:   log,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		p.Close()
	}()
	go func() {
		defer close(p.done)
		for o := range p.inbox {
			if o.flushed != nil {
				close(o.flushed)
				continue
			}
			m := o.msg
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				p.log.Error("kafka write failed", "topic", m.Topic, "key", string(m.Key), "error", err)
			}
		}
		if err := p.w.Close(); err != nil {
			p.log.Error("kafka writer close", "error", err)
		}
	}()
}

// Publish enqueues m. It reports false when the buffer is full or the
// producer is closed; the message is dropped.
func (p *Producer) Publish(m kafka.Message) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	if m.Time.IsZero() {
		m.Time = time.Now()
	}
	select {
	case p.inbox <- outbound{msg: m}:
		return true
	default:
		return false
	}
}

// Flush blocks until every message published before the call has been
// handed to the brokers, or ctx is done. A closed producer flushes by
// draining.
func (p *Producer) Flush(ctx context.Context) error {
	ch := make(chan struct{})
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		select {
		case <-p.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case p.inbox <- outbound{flushed: ch}:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send writes msgs synchronously, bypassing the buffer.
func (p *Producer) Send(ctx context.Context, msgs ...kafka.Message) error {
	return p.w.WriteMessages(ctx, msgs...)
}

// Close stops intake; the writer goroutine flushes what is buffered and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until buffered messages are flushed.
func (p *Producer) WaitClosed() { <-p.done }
