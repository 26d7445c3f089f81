package router

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"curator-bot/internal/pkg/logger"
)

const (
	chatQueueSize     = 64
	workerIdleTimeout = 5 * time.Minute
)

type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// Dispatcher fans events out to one worker per chat. A chat's events run to
// completion in arrival order; different chats proceed in parallel. Workers
// exit after idleTimeout without events and are recreated on demand.
type Dispatcher struct {
	handler Handler
	logger  logger.ILogger

	queueSize   int
	idleTimeout time.Duration

	// mu guards queues and every send into them.
	mu     sync.Mutex
	queues map[int64]chan Event
	wg     sync.WaitGroup
}

func NewDispatcher(handler Handler, log logger.ILogger) *Dispatcher {
	return &Dispatcher{
		handler:     handler,
		logger:      log,
		queueSize:   chatQueueSize,
		idleTimeout: workerIdleTimeout,
		queues:      make(map[int64]chan Event),
	}
}

// Run consumes events until the channel closes or ctx is done, then waits
// for every queued event to finish.
func (d *Dispatcher) Run(ctx context.Context, events <-chan Event) error {
	defer d.drain()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.enqueue(ctx, ev)
		}
	}
}

// enqueue never blocks: a chat whose queue is full loses the event so that
// other chats keep flowing.
func (d *Dispatcher) enqueue(ctx context.Context, ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	chatID := ev.Chat()
	q, ok := d.queues[chatID]
	if !ok {
		q = make(chan Event, d.queueSize)
		d.queues[chatID] = q
		d.wg.Add(1)
		go d.work(context.WithoutCancel(ctx), chatID, q)
	}

	select {
	case q <- ev:
	default:
		d.logger.Warn("Dispatcher", "Chat queue full, event dropped", map[string]interface{}{
			"chat_id": chatID,
			"event":   fmt.Sprintf("%T", ev),
			"queued":  len(q),
		})
	}
}

func (d *Dispatcher) work(ctx context.Context, chatID int64, q chan Event) {
	defer d.wg.Done()

	idle := time.NewTimer(d.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case ev, ok := <-q:
			if !ok {
				return
			}
			d.process(ctx, ev)
			idle.Reset(d.idleTimeout)
		case <-idle.C:
			if d.retire(chatID, q) {
				return
			}
			idle.Reset(d.idleTimeout)
		}
	}
}

// retire removes an idle worker's queue. It refuses while events are pending.
func (d *Dispatcher) retire(chatID int64, q chan Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.queues[chatID] != q || len(q) > 0 {
		return false
	}
	delete(d.queues, chatID)
	return true
}

// process runs one event; a panic is logged and the worker keeps going.
func (d *Dispatcher) process(ctx context.Context, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("Dispatcher", "Handler panicked", map[string]interface{}{
				"chat_id": ev.Chat(),
				"event":   fmt.Sprintf("%T", ev),
				"panic":   fmt.Sprint(rec),
				"stack":   string(debug.Stack()),
			})
		}
	}()

	if err := d.handler.Handle(ctx, ev); err != nil {
		d.logger.Debug("Dispatcher", "Event finished with error", map[string]interface{}{
			"chat_id": ev.Chat(),
			"event":   fmt.Sprintf("%T", ev),
			"error":   err.Error(),
		})
	}
}

func (d *Dispatcher) activeChats() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

func (d *Dispatcher) drain() {
	d.mu.Lock()
	for id, q := range d.queues {
		close(q)
		delete(d.queues, id)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
