package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/julianstephens/habitlit/internal/logger"
)

// ErrWriterClosed is reported for writes enqueued after Close
var ErrWriterClosed = errors.New("storage writer closed")

// Writer serializes every write to a Provider through one goroutine.
//
// Callers enqueue and return immediately. Writes are applied in the order
// they were enqueued, so a later snapshot of a key can never be overwritten
// by an earlier one. A pending single-key write is replaced in place when a
// newer value for the same key arrives before it is applied.
//
// Failed writes are logged and reported to the error hook, never retried.
type Writer struct {
	provider Provider
	onError  func(keys []string, err error)

	mu      sync.Mutex
	pending []*writeOp
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

type writeOp struct {
	sets    map[string]string
	removes []string
	ack     chan struct{}
}

func (op *writeOp) keys() []string {
	keys := make([]string, 0, len(op.sets)+len(op.removes))
	for k := range op.sets {
		keys = append(keys, k)
	}
	keys = append(keys, op.removes...)
	sort.Strings(keys)
	return keys
}

// WriterOption configures a Writer
type WriterOption func(*Writer)

// WithErrorHook is called after a write fails, from the writer goroutine
func WithErrorHook(fn func(keys []string, err error)) WriterOption {
	return func(w *Writer) {
		w.onError = fn
	}
}

// NewWriter starts the writer goroutine
func NewWriter(p Provider, opts ...WriterOption) *Writer {
	w := &Writer{
		provider: p,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Enqueue schedules key=value
func (w *Writer) Enqueue(key, value string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.fail([]string{key}, ErrWriterClosed)
		return
	}
	if n := len(w.pending); n > 0 {
		last := w.pending[n-1]
		if last.ack == nil && len(last.removes) == 0 && len(last.sets) == 1 {
			if _, ok := last.sets[key]; ok {
				last.sets[key] = value
				w.mu.Unlock()
				return
			}
		}
	}
	w.pending = append(w.pending, &writeOp{sets: map[string]string{key: value}})
	w.mu.Unlock()
	w.signal()
}

// EnqueueBatch schedules several keys to be written together
func (w *Writer) EnqueueBatch(values map[string]string) {
	sets := make(map[string]string, len(values))
	for k, v := range values {
		sets[k] = v
	}
	w.push(&writeOp{sets: sets})
}

// EnqueueRemove schedules removal of keys
func (w *Writer) EnqueueRemove(keys ...string) {
	w.push(&writeOp{removes: append([]string(nil), keys...)})
}

// Flush blocks until every write enqueued before the call has been applied
func (w *Writer) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	if !w.push(&writeOp{ack: ack}) {
		return ErrWriterClosed
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close applies everything still pending and stops the writer
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
	return nil
}

func (w *Writer) push(op *writeOp) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		if op.ack == nil {
			w.fail(op.keys(), ErrWriterClosed)
		}
		return false
	}
	w.pending = append(w.pending, op)
	w.mu.Unlock()
	w.signal()
	return true
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) next() *writeOp {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	op := w.pending[0]
	w.pending[0] = nil
	w.pending = w.pending[1:]
	return op
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for op := w.next(); op != nil; op = w.next() {
		w.apply(op)
	}
}

func (w *Writer) apply(op *writeOp) {
	if op.ack != nil {
		close(op.ack)
		return
	}

	ctx := context.Background()
	if len(op.sets) > 0 {
		if err := SetAll(ctx, w.provider, op.sets); err != nil {
			w.fail(op.keys(), err)
			return
		}
	}
	if len(op.removes) > 0 {
		if err := RemoveAll(ctx, w.provider, op.removes...); err != nil {
			w.fail(op.keys(), err)
		}
	}
}

func (w *Writer) fail(keys []string, err error) {
	logger.Error("Storage write failed", "keys", keys, "error", err)
	if w.onError != nil {
		w.onError(keys, err)
	}
}
