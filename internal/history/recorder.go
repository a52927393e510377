package history

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"archviz-studio/internal/metrics"
)

type RecorderOptions struct {
	Store        Store
	QueueSize    int
	WriteTimeout time.Duration
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Recorder persists records in the background. Enqueue never blocks the
// caller; a full queue drops the record.
type Recorder struct {
	store   Store
	queue   chan Record
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewRecorder(opts RecorderOptions) *Recorder {
	size := opts.QueueSize
	if size <= 0 {
		size = 64
	}
	timeout := opts.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}

	r := &Recorder{
		store:   opts.Store,
		queue:   make(chan Record, size),
		timeout: timeout,
		logger:  logger,
		metrics: m,
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) Enqueue(rec Record) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.metrics.HistoryDropped.Inc()
		r.logger.Warn("history recorder closed, dropping record", "id", rec.ID, "user_id", rec.UserID)
		return false
	}
	select {
	case r.queue <- rec:
		return true
	default:
		r.metrics.HistoryDropped.Inc()
		r.logger.Warn("history queue full, dropping record", "id", rec.ID, "user_id", rec.UserID)
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.store.Append(ctx, rec)
		cancel()
		if err != nil {
			r.metrics.HistoryWrites.WithLabelValues("error").Inc()
			r.logger.Error("history write failed", "err", err, "id", rec.ID, "user_id", rec.UserID)
			continue
		}
		r.metrics.HistoryWrites.WithLabelValues("ok").Inc()
	}
}

// Close stops accepting records and waits for the queue to drain or ctx to
// end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
