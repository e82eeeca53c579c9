package worker

import (
	"context"
	"sync/atomic"

	"github.com/ds124wfegd/assetrouter/internal/entity"
	"github.com/ds124wfegd/assetrouter/internal/pkg/kafka"

	"github.com/sirupsen/logrus"
)

// MissReporter forwards variant misses to Kafka off the request path. Report
// never blocks: when the queue is full the event is dropped.
type MissReporter struct {
	producer kafka.Producer
	queue    chan entity.VariantMiss
	sent     atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

func NewMissReporter(producer kafka.Producer, queueSize int) *MissReporter {
	if queueSize < 1 {
		queueSize = 1
	}
	return &MissReporter{
		producer: producer,
		queue:    make(chan entity.VariantMiss, queueSize),
	}
}

func (w *MissReporter) Report(miss entity.VariantMiss) {
	select {
	case w.queue <- miss:
	default:
		w.dropped.Add(1)
		logrus.WithField("target", miss.TargetPath).Warn("Miss queue full, event dropped")
	}
}

// Start drains the queue until ctx is cancelled, then flushes what is left.
func (w *MissReporter) Start(ctx context.Context) {
	logrus.Info("Miss reporter started")

	for {
		select {
		case <-ctx.Done():
			w.flush()
			logrus.Info("Miss reporter stopped")
			return
		case miss := <-w.queue:
			w.send(ctx, miss)
		}
	}
}

func (w *MissReporter) flush() {
	for {
		select {
		case miss := <-w.queue:
			w.send(context.Background(), miss)
		default:
			return
		}
	}
}

func (w *MissReporter) send(ctx context.Context, miss entity.VariantMiss) {
	if err := w.producer.SendMessage(ctx, miss.TargetPath, miss); err != nil {
		w.failed.Add(1)
		logrus.Errorf("Failed to publish miss for %s: %v", miss.TargetPath, err)
		return
	}
	w.sent.Add(1)
}

// GetStats returns counters for the health endpoint.
func (w *MissReporter) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"worker_type": "miss_reporter",
		"queued":      len(w.queue),
		"sent":        w.sent.Load(),
		"dropped":     w.dropped.Load(),
		"failed":      w.failed.Load(),
	}
}
