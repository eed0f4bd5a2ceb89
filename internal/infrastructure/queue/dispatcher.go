package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stockroom/storefront/internal/api/metrics"
	"github.com/stockroom/storefront/internal/core/domain"
	"github.com/stockroom/storefront/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher delivers committed stock movements to every sink from a fixed
// set of workers. Movements are sharded by item id, so each item's movements
// reach the sinks in commit order.
type Dispatcher struct {
	workers []chan domain.StockMovement
	sinks   []ports.MovementSink
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger, sinks ...ports.MovementSink) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.StockMovement, numWorkers),
		sinks:   sinks,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.StockMovement, channelBuffer)
	}
	return d
}

// Start launches the workers. ctx is passed to the sinks.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue never blocks: when the worker's buffer is full or the dispatcher is
// closed the movement is dropped and counted.
func (d *Dispatcher) Enqueue(m domain.StockMovement) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.MovementsDroppedTotal.Inc()
		return
	}

	idx := d.shardIndex(m.ItemID)
	select {
	case d.workers[idx] <- m:
		metrics.MovementsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.MovementsDroppedTotal.Inc()
		d.log.Warn().Str("item_id", m.ItemID).Int("worker_id", idx).Msg("movement queue full, dropping movement")
	}
}

// Close stops accepting movements and waits until queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps an item id deterministically to a worker index.
func (d *Dispatcher) shardIndex(itemID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(itemID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.StockMovement) {
	defer d.wg.Done()
	depth := metrics.MovementsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for m := range ch {
		depth.Set(float64(len(ch)))
		for _, sink := range d.sinks {
			if err := sink.Record(ctx, m); err != nil {
				metrics.MovementSinkErrorsTotal.WithLabelValues(fmt.Sprintf("%T", sink)).Inc()
				d.log.Error().Err(err).
					Str("item_id", m.ItemID).
					Str("kind", string(m.Kind)).
					Int("worker_id", id).
					Msg("movement delivery failed")
			}
		}
	}
}
