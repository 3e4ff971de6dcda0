package salequeue

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	llq "github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/go-errors/errors"
	"github.com/klauspost/compress/zstd"

	"github.com/pengulabs/nft-sales-bot/models"
)

// Queue is the FIFO buffer of sales awaiting publication. The underlying
// container is not thread safe, so every access goes through the mutex; the
// lock is never held across network calls or disk writes other than Persist.
//
// Durability model: Persist rewrites the full snapshot file (zstd-compressed
// JSON). Throughput is bounded by the publish interval, so rewriting the
// whole queue per mutation is an acceptable trade for simplicity.
type Queue struct {
	mu     sync.Mutex
	items  *llq.Queue
	notify chan struct{}
	path   string

	// persistMu serializes snapshot writers: the ingestor and publisher
	// both persist, and concurrent writes to the temp file would let one
	// writer promote the other's half-written snapshot
	persistMu sync.Mutex

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New creates an empty queue persisted at path.
func New(path string) (*Queue, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Queue{
		items:  llq.New(),
		notify: make(chan struct{}, 1),
		path:   path,
		enc:    enc,
		dec:    dec,
	}, nil
}

// Enqueue appends rec at the tail and wakes a blocked Dequeue, if any.
func (q *Queue) Enqueue(rec models.SaleRecord) {
	q.mu.Lock()
	q.items.Enqueue(rec)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the head of the queue. If the queue is empty
// it blocks until an item arrives, the wait elapses, or ctx is cancelled;
// the bounded wait exists so the caller can log liveness while idle.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (models.SaleRecord, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		q.mu.Lock()
		if v, ok := q.items.Dequeue(); ok {
			q.mu.Unlock()
			return v.(models.SaleRecord), true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.SaleRecord{}, false
		case <-timer.C:
			return models.SaleRecord{}, false
		case <-q.notify:
		}
	}
}

// Size returns the number of pending records.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Size()
}

// Snapshot returns the pending records in order.
func (q *Queue) Snapshot() []models.SaleRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	values := q.items.Values()
	records := make([]models.SaleRecord, len(values))
	for i, v := range values {
		records[i] = v.(models.SaleRecord)
	}
	return records
}

// Persist rewrites the snapshot file with the current queue contents. The
// write goes to a temp file first so a crash mid-write cannot truncate the
// previous snapshot. Safe to call from both loops concurrently.
func (q *Queue) Persist() error {
	q.persistMu.Lock()
	defer q.persistMu.Unlock()

	payload, err := json.Marshal(q.Snapshot())
	if err != nil {
		return errors.Errorf("marshal queue snapshot: %w", err)
	}
	compressed := q.enc.EncodeAll(payload, nil)

	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return errors.Errorf("write queue snapshot: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return errors.Errorf("replace queue snapshot: %w", err)
	}
	return nil
}

// Restore loads a snapshot left by a previous run, dropping records whose
// identifier the published predicate reports as already handled. The
// snapshot file is consumed: it is removed after a successful load. Returns
// the number of records kept and dropped.
func (q *Queue) Restore(published func(id string) bool) (kept, dropped int, err error) {
	compressed, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, errors.Errorf("read queue snapshot: %w", err)
	}
	payload, err := q.dec.DecodeAll(compressed, nil)
	if err != nil {
		return 0, 0, errors.Errorf("decompress queue snapshot: %w", err)
	}
	var records []models.SaleRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return 0, 0, errors.Errorf("unmarshal queue snapshot: %w", err)
	}
	for _, rec := range records {
		if published(rec.TransactionVersion) {
			dropped++
			continue
		}
		q.Enqueue(rec)
		kept++
	}
	if err := os.Remove(q.path); err != nil {
		return kept, dropped, errors.Errorf("remove consumed snapshot: %w", err)
	}
	return kept, dropped, nil
}
