// Copyright 2022 Linkall Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package queue implements a durable FIFO queue backed by a single
// memory-mapped file laid out as a circular buffer. Records survive
// process restarts; an integrity walk verifies them on reopen.
//
// A Queue serializes all operations behind one lock. The lock only
// coordinates callers within one process: a backing file must have at
// most one writer process.
package queue

import (
	// standard libraries.
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	// this project.
	ioutil "github.com/linkall-labs/fileq/internal/io"
	"github.com/linkall-labs/fileq/observability/log"
	"github.com/linkall-labs/fileq/observability/metrics"
	"github.com/linkall-labs/fileq/queue/block"
	"github.com/linkall-labs/fileq/queue/header"
	"github.com/linkall-labs/fileq/queue/record"
)

var (
	ErrClosed            = errors.New("fileq: queue is closed")
	ErrInvalidConfig     = errors.New("fileq: invalid configuration")
	ErrTooLarge          = errors.New("fileq: record can never fit in the queue")
	ErrCorrupted         = errors.New("fileq: data corruption detected")
	ErrBlockSizeMismatch = errors.New("fileq: block size does not match the backing file")
)

// Queue is a durable file-backed FIFO queue. It must not be copied after
// first use: it owns the backing file handle and all mapped windows.
type Queue struct {
	name string
	path string
	cfg  config

	mu     sync.Mutex
	closed bool

	f      *os.File
	hdrBuf []byte // mapped header region
	hdr    header.Header
	blocks *block.Map
}

// New opens the queue named name under the storage directory, creating
// and eagerly sizing the backing file if it does not exist. Reopening an
// existing file validates the header and walks all live records.
func New(ctx context.Context, name string, opts ...Option) (*Queue, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty queue name", ErrInvalidConfig)
	}

	cfg := makeConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.logDir != "" {
		if err := ioutil.MakeDir(cfg.logDir); err != nil {
			return nil, fmt.Errorf("fileq: create log dir: %w", err)
		}
		log.SetLogWriter(log.RotatingWriter(cfg.logDir))
	}

	if err := ioutil.MakeDir(cfg.storageDir); err != nil {
		return nil, fmt.Errorf("fileq: create storage dir: %w", err)
	}

	path := filepath.Join(cfg.storageDir, name+dataFileExt)
	f, err := ioutil.OpenOrCreateFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileq: open %s: %w", path, err)
	}

	q := &Queue{
		name:   name,
		path:   path,
		cfg:    cfg,
		f:      f,
		blocks: block.NewMap(f, cfg.blockSize),
	}

	size, err := ioutil.FileSize(f)
	switch {
	case err != nil:
		err = fmt.Errorf("fileq: stat %s: %w", path, err)
	case size == 0:
		err = q.initialize(ctx)
	default:
		err = q.recover(ctx, size)
	}
	if err != nil {
		q.releaseLocked()
		return nil, err
	}

	q.updateGauges()
	log.Info(ctx, "Queue opened.", map[string]interface{}{
		log.KeyQueueName: name,
		log.KeyQueuePath: path,
		log.KeyCapacity:  q.hdr.Capacity,
		log.KeyBlockSize: q.hdr.BlockSize,
		log.KeyMaxSize:   q.hdr.MaxSize,
		log.KeyCount:     q.hdr.Count,
		log.KeySize:      q.hdr.Size,
	})
	return q, nil
}

// initialize eagerly sizes a new backing file and persists a fresh header.
func (q *Queue) initialize(ctx context.Context) error {
	capacity := q.cfg.initialFileSize()
	if err := ioutil.ResizeFile(q.f, int64(capacity)); err != nil {
		return fmt.Errorf("fileq: size new file to %d: %w", capacity, err)
	}

	if err := q.mapHeader(); err != nil {
		return err
	}

	q.hdr = header.Header{
		Capacity:  capacity,
		BlockSize: q.cfg.blockSize,
		MaxSize:   q.cfg.maxSize,
		WritePos:  q.cfg.blockSize,
		ReadPos:   q.cfg.blockSize,
		Magic:     header.Magic,
		Version:   header.Version,
	}
	if err := q.flushHeader(); err != nil {
		return err
	}

	log.Info(ctx, "Created new queue file.", map[string]interface{}{
		log.KeyQueuePath: q.path,
		log.KeyCapacity:  capacity,
		log.KeyBlockSize: q.cfg.blockSize,
	})
	return nil
}

func (q *Queue) mapHeader() error {
	buf, err := ioutil.MapRegion(q.f, 0, header.RegionSize)
	if err != nil {
		return fmt.Errorf("fileq: map header region: %w", err)
	}
	q.hdrBuf = buf
	return nil
}

// flushHeader persists the in-memory header. Callers flush touched data
// blocks first; a crash between the two leaves a record written but not
// accounted, never the reverse.
func (q *Queue) flushHeader() error {
	if _, err := q.hdr.MarshalTo(q.hdrBuf); err != nil {
		return err
	}
	if err := ioutil.SyncRegion(q.hdrBuf); err != nil {
		return fmt.Errorf("fileq: flush header: %w", err)
	}
	return nil
}

// Enqueue appends data to the queue. It returns false when the queue is
// full and no space can be reclaimed under the configured policy; the
// queue state is untouched in that case.
func (q *Queue) Enqueue(data []byte) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, ErrClosed
	}

	if uint64(len(data)) > record.MaxPayloadSize {
		return false, fmt.Errorf("%w: payload of %d bytes overflows the length field",
			ErrTooLarge, len(data))
	}
	total := record.FrameSize(len(data))
	if total > q.hdr.MaxSize-q.hdr.BlockSize {
		return false, fmt.Errorf("%w: %d bytes framed, %d usable at max size",
			ErrTooLarge, total, q.hdr.MaxSize-q.hdr.BlockSize)
	}

	for q.free() < total {
		if q.hdr.Capacity < q.hdr.MaxSize && q.contiguous() {
			if err := q.expandFile(); err != nil {
				return false, err
			}
			continue
		}
		if q.cfg.dropOldest && q.hdr.Count > 0 {
			if err := q.discardOldest(); err != nil {
				return false, err
			}
			continue
		}
		log.Warning(context.Background(), "Queue is full and no space is reclaimable.", map[string]interface{}{
			log.KeyQueueName:  q.name,
			log.KeySize:       q.hdr.Size,
			log.KeyCapacity:   q.hdr.Capacity,
			log.KeyRecordSize: total,
		})
		metrics.RejectedCounterVec.WithLabelValues(q.name).Inc()
		return false, nil
	}

	frame := record.Marshal(data)
	touched := make(map[uint64]struct{}, 2)
	if err := q.ringWrite(q.hdr.WritePos, frame, touched); err != nil {
		return false, err
	}
	if err := q.flushTouched(touched); err != nil {
		return false, err
	}

	q.hdr.WritePos = q.advance(q.hdr.WritePos, total)
	q.hdr.Size += total
	q.hdr.Count++
	if err := q.flushHeader(); err != nil {
		return false, err
	}

	metrics.EnqueuedCounterVec.WithLabelValues(q.name).Inc()
	metrics.EnqueuedBytesCounterVec.WithLabelValues(q.name).Add(float64(total))
	q.updateGauges()

	log.Debug(context.Background(), "Record enqueued.", map[string]interface{}{
		log.KeyQueueName:  q.name,
		log.KeyRecordSize: total,
		log.KeySize:       q.hdr.Size,
		log.KeyCount:      q.hdr.Count,
	})
	return true, nil
}

// Dequeue removes and returns the oldest record, or (nil, nil) when the
// queue is empty. A checksum mismatch is fatal: the backing file is not
// trustworthy and no state is changed.
func (q *Queue) Dequeue() ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}
	if q.hdr.Count == 0 {
		return nil, nil
	}

	payload, total, err := q.readFrame(q.hdr.ReadPos, q.hdr.Size)
	if err != nil {
		log.Error(context.Background(), "Dequeue failed.", map[string]interface{}{
			log.KeyQueueName: q.name,
			log.KeyReadPos:   q.hdr.ReadPos,
			log.KeyError:     err,
		})
		return nil, err
	}

	q.hdr.ReadPos = q.advance(q.hdr.ReadPos, total)
	q.hdr.Size -= total
	q.hdr.Count--
	if err := q.flushHeader(); err != nil {
		return nil, err
	}

	metrics.DequeuedCounterVec.WithLabelValues(q.name).Inc()
	metrics.DequeuedBytesCounterVec.WithLabelValues(q.name).Add(float64(total))
	q.updateGauges()

	log.Debug(context.Background(), "Record dequeued.", map[string]interface{}{
		log.KeyQueueName:  q.name,
		log.KeyRecordSize: total,
		log.KeySize:       q.hdr.Size,
		log.KeyCount:      q.hdr.Count,
	})
	return payload, nil
}

// discardOldest drops the oldest record to reclaim space. The record is
// verified before it is discarded so corruption does not pass silently.
func (q *Queue) discardOldest() error {
	_, total, err := q.readFrame(q.hdr.ReadPos, q.hdr.Size)
	if err != nil {
		return err
	}

	q.hdr.ReadPos = q.advance(q.hdr.ReadPos, total)
	q.hdr.Size -= total
	q.hdr.Count--
	if err := q.flushHeader(); err != nil {
		return err
	}

	metrics.DroppedCounterVec.WithLabelValues(q.name).Inc()
	log.Warning(context.Background(), "Discarded oldest record to reclaim space.", map[string]interface{}{
		log.KeyQueueName:  q.name,
		log.KeyRecordSize: total,
		log.KeyCount:      q.hdr.Count,
	})
	return nil
}

// expandFile grows the backing file, doubling capacity up to max size.
func (q *Queue) expandFile() error {
	newCapacity := q.hdr.Capacity * 2
	if newCapacity > q.hdr.MaxSize {
		newCapacity = q.hdr.MaxSize
	}
	if err := ioutil.ResizeFile(q.f, int64(newCapacity)); err != nil {
		return fmt.Errorf("fileq: grow file to %d: %w", newCapacity, err)
	}

	q.hdr.Capacity = newCapacity
	// The live span is contiguous, but WritePos may have wrapped when the
	// span ended exactly at the old capacity. Recompute it under the new
	// geometry: ReadPos+Size never reaches the grown capacity.
	q.hdr.WritePos = q.hdr.ReadPos + q.hdr.Size
	if err := q.flushHeader(); err != nil {
		return err
	}

	log.Info(context.Background(), "Expanded queue file.", map[string]interface{}{
		log.KeyQueueName: q.name,
		log.KeyCapacity:  newCapacity,
		log.KeyMaxSize:   q.hdr.MaxSize,
	})
	q.updateGauges()
	return nil
}

// Size returns the number of live records.
func (q *Queue) Size() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hdr.Count
}

// TotalBytes returns the bytes occupied by live records, including framing.
func (q *Queue) TotalBytes() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hdr.Size
}

// Empty reports whether the queue holds no records.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hdr.Count == 0
}

// Stat is a point-in-time snapshot of queue state.
type Stat struct {
	Name         string
	Count        uint64
	Bytes        uint64
	Capacity     uint64
	BlockSize    uint64
	MaxSize      uint64
	MappedBlocks int
}

// Stat returns a consistent snapshot of queue state.
func (q *Queue) Stat() Stat {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stat{
		Name:         q.name,
		Count:        q.hdr.Count,
		Bytes:        q.hdr.Size,
		Capacity:     q.hdr.Capacity,
		BlockSize:    q.hdr.BlockSize,
		MaxSize:      q.hdr.MaxSize,
		MappedBlocks: q.blocks.Len(),
	}
}

// Path returns the location of the backing file.
func (q *Queue) Path() string {
	return q.path
}

// Close flushes the header and releases all mapped windows and the file
// handle. The queue is unusable afterwards.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	err := q.flushHeader()
	if err2 := q.releaseLocked(); err == nil {
		err = err2
	}

	log.Info(context.Background(), "Queue closed.", map[string]interface{}{
		log.KeyQueueName: q.name,
	})
	return err
}

// releaseLocked unmaps everything and closes the file, keeping the first
// error.
func (q *Queue) releaseLocked() error {
	err := q.blocks.Close()
	if q.hdrBuf != nil {
		if err2 := ioutil.UnmapRegion(q.hdrBuf); err == nil {
			err = err2
		}
		q.hdrBuf = nil
	}
	if err2 := q.f.Close(); err == nil {
		err = err2
	}
	return err
}

func (q *Queue) updateGauges() {
	metrics.QueueSizeGaugeVec.WithLabelValues(q.name).Set(float64(q.hdr.Count))
	metrics.QueueBytesGaugeVec.WithLabelValues(q.name).Set(float64(q.hdr.Size))
	metrics.CapacityGaugeVec.WithLabelValues(q.name).Set(float64(q.hdr.Capacity))
	metrics.MappedBlocksGaugeVec.WithLabelValues(q.name).Set(float64(q.blocks.Len()))
}
