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

package queue

import (
	// standard libraries.
	"fmt"

	// this project.
	"github.com/linkall-labs/fileq/queue/record"
)

// The data area spans [blockSize, capacity). Positions wrap within it and
// never enter the reserved header block.

func (q *Queue) dataSize() uint64 {
	return q.hdr.Capacity - q.hdr.BlockSize
}

func (q *Queue) free() uint64 {
	return q.dataSize() - q.hdr.Size
}

// advance moves pos forward by n, wrapping within the data area.
func (q *Queue) advance(pos, n uint64) uint64 {
	return q.hdr.BlockSize + (pos-q.hdr.BlockSize+n)%q.dataSize()
}

// contiguous reports whether the live span does not wrap past capacity.
// File growth is only safe while this holds: new space appears at the end
// of the file, which must be free.
func (q *Queue) contiguous() bool {
	return q.hdr.ReadPos-q.hdr.BlockSize+q.hdr.Size <= q.dataSize()
}

// ringWrite copies data into the ring at pos, segmenting the copy at block
// boundaries. Capacity is a block multiple, so the wrap point is also a
// block boundary. Touched block indices are recorded for flushing.
func (q *Queue) ringWrite(pos uint64, data []byte, touched map[uint64]struct{}) error {
	blockSize := q.hdr.BlockSize
	for len(data) > 0 {
		index := pos / blockSize
		off := pos % blockSize
		chunk := blockSize - off
		if uint64(len(data)) < chunk {
			chunk = uint64(len(data))
		}
		r, err := q.blocks.EnsureMapped(index)
		if err != nil {
			return err
		}
		copy(r.Slice(off, chunk), data[:chunk])
		if touched != nil {
			touched[index] = struct{}{}
		}
		data = data[chunk:]
		pos = q.advance(pos, chunk)
	}
	return nil
}

// ringRead copies len(buf) bytes out of the ring at pos.
func (q *Queue) ringRead(pos uint64, buf []byte) error {
	blockSize := q.hdr.BlockSize
	for len(buf) > 0 {
		index := pos / blockSize
		off := pos % blockSize
		chunk := blockSize - off
		if uint64(len(buf)) < chunk {
			chunk = uint64(len(buf))
		}
		r, err := q.blocks.EnsureMapped(index)
		if err != nil {
			return err
		}
		copy(buf[:chunk], r.Slice(off, chunk))
		buf = buf[chunk:]
		pos = q.advance(pos, chunk)
	}
	return nil
}

// flushTouched forces every touched data block to stable storage. It runs
// before the header flush on every mutation.
func (q *Queue) flushTouched(touched map[uint64]struct{}) error {
	for index := range touched {
		if err := q.blocks.Flush(index); err != nil {
			return err
		}
	}
	return nil
}

// readFrame reads and verifies one record at pos. limit bounds the frame
// by the bytes known to be live; any length prefix exceeding it means the
// file is corrupt.
func (q *Queue) readFrame(pos uint64, limit uint64) ([]byte, uint64, error) {
	if limit < record.FrameSize(0) {
		return nil, 0, fmt.Errorf("%w: %d live bytes cannot hold a record at offset %d",
			ErrCorrupted, limit, pos)
	}

	var prefix [record.HeaderSize]byte
	if err := q.ringRead(pos, prefix[:]); err != nil {
		return nil, 0, err
	}
	payloadLen := record.PayloadSize(prefix[:])
	total := record.FrameSize(int(payloadLen))
	if total > limit {
		return nil, 0, fmt.Errorf("%w: record of %d bytes at offset %d exceeds %d live bytes",
			ErrCorrupted, total, pos, limit)
	}

	payload := make([]byte, payloadLen)
	if err := q.ringRead(q.advance(pos, record.HeaderSize), payload); err != nil {
		return nil, 0, err
	}
	var trailer [record.TrailerSize]byte
	if err := q.ringRead(q.advance(pos, record.HeaderSize+uint64(payloadLen)), trailer[:]); err != nil {
		return nil, 0, err
	}

	if err := record.Verify(payload, trailer[0]); err != nil {
		return nil, 0, fmt.Errorf("%w: record at offset %d: %v", ErrCorrupted, pos, err)
	}
	return payload, total, nil
}
