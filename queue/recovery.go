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
	"context"
	"fmt"

	// this project.
	"github.com/linkall-labs/fileq/observability/log"
	"github.com/linkall-labs/fileq/queue/header"
)

// recover validates the header of an existing file and walks every live
// record, verifying framing and checksums. Any failure refuses the open:
// a file that cannot be verified must not be trusted.
func (q *Queue) recover(ctx context.Context, fileSize int64) error {
	if err := q.mapHeader(); err != nil {
		return err
	}

	h, err := header.Unmarshal(q.hdrBuf)
	if err != nil {
		return fmt.Errorf("fileq: read header of %s: %w", q.path, err)
	}
	if err = h.Validate(); err != nil {
		return fmt.Errorf("fileq: validate header of %s: %w", q.path, err)
	}
	if h.BlockSize != q.cfg.blockSize {
		return fmt.Errorf("%w: file has %d, configured %d",
			ErrBlockSizeMismatch, h.BlockSize, q.cfg.blockSize)
	}
	if uint64(fileSize) < h.Capacity {
		return fmt.Errorf("%w: file is %d bytes, header declares capacity %d",
			ErrCorrupted, fileSize, h.Capacity)
	}

	q.hdr = h

	// Positions must agree with the accounted size.
	if q.advance(h.ReadPos, h.Size) != h.WritePos {
		return fmt.Errorf("fileq: positions disagree with size: %w", header.ErrInvalidState)
	}

	if err = q.verifyRecords(ctx); err != nil {
		return err
	}

	log.Info(ctx, "Recovered existing queue file.", map[string]interface{}{
		log.KeyQueuePath: q.path,
		log.KeyCount:     h.Count,
		log.KeySize:      h.Size,
		log.KeyReadPos:   h.ReadPos,
		log.KeyWritePos:  h.WritePos,
	})
	return nil
}

// verifyRecords walks live records from the read position until the
// accumulated frame sizes equal the accounted size. O(live records), runs
// synchronously during construction.
func (q *Queue) verifyRecords(ctx context.Context) error {
	if q.hdr.Size == 0 {
		return nil
	}

	pos := q.hdr.ReadPos
	remaining := q.hdr.Size
	var count uint64
	for remaining > 0 {
		_, total, err := q.readFrame(pos, remaining)
		if err != nil {
			return err
		}
		pos = q.advance(pos, total)
		remaining -= total
		count++
	}

	if count != q.hdr.Count {
		return fmt.Errorf("%w: walked %d records, header declares %d",
			ErrCorrupted, count, q.hdr.Count)
	}

	log.Debug(ctx, "Verified live records.", map[string]interface{}{
		log.KeyQueuePath: q.path,
		log.KeyCount:     count,
	})
	return nil
}
