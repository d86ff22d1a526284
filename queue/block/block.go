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

// Package block manages the set of memory-mapped fixed-size windows into
// the backing file, keyed by block index. Windows are mapped lazily on
// first touch and stay resident until the map is closed.
package block

import (
	// standard libraries.
	"fmt"
	"os"

	// this project.
	ioutil "github.com/linkall-labs/fileq/internal/io"
)

// Region is one mapped window of blockSize bytes, starting at file offset
// index*blockSize.
type Region struct {
	buf []byte
}

// Slice returns a bounds-checked view of n bytes at off within the region.
func (r *Region) Slice(off, n uint64) []byte {
	if off+n > uint64(len(r.buf)) {
		panic(fmt.Sprintf("block: slice [%d, %d) out of window of %d bytes", off, off+n, len(r.buf)))
	}
	return r.buf[off : off+n]
}

// Map is the residency table of mapped windows. It is not safe for
// concurrent use; callers serialize access under the queue lock.
type Map struct {
	f         *os.File
	blockSize uint64
	regions   map[uint64]*Region
}

func NewMap(f *os.File, blockSize uint64) *Map {
	return &Map{
		f:         f,
		blockSize: blockSize,
		regions:   make(map[uint64]*Region),
	}
}

// EnsureMapped returns the window for index, mapping it on first touch.
func (m *Map) EnsureMapped(index uint64) (*Region, error) {
	if r, ok := m.regions[index]; ok {
		return r, nil
	}
	buf, err := ioutil.MapRegion(m.f, int64(index*m.blockSize), int(m.blockSize))
	if err != nil {
		return nil, fmt.Errorf("block: map window %d: %w", index, err)
	}
	r := &Region{buf: buf}
	m.regions[index] = r
	return r, nil
}

// Flush forces pending writes of one window to stable storage. The header
// block (index 0) is flushed through its own mapping, not here.
func (m *Map) Flush(index uint64) error {
	if index == 0 {
		return nil
	}
	r, ok := m.regions[index]
	if !ok {
		return nil
	}
	if err := ioutil.SyncRegion(r.buf); err != nil {
		return fmt.Errorf("block: flush window %d: %w", index, err)
	}
	return nil
}

// Len returns the number of resident windows.
func (m *Map) Len() int {
	return len(m.regions)
}

// Close unmaps all resident windows.
func (m *Map) Close() error {
	var firstErr error
	for index, r := range m.regions {
		if err := ioutil.UnmapRegion(r.buf); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("block: unmap window %d: %w", index, err)
		}
		delete(m.regions, index)
	}
	return firstErr
}
