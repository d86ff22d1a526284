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
	"os"

	// this project.
	"github.com/linkall-labs/fileq/queue/header"
)

const (
	dataFileExt = ".dat"

	defaultStorageDir  = "storage"
	defaultBlockSize   = 64 * 1024 * 1024 // 64 MiB
	defaultMaxSize     = 1 << 30          // 1 GiB
	defaultInitialSize = 1 << 30          // 1 GiB
	minInitialBlocks   = 4
)

type config struct {
	storageDir      string
	blockSize       uint64
	maxSize         uint64
	initialCapacity uint64
	dropOldest      bool
	logDir          string
}

func defaultConfig() config {
	return config{
		storageDir: defaultStorageDir,
		blockSize:  defaultBlockSize,
		maxSize:    defaultMaxSize,
	}
}

type Option func(*config)

func makeConfig(opts ...Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (cfg *config) validate() error {
	pageSize := uint64(os.Getpagesize())
	if cfg.blockSize < header.RegionSize || cfg.blockSize%pageSize != 0 {
		return fmt.Errorf("%w: block size %d must be at least %d and a multiple of the page size %d",
			ErrInvalidConfig, cfg.blockSize, header.RegionSize, pageSize)
	}
	if cfg.maxSize%cfg.blockSize != 0 || cfg.maxSize < 2*cfg.blockSize {
		return fmt.Errorf("%w: max size %d must be a multiple of block size %d and hold at least one data block",
			ErrInvalidConfig, cfg.maxSize, cfg.blockSize)
	}
	return nil
}

// initialFileSize is the eager size of a newly created file: the larger of
// four mapping windows and 1 GiB unless configured, rounded up to a block
// multiple and clamped to maxSize.
func (cfg *config) initialFileSize() uint64 {
	initial := cfg.initialCapacity
	if initial == 0 {
		initial = minInitialBlocks * cfg.blockSize
		if initial < defaultInitialSize {
			initial = defaultInitialSize
		}
	}
	if rem := initial % cfg.blockSize; rem != 0 {
		initial += cfg.blockSize - rem
	}
	if initial < 2*cfg.blockSize {
		initial = 2 * cfg.blockSize
	}
	if initial > cfg.maxSize {
		initial = cfg.maxSize
	}
	return initial
}

// WithStorageDir sets the directory holding queue backing files.
func WithStorageDir(dir string) Option {
	return func(cfg *config) {
		cfg.storageDir = dir
	}
}

// WithBlockSize sets the mapping-window size. It is immutable once a file
// is created; reopening with a different block size fails.
func WithBlockSize(blockSize uint64) Option {
	return func(cfg *config) {
		cfg.blockSize = blockSize
	}
}

// WithMaxSize bounds file growth. It is persisted at creation; the stored
// value is authoritative on reopen.
func WithMaxSize(maxSize uint64) Option {
	return func(cfg *config) {
		cfg.maxSize = maxSize
	}
}

// WithInitialCapacity overrides the eager size of a newly created file.
func WithInitialCapacity(capacity uint64) Option {
	return func(cfg *config) {
		cfg.initialCapacity = capacity
	}
}

// WithDropOldestWhenFull discards the oldest records to make room when the
// queue is full at max size. Without it a full queue rejects the write.
func WithDropOldestWhenFull() Option {
	return func(cfg *config) {
		cfg.dropOldest = true
	}
}

// WithLogDir redirects diagnostics of the shared logger to a rotating log
// file under dir.
func WithLogDir(dir string) Option {
	return func(cfg *config) {
		cfg.logDir = dir
	}
}
