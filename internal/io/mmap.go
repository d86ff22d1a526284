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

package io

import (
	// standard libraries.
	"os"

	// third-party libraries.
	"golang.org/x/sys/unix"
)

// MapRegion maps length bytes of f starting at offset into memory, shared
// with the backing file. offset must be page-aligned.
func MapRegion(f *os.File, offset int64, length int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), offset, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// UnmapRegion releases a mapping returned by MapRegion.
func UnmapRegion(buf []byte) error {
	return unix.Munmap(buf)
}

// SyncRegion synchronously flushes a mapped region to stable storage.
func SyncRegion(buf []byte) error {
	return unix.Msync(buf, unix.MS_SYNC)
}
