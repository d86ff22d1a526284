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

// Package io provides the narrow file primitives the queue consumes:
// open-or-create, size query, resize, and shared memory mapping.
package io

import (
	// standard libraries.
	"os"
)

const (
	defaultFilePerm = 0o644
	defaultDirPerm  = 0o755
)

// OpenOrCreateFile opens path for read/write, creating it if absent.
func OpenOrCreateFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, defaultFilePerm)
}

// MakeDir ensures dir exists.
func MakeDir(dir string) error {
	return os.MkdirAll(dir, defaultDirPerm)
}

// FileSize returns the current size of f in bytes.
func FileSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ResizeFile extends or truncates f to exactly size bytes. Extension
// allocates eagerly where the platform supports it.
func ResizeFile(f *os.File, size int64) error {
	return resizeFile(f, size)
}
