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

//go:build linux
// +build linux

package io

import (
	// standard libraries.
	"os"

	// third-party libraries.
	"golang.org/x/sys/unix"
)

func resizeFile(f *os.File, size int64) error {
	cur, err := FileSize(f)
	if err != nil {
		return err
	}
	if size < cur {
		return f.Truncate(size)
	}
	return unix.Fallocate(int(f.Fd()), 0, 0, size)
}
