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

package log

import (
	// standard libraries.
	"io"
	"path/filepath"

	// third-party libraries.
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName    = "fileq.log"
	maxLogFileSize = 1024 // MiB per file before rotation
)

// RotatingWriter returns a size-rotated log file writer under dir.
func RotatingWriter(dir string) io.Writer {
	return &lumberjack.Logger{
		Filename: filepath.Join(dir, logFileName),
		MaxSize:  maxLogFileSize,
	}
}
