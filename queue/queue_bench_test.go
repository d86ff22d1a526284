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
	"os"
	"testing"
)

func benchQueue(b *testing.B) (*Queue, func()) {
	dir, err := os.MkdirTemp("", "fileq-bench-*")
	if err != nil {
		b.Fatal(err)
	}

	q, err := New(context.Background(), "bench",
		WithStorageDir(dir),
		WithBlockSize(blockSize),
		WithMaxSize(1024*blockSize),
		WithInitialCapacity(64*blockSize),
	)
	if err != nil {
		os.RemoveAll(dir)
		b.Fatal(err)
	}

	return q, func() {
		q.Close()
		os.RemoveAll(dir)
	}
}

func BenchmarkQueue_Enqueue(b *testing.B) {
	q, cleanup := benchQueue(b)
	defer cleanup()

	payload := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ok, err := q.Enqueue(payload)
		if err != nil {
			b.Fatal(err)
		}
		if !ok {
			// Drain to keep the ring from saturating.
			for !q.Empty() {
				if _, err := q.Dequeue(); err != nil {
					b.Fatal(err)
				}
			}
		}
	}
}

func BenchmarkQueue_EnqueueDequeue(b *testing.B) {
	q, cleanup := benchQueue(b)
	defer cleanup()

	payload := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := q.Enqueue(payload); err != nil {
			b.Fatal(err)
		}
		if _, err := q.Dequeue(); err != nil {
			b.Fatal(err)
		}
	}
}
