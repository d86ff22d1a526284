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

package block

import (
	// standard libraries.
	"os"
	"path/filepath"
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"

	// this project.
	ioutil "github.com/linkall-labs/fileq/internal/io"
)

const blockSize = 4096

func TestMap(t *testing.T) {
	Convey("block map", t, func() {
		dir, err := os.MkdirTemp("", "block-*")
		So(err, ShouldBeNil)

		f, err := ioutil.OpenOrCreateFile(filepath.Join(dir, "data"))
		So(err, ShouldBeNil)
		So(ioutil.ResizeFile(f, 4*blockSize), ShouldBeNil)

		m := NewMap(f, blockSize)

		Convey("lazy mapping and residency", func() {
			So(m.Len(), ShouldEqual, 0)

			r1, err := m.EnsureMapped(1)
			So(err, ShouldBeNil)
			So(m.Len(), ShouldEqual, 1)

			r1again, err := m.EnsureMapped(1)
			So(err, ShouldBeNil)
			So(r1again, ShouldEqual, r1)
			So(m.Len(), ShouldEqual, 1)

			_, err = m.EnsureMapped(3)
			So(err, ShouldBeNil)
			So(m.Len(), ShouldEqual, 2)
		})

		Convey("writes reach the backing file after flush", func() {
			r, err := m.EnsureMapped(2)
			So(err, ShouldBeNil)

			copy(r.Slice(8, 4), []byte{0xca, 0xfe, 0xba, 0xbe})
			So(m.Flush(2), ShouldBeNil)

			raw := make([]byte, 4)
			_, err = f.ReadAt(raw, 2*blockSize+8)
			So(err, ShouldBeNil)
			So(raw, ShouldResemble, []byte{0xca, 0xfe, 0xba, 0xbe})
		})

		Convey("slice is bounds checked", func() {
			r, err := m.EnsureMapped(1)
			So(err, ShouldBeNil)

			So(func() { r.Slice(blockSize-1, 2) }, ShouldPanic)
			So(func() { _ = copy(r.Slice(blockSize-1, 1), []byte{0x01}) }, ShouldNotPanic)
		})

		Convey("flush of unmapped or header window is a no-op", func() {
			So(m.Flush(0), ShouldBeNil)
			So(m.Flush(3), ShouldBeNil)
		})

		Reset(func() {
			So(m.Close(), ShouldBeNil)
			So(m.Len(), ShouldEqual, 0)
			So(f.Close(), ShouldBeNil)
			So(os.RemoveAll(dir), ShouldBeNil)
		})
	})
}
