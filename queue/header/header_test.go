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

package header

import (
	// standard libraries.
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"
)

func makeHeader() Header {
	return Header{
		Capacity:  4 * 4096,
		Size:      10,
		Count:     1,
		BlockSize: 4096,
		MaxSize:   16 * 4096,
		WritePos:  4106,
		ReadPos:   4096,
		Magic:     Magic,
		Version:   Version,
	}
}

func TestHeader_Codec(t *testing.T) {
	Convey("marshal and unmarshal", t, func() {
		h := makeHeader()

		buf := make([]byte, RegionSize)
		n, err := h.MarshalTo(buf)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, Size)

		h2, err := Unmarshal(buf)
		So(err, ShouldBeNil)
		So(h2, ShouldResemble, h)
	})

	Convey("marshal to short buffer", t, func() {
		h := makeHeader()
		_, err := h.MarshalTo(make([]byte, Size-1))
		So(err, ShouldBeError, ErrShortBuffer)
	})

	Convey("unmarshal detects corruption", t, func() {
		h := makeHeader()
		buf := make([]byte, Size)
		_, err := h.MarshalTo(buf)
		So(err, ShouldBeNil)

		for i := 0; i < Size; i++ {
			mangled := make([]byte, Size)
			copy(mangled, buf)
			mangled[i] ^= 0x40
			_, err = Unmarshal(mangled)
			So(err, ShouldBeError, ErrBadChecksum)
		}
	})
}

func TestHeader_Validate(t *testing.T) {
	Convey("valid header", t, func() {
		h := makeHeader()
		So(h.Validate(), ShouldBeNil)
	})

	Convey("bad magic", t, func() {
		h := makeHeader()
		h.Magic = 0x0102030405060708
		So(h.Validate(), ShouldBeError, ErrBadMagic)
	})

	Convey("bad version", t, func() {
		h := makeHeader()
		h.Version = Version + 1
		So(h.Validate(), ShouldBeError, ErrBadVersion)
	})

	Convey("capacity not a block multiple", t, func() {
		h := makeHeader()
		h.Capacity += 100
		So(h.Validate(), ShouldBeError, ErrInvalidLayout)
	})

	Convey("capacity over max size", t, func() {
		h := makeHeader()
		h.MaxSize = h.Capacity - h.BlockSize
		So(h.Validate(), ShouldBeError, ErrInvalidLayout)
	})

	Convey("size over data area", t, func() {
		h := makeHeader()
		h.Size = h.Capacity
		So(h.Validate(), ShouldBeError, ErrInvalidState)
	})

	Convey("positions inside header block", t, func() {
		h := makeHeader()
		h.ReadPos = h.BlockSize - 1
		So(h.Validate(), ShouldBeError, ErrInvalidState)

		h = makeHeader()
		h.WritePos = 0
		So(h.Validate(), ShouldBeError, ErrInvalidState)
	})

	Convey("positions past capacity", t, func() {
		h := makeHeader()
		h.WritePos = h.Capacity
		So(h.Validate(), ShouldBeError, ErrInvalidState)
	})

	Convey("count and size must agree on emptiness", t, func() {
		h := makeHeader()
		h.Count = 0
		So(h.Validate(), ShouldBeError, ErrInvalidState)
	})
}
