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

package record

import (
	// standard libraries.
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"
)

var (
	rawData = []byte{
		0x01, 0x02, 0x03,
	}
	encodedData = []byte{
		0x03, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03, 0x06,
	}
)

func TestFrameSize(t *testing.T) {
	Convey("frame size", t, func() {
		So(FrameSize(0), ShouldEqual, 5)
		So(FrameSize(len(rawData)), ShouldEqual, 4+3+1)
	})
}

func TestMarshal(t *testing.T) {
	Convey("marshal record", t, func() {
		data := Marshal(rawData)
		So(data, ShouldResemble, encodedData)
	})

	Convey("marshal empty payload", t, func() {
		data := Marshal(nil)
		So(data, ShouldResemble, []byte{0x00, 0x00, 0x00, 0x00, 0x00})
	})

	Convey("marshal record to buffer that don't have enough space", t, func() {
		data := make([]byte, FrameSize(len(rawData))-1)
		_, err := MarshalTo(rawData, data)
		So(err, ShouldNotBeNil)
	})
}

func TestPayloadSize(t *testing.T) {
	Convey("decode length prefix", t, func() {
		So(PayloadSize(encodedData), ShouldEqual, 3)
	})
}

func TestVerify(t *testing.T) {
	Convey("verify checksum", t, func() {
		So(Verify(rawData, 0x06), ShouldBeNil)
		So(Verify(rawData, 0x07), ShouldBeError, ErrChecksumMismatch)
	})
}
