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

package checksum

import (
	// standard libraries.
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"
)

func TestSum(t *testing.T) {
	Convey("additive checksum", t, func() {
		So(Sum(nil), ShouldEqual, 0)
		So(Sum([]byte{}), ShouldEqual, 0)
		So(Sum([]byte{0x01, 0x02, 0x03}), ShouldEqual, 0x06)
		So(Sum([]byte{0xff, 0x01}), ShouldEqual, 0x00)
		So(Sum([]byte{0xff, 0x02}), ShouldEqual, 0x01)
	})

	Convey("order independent", t, func() {
		So(Sum([]byte{0x10, 0x20, 0x30}), ShouldEqual, Sum([]byte{0x30, 0x20, 0x10}))
	})
}
