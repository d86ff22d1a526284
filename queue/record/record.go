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

// Package record implements the on-disk framing of queue records: a
// little-endian uint32 length prefix, the raw payload, and a trailing
// additive checksum of the payload.
package record

import (
	// standard libraries.
	"bytes"
	"encoding/binary"
	"errors"

	// this project.
	"github.com/linkall-labs/fileq/queue/checksum"
)

const (
	lengthFieldSO = 0
	lengthFieldEO = lengthFieldSO + 4
	payloadSO     = lengthFieldEO
)

const (
	// HeaderSize is the size of the length prefix.
	HeaderSize = payloadSO
	// TrailerSize is the size of the checksum trailer.
	TrailerSize = 1
	// MaxPayloadSize is capped by the uint32 length field.
	MaxPayloadSize = 1<<32 - 1
)

var (
	ErrChecksumMismatch = errors.New("record: checksum mismatch")
	ErrPayloadTooLarge  = errors.New("record: payload overflows the length field")
)

// FrameSize returns the on-disk size of a record with the given payload
// length, including framing.
func FrameSize(payloadLen int) uint64 {
	return uint64(HeaderSize) + uint64(payloadLen) + TrailerSize
}

// PayloadSize decodes the length prefix of a frame.
func PayloadSize(prefix []byte) uint32 {
	return binary.LittleEndian.Uint32(prefix[lengthFieldSO:lengthFieldEO])
}

// Marshal frames payload into a newly allocated buffer.
func Marshal(payload []byte) []byte {
	data := make([]byte, FrameSize(len(payload)))
	_, _ = MarshalTo(payload, data)
	return data
}

// MarshalTo frames payload into data, which must hold FrameSize(len(payload))
// bytes.
func MarshalTo(payload []byte, data []byte) (int, error) {
	if uint64(len(payload)) > MaxPayloadSize {
		return 0, ErrPayloadTooLarge
	}
	sz := int(FrameSize(len(payload)))
	if len(data) < sz {
		return 0, bytes.ErrTooLarge
	}
	binary.LittleEndian.PutUint32(data[lengthFieldSO:lengthFieldEO], uint32(len(payload)))
	copy(data[payloadSO:payloadSO+len(payload)], payload)
	data[sz-1] = checksum.Sum(payload)
	return sz, nil
}

// Verify recomputes the checksum of payload and compares it against the
// stored trailer byte.
func Verify(payload []byte, trailer byte) error {
	if checksum.Sum(payload) != trailer {
		return ErrChecksumMismatch
	}
	return nil
}
