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

// Package header defines the persisted queue header: the single source of
// truth for ring-buffer state across restarts. It lives at offset 0 of the
// backing file, inside a reserved region that never holds record data.
package header

import (
	// standard libraries.
	"encoding/binary"
	"errors"

	// this project.
	"github.com/linkall-labs/fileq/queue/checksum"
)

const (
	capacityFieldSO  = 0
	capacityFieldEO  = capacityFieldSO + 8
	sizeFieldSO      = capacityFieldEO
	sizeFieldEO      = sizeFieldSO + 8
	countFieldSO     = sizeFieldEO
	countFieldEO     = countFieldSO + 8
	blockSizeFieldSO = countFieldEO
	blockSizeFieldEO = blockSizeFieldSO + 8
	maxSizeFieldSO   = blockSizeFieldEO
	maxSizeFieldEO   = maxSizeFieldSO + 8
	writePosFieldSO  = maxSizeFieldEO
	writePosFieldEO  = writePosFieldSO + 8
	readPosFieldSO   = writePosFieldEO
	readPosFieldEO   = readPosFieldSO + 8
	magicFieldSO     = readPosFieldEO
	magicFieldEO     = magicFieldSO + 8
	versionFieldSO   = magicFieldEO
	versionFieldEO   = versionFieldSO + 8
	checksumFieldSO  = versionFieldEO
	checksumFieldEO  = checksumFieldSO + 1
)

const (
	// Size is the encoded size of the header.
	Size = checksumFieldEO
	// RegionSize is the size of the mapped region holding the header. It
	// is one page; the remainder of the reserved block is unused padding.
	RegionSize = 4096

	// Magic identifies a fileq backing file.
	Magic = 0xDEADBEEFCAFEBABE
	// Version is the current format version.
	Version = 1
)

var (
	ErrBadMagic      = errors.New("header: magic number mismatch")
	ErrBadVersion    = errors.New("header: unsupported version")
	ErrBadChecksum   = errors.New("header: checksum mismatch")
	ErrShortBuffer   = errors.New("header: short buffer")
	ErrInvalidLayout = errors.New("header: invalid layout")
	ErrInvalidState  = errors.New("header: invalid queue state")
)

// Header is the persisted ring-buffer metadata.
type Header struct {
	// Capacity is the total addressable size in bytes, a multiple of
	// BlockSize. The first BlockSize bytes are reserved for the header.
	Capacity uint64
	// Size is the bytes occupied by live records, including framing.
	Size uint64
	// Count is the number of live records.
	Count uint64
	// BlockSize is the mapping-window size, immutable for the file.
	BlockSize uint64
	// MaxSize is the upper bound Capacity may grow to.
	MaxSize uint64
	// WritePos is the absolute offset of the next append.
	WritePos uint64
	// ReadPos is the absolute offset of the oldest live record.
	ReadPos uint64
	Magic   uint64
	Version uint64
}

// MarshalTo encodes the header, including its checksum, into buf.
func (h *Header) MarshalTo(buf []byte) (int, error) {
	if len(buf) < Size {
		return 0, ErrShortBuffer
	}
	binary.LittleEndian.PutUint64(buf[capacityFieldSO:capacityFieldEO], h.Capacity)
	binary.LittleEndian.PutUint64(buf[sizeFieldSO:sizeFieldEO], h.Size)
	binary.LittleEndian.PutUint64(buf[countFieldSO:countFieldEO], h.Count)
	binary.LittleEndian.PutUint64(buf[blockSizeFieldSO:blockSizeFieldEO], h.BlockSize)
	binary.LittleEndian.PutUint64(buf[maxSizeFieldSO:maxSizeFieldEO], h.MaxSize)
	binary.LittleEndian.PutUint64(buf[writePosFieldSO:writePosFieldEO], h.WritePos)
	binary.LittleEndian.PutUint64(buf[readPosFieldSO:readPosFieldEO], h.ReadPos)
	binary.LittleEndian.PutUint64(buf[magicFieldSO:magicFieldEO], h.Magic)
	binary.LittleEndian.PutUint64(buf[versionFieldSO:versionFieldEO], h.Version)
	buf[checksumFieldSO] = checksum.Sum(buf[:checksumFieldSO])
	return Size, nil
}

// Unmarshal decodes a header from buf and verifies its checksum.
func Unmarshal(buf []byte) (Header, error) {
	var h Header
	if len(buf) < Size {
		return h, ErrShortBuffer
	}
	if checksum.Sum(buf[:checksumFieldSO]) != buf[checksumFieldSO] {
		return h, ErrBadChecksum
	}
	h.Capacity = binary.LittleEndian.Uint64(buf[capacityFieldSO:capacityFieldEO])
	h.Size = binary.LittleEndian.Uint64(buf[sizeFieldSO:sizeFieldEO])
	h.Count = binary.LittleEndian.Uint64(buf[countFieldSO:countFieldEO])
	h.BlockSize = binary.LittleEndian.Uint64(buf[blockSizeFieldSO:blockSizeFieldEO])
	h.MaxSize = binary.LittleEndian.Uint64(buf[maxSizeFieldSO:maxSizeFieldEO])
	h.WritePos = binary.LittleEndian.Uint64(buf[writePosFieldSO:writePosFieldEO])
	h.ReadPos = binary.LittleEndian.Uint64(buf[readPosFieldSO:readPosFieldEO])
	h.Magic = binary.LittleEndian.Uint64(buf[magicFieldSO:magicFieldEO])
	h.Version = binary.LittleEndian.Uint64(buf[versionFieldSO:versionFieldEO])
	return h, nil
}

// Validate checks format identity and the state invariants that must hold
// for any well-formed queue file.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return ErrBadMagic
	}
	if h.Version != Version {
		return ErrBadVersion
	}
	if h.BlockSize == 0 || h.Capacity%h.BlockSize != 0 || h.Capacity < 2*h.BlockSize {
		return ErrInvalidLayout
	}
	if h.Capacity > h.MaxSize {
		return ErrInvalidLayout
	}
	if h.Size > h.Capacity-h.BlockSize {
		return ErrInvalidState
	}
	if h.ReadPos < h.BlockSize || h.ReadPos >= h.Capacity {
		return ErrInvalidState
	}
	if h.WritePos < h.BlockSize || h.WritePos >= h.Capacity {
		return ErrInvalidState
	}
	if (h.Count == 0) != (h.Size == 0) {
		return ErrInvalidState
	}
	return nil
}
