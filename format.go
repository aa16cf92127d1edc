// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"bytes"
	"encoding/binary"
)

// Container format constants
const (
	// Size of the compression header in front of every file
	containerHeaderSize = 8
)

// World-state format constants
const (
	worldVersion = 24
	worldWidth   = 512
	worldHeight  = 512

	// Size of the fixed part of a physics object record
	physicsRecordSize = 81

	// Cell bit marking a custom colour override
	customColorBit = 0x80
)

// Stream info and pixel scene format constants
const (
	streamInfoVersion = 24

	pixelSceneVersion = 3
	pixelSceneMagic   = 0x2F0AA9F
)

// containerHeader precedes every compressed file (little-endian)
type containerHeader struct {
	CompressedSize   uint32 // Size of the body that follows
	DecompressedSize uint32 // Size of the payload after decompression
}

// stored reports whether the body is kept verbatim.
func (h *containerHeader) stored() bool {
	return h.CompressedSize == h.DecompressedSize
}

// worldHeader is the fixed header of a world-state payload (big-endian)
type worldHeader struct {
	Version uint32
	Width   uint32
	Height  uint32
}

// supported reports whether this is the one layout DecodeWorldState accepts.
func (h *worldHeader) supported() bool {
	return h.Version == worldVersion && h.Width == worldWidth && h.Height == worldHeight
}

// physicsRecord is the fixed 81-byte part of a physics object (big-endian).
// The field order matches the file; encoding/binary adds no padding, so the
// booleans sit at offsets 64-68 and Z at the unaligned offset 69.
type physicsRecord struct {
	ID       uint64
	Flags    uint32
	X        float32
	Y        float32
	Rotation float32
	Aux      [5]float64
	Toggles  [5]bool
	Z        float32
	Width    uint32
	Height   uint32
}

// readContainerHeader decodes the 8-byte container header
func readContainerHeader(data []byte) (*containerHeader, error) {
	h := &containerHeader{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, h); err != nil {
		return nil, err
	}
	return h, nil
}

// appendContainerHeader appends the encoded header to dst
func appendContainerHeader(dst []byte, h *containerHeader) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, h.CompressedSize)
	return binary.LittleEndian.AppendUint32(dst, h.DecompressedSize)
}
