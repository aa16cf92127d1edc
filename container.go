// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// defaultCompressor is what the game uses: FastLZ level 2
var defaultCompressor Compressor = FastLZ{Level: 2}

// Decompress unwraps a container using FastLZ.
func Decompress(data []byte) ([]byte, error) {
	return DecompressWith(data, defaultCompressor)
}

// DecompressWith unwraps a container, decompressing the body with c.
//
// A container whose compressed and decompressed sizes are equal holds its
// payload verbatim; that case never reaches c.
func DecompressWith(data []byte, c Compressor) ([]byte, error) {
	if len(data) < containerHeaderSize {
		return nil, fmt.Errorf("%w: container needs %d bytes, got %d", ErrTruncatedHeader, containerHeaderSize, len(data))
	}

	h, err := readContainerHeader(data[:containerHeaderSize])
	if err != nil {
		return nil, fmt.Errorf("read container header: %w", err)
	}

	body := data[containerHeaderSize:]
	if uint64(len(body)) != uint64(h.CompressedSize) {
		return nil, fmt.Errorf("%w: container body is %d bytes, header says %d", ErrSizeMismatch, len(body), h.CompressedSize)
	}

	log := logger.WithFields(logrus.Fields{
		"compressed_size":   h.CompressedSize,
		"decompressed_size": h.DecompressedSize,
	})

	// Stored bodies must be checked first: they are not valid compressed data
	if h.stored() {
		log.Debug("container body stored verbatim")
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	}

	out, err := c.Decompress(body, int(h.DecompressedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompressFailed, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no output", ErrDecompressFailed)
	}
	if uint64(len(out)) != uint64(h.DecompressedSize) {
		return nil, fmt.Errorf("%w: decompressed %d bytes, header says %d", ErrSizeMismatch, len(out), h.DecompressedSize)
	}

	log.Debug("container body decompressed")
	return out, nil
}

// Compress wraps data in a container using FastLZ level 2.
func Compress(data []byte) ([]byte, error) {
	return CompressWith(data, defaultCompressor)
}

// CompressWith wraps data in a container, compressing the body with c.
// If compression does not make the body smaller, data is stored verbatim.
func CompressWith(data []byte, c Compressor) ([]byte, error) {
	if uint64(len(data)) > 0xFFFFFFFF {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds the 32-bit size field", ErrSizeMismatch, len(data))
	}

	compressed, err := c.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compress container body: %w", err)
	}

	// Use compressed data only if smaller
	body := compressed
	if len(compressed) >= len(data) {
		body = data
	}

	h := &containerHeader{
		CompressedSize:   uint32(len(body)),
		DecompressedSize: uint32(len(data)),
	}

	out := make([]byte, 0, containerHeaderSize+len(body))
	out = appendContainerHeader(out, h)
	out = append(out, body...)
	return out, nil
}
