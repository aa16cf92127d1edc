// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/suprsokr/go-noita/internal/fastlz"
)

// Compressor is a block compressor used for container bodies.
//
// Decompress is given the expected output size and may return fewer bytes;
// the container codec checks the length.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte, size int) ([]byte, error)
}

// Compression selects a block compressor.
type Compression int

const (
	// CompressionFastLZ is FastLZ level 2, the compressor the game writes with.
	CompressionFastLZ Compression = iota

	// CompressionFastLZ1 is FastLZ level 1. The game reads it, since
	// FastLZ blocks carry their level.
	CompressionFastLZ1

	// CompressionLZ4 is the LZ4 block format. Not readable by the game.
	CompressionLZ4

	// CompressionZstd is a single Zstandard frame. Not readable by the game.
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionFastLZ:
		return "fastlz"
	case CompressionFastLZ1:
		return "fastlz1"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// NewCompressor returns the Compressor for c.
func NewCompressor(c Compression) (Compressor, error) {
	switch c {
	case CompressionFastLZ:
		return FastLZ{Level: 2}, nil
	case CompressionFastLZ1:
		return FastLZ{Level: 1}, nil
	case CompressionLZ4:
		return LZ4{}, nil
	case CompressionZstd:
		return Zstd{}, nil
	default:
		return nil, fmt.Errorf("unknown compression: %d", int(c))
	}
}

// FastLZ compresses with FastLZ at Level 1 or 2. The zero value uses level 2.
// Decompression detects the level from the block itself.
type FastLZ struct {
	Level int
}

func (f FastLZ) Compress(src []byte) ([]byte, error) {
	level := f.Level
	if level == 0 {
		level = 2
	}
	return fastlz.Compress(src, level)
}

func (f FastLZ) Decompress(src []byte, size int) ([]byte, error) {
	return fastlz.Decompress(src, size)
}

// LZ4 compresses with the LZ4 block format.
type LZ4 struct{}

func (LZ4) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 {
		// Incompressible: hand back the input so the container stores it
		return src, nil
	}
	return dst[:n], nil
}

func (LZ4) Decompress(src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return dst[:n], nil
}

// Zstd compresses each body as a single Zstandard frame.
type Zstd struct{}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

// zstdCodec lazily creates the shared encoder and decoder. Both are safe for
// concurrent EncodeAll/DecodeAll calls.
func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

func (Zstd) Compress(src []byte) ([]byte, error) {
	enc, _, err := zstdCodec()
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return enc.EncodeAll(src, make([]byte, 0, len(src))), nil
}

func (Zstd) Decompress(src []byte, size int) ([]byte, error) {
	_, dec, err := zstdCodec()
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
