// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"errors"
	"fmt"
)

// Decode errors. Every error returned by this package wraps one of these, so
// callers can classify failures with errors.Is.
var (
	// ErrOutOfBounds is a read or write past the end of a buffer.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrTruncatedHeader means the input is too short to hold its fixed header.
	ErrTruncatedHeader = errors.New("truncated header")

	// ErrTruncatedRecord means a record declares more bytes than remain.
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrSizeMismatch means a declared size disagrees with the actual one.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrDecompressFailed means the block compressor rejected the body.
	ErrDecompressFailed = errors.New("decompress failed")

	// ErrUnknownSettingType is a settings value tag outside 0-3.
	ErrUnknownSettingType = errors.New("unknown setting type")

	// ErrUnsupportedFormat is a version, magic or size this package does not decode.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEntryCountMismatch is a warning, never returned as an error: the
	// settings table's count hint disagrees with the entries decoded.
	ErrEntryCountMismatch = errors.New("entry count mismatch")
)

// truncated marks err, raised while decoding a record, as a truncated record.
// The result matches both ErrTruncatedRecord and err.
func truncated(what string, err error) error {
	if errors.Is(err, ErrOutOfBounds) {
		return fmt.Errorf("%w: %s: %w", ErrTruncatedRecord, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
