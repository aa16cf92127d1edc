// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package fastlz implements the FastLZ block format (levels 1 and 2).
//
// Noita compresses its save files with FastLZ level 2. Both levels share the
// same literal-run encoding and differ in how matches are encoded; the level
// is stored in the top three bits of the first byte of a block.
package fastlz

import (
	"errors"
	"fmt"
)

const (
	maxCopy = 32 // longest literal run per instruction

	// Level 1 limits
	maxLen1      = 264  // longest match
	maxDistance1 = 8192 // farthest match

	// Level 2 limits
	maxL2Distance  = 8191
	maxFarDistance = 65535 + maxL2Distance - 1

	hashLog  = 13
	hashSize = 1 << hashLog
)

// ErrCorrupt is returned when a block references data outside its output or
// ends in the middle of an instruction.
var ErrCorrupt = errors.New("fastlz: corrupt input")

// Compress compresses src at the given level (1 or 2).
// An empty input yields an empty output.
func Compress(src []byte, level int) ([]byte, error) {
	if level != 1 && level != 2 {
		return nil, fmt.Errorf("fastlz: unsupported level %d", level)
	}
	if len(src) == 0 {
		return nil, nil
	}

	maxDist, maxLen := maxFarDistance, len(src)
	if level == 1 {
		maxDist, maxLen = maxDistance1, maxLen1
	}

	out := make([]byte, 0, len(src)+len(src)/maxCopy+16)

	// table holds position+1 of the last occurrence of each 3-byte hash
	var table [hashSize]int32

	anchor := 0
	ip := 0
	for ip+3 <= len(src) {
		h := hash3(src[ip:])
		ref := int(table[h]) - 1
		table[h] = int32(ip + 1)

		distance := ip - ref
		if ref < 0 || distance > maxDist ||
			src[ref] != src[ip] || src[ref+1] != src[ip+1] || src[ref+2] != src[ip+2] {
			ip++
			continue
		}

		n := 3
		for ip+n < len(src) && n < maxLen && src[ref+n] == src[ip+n] {
			n++
		}

		out = appendLiterals(out, src[anchor:ip])
		if level == 1 {
			out = appendMatch1(out, distance, n)
		} else {
			out = appendMatch2(out, distance, n)
		}

		ip += n
		anchor = ip
	}
	out = appendLiterals(out, src[anchor:])

	// The first instruction is always a literal run, so its top bits are free
	// to carry the level marker.
	if level == 2 {
		out[0] |= 1 << 5
	}

	return out, nil
}

// Decompress decodes a FastLZ block. The output may not grow beyond maxOut
// bytes; a block that would exceed it is reported as corrupt.
func Decompress(src []byte, maxOut int) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	level := int(src[0]>>5) + 1
	if level != 1 && level != 2 {
		return nil, fmt.Errorf("fastlz: unsupported level %d", level)
	}

	out := make([]byte, 0, maxOut)
	ip := 0
	ctrl := int(src[ip] & 31)
	ip++

	for {
		if ctrl >= 32 {
			length := (ctrl >> 5) - 1
			ofs := (ctrl & 31) << 8
			ref := len(out) - ofs - 1

			if length == 7-1 {
				if level == 1 {
					if ip >= len(src) {
						return nil, ErrCorrupt
					}
					length += int(src[ip])
					ip++
				} else {
					for {
						if ip >= len(src) {
							return nil, ErrCorrupt
						}
						code := int(src[ip])
						ip++
						length += code
						if code != 255 {
							break
						}
					}
				}
			}

			if ip >= len(src) {
				return nil, ErrCorrupt
			}
			code := int(src[ip])
			ip++
			ref -= code
			length += 3

			// Level 2 escape for matches beyond the short distance range
			if level == 2 && code == 255 && ofs == 31<<8 {
				if ip+2 > len(src) {
					return nil, ErrCorrupt
				}
				ofs = int(src[ip])<<8 | int(src[ip+1])
				ip += 2
				ref = len(out) - ofs - maxL2Distance - 1
			}

			if ref < 0 || len(out)+length > maxOut {
				return nil, ErrCorrupt
			}

			// Byte-wise copy: the source may overlap the bytes being written
			for i := 0; i < length; i++ {
				out = append(out, out[ref+i])
			}
		} else {
			ctrl++
			if ip+ctrl > len(src) || len(out)+ctrl > maxOut {
				return nil, ErrCorrupt
			}
			out = append(out, src[ip:ip+ctrl]...)
			ip += ctrl
		}

		if ip >= len(src) {
			break
		}
		ctrl = int(src[ip])
		ip++
	}

	return out, nil
}

// hash3 hashes the first three bytes of p into the match table.
func hash3(p []byte) uint32 {
	v := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	return (v * 2654435761) >> (32 - hashLog)
}

// appendLiterals emits lit as runs of at most maxCopy bytes.
func appendLiterals(out, lit []byte) []byte {
	for len(lit) > 0 {
		n := len(lit)
		if n > maxCopy {
			n = maxCopy
		}
		out = append(out, byte(n-1))
		out = append(out, lit[:n]...)
		lit = lit[n:]
	}
	return out
}

// appendMatch1 emits a level 1 match of n bytes (3..maxLen1) at the given distance.
func appendMatch1(out []byte, distance, n int) []byte {
	d := distance - 1
	l := n - 2
	if l < 7 {
		return append(out, byte(l<<5|d>>8), byte(d))
	}
	return append(out, byte(7<<5|d>>8), byte(l-7), byte(d))
}

// appendMatch2 emits a level 2 match of n bytes (n >= 3) at the given distance.
func appendMatch2(out []byte, distance, n int) []byte {
	d := distance - 1
	l := n - 2

	if d < maxL2Distance {
		if l < 7 {
			return append(out, byte(l<<5|d>>8), byte(d))
		}
		out = append(out, byte(7<<5|d>>8))
		for l -= 7; l >= 255; l -= 255 {
			out = append(out, 255)
		}
		return append(out, byte(l), byte(d))
	}

	d -= maxL2Distance
	if l < 7 {
		return append(out, byte(l<<5|31), 255, byte(d>>8), byte(d))
	}
	out = append(out, byte(7<<5|31))
	for l -= 7; l >= 255; l -= 255 {
		out = append(out, 255)
	}
	return append(out, byte(l), 255, byte(d>>8), byte(d))
}
