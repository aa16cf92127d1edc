// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Background is a background sprite placed in the world.
type Background struct {
	X       float32 `yaml:"x"`
	Y       float32 `yaml:"y"`
	Path    string  `yaml:"path"`
	Z       float32 `yaml:"z"`
	XOffset float32 `yaml:"x_offset"` // subtracted from X in game
	YOffset float32 `yaml:"y_offset"` // subtracted from Y in game
}

// ChunkInfo is a world chunk listed in the stream info.
type ChunkInfo struct {
	X      int32 `yaml:"x"`
	Y      int32 `yaml:"y"`
	Loaded bool  `yaml:"loaded"`
}

// StreamInfo is a decoded .stream_info payload, the header of a saved run.
type StreamInfo struct {
	Version        int32        `yaml:"version"`
	Seed           uint32       `yaml:"seed"`
	FramesPlayed   int32        `yaml:"frames_played"`
	SecondsPlayed  float32      `yaml:"seconds_played"`
	Counter        uint64       `yaml:"counter"`
	Backgrounds    []Background `yaml:"backgrounds"`
	SchemaHash     string       `yaml:"schema_hash"`
	GameModeNumber int32        `yaml:"game_mode_number"`
	GameModeName   string       `yaml:"game_mode_name"`
	GameModeSteam  uint64       `yaml:"game_mode_steam_id"`
	ModdedRun      bool         `yaml:"non_nolla_mod_active"`

	// SavedAt is year, month, day, hour, minute, second in local time
	SavedAt [6]uint16 `yaml:"saved_at,flow"`

	NewGameName string      `yaml:"new_game_name"`
	Camera      [4]int32    `yaml:"camera,flow"`
	Chunks      []ChunkInfo `yaml:"chunks"`
}

// SaveTime returns the save-and-quit time in the local time zone.
func (s *StreamInfo) SaveTime() time.Time {
	t := s.SavedAt
	return time.Date(int(t[0]), time.Month(t[1]), int(t[2]), int(t[3]), int(t[4]), int(t[5]), 0, time.Local)
}

// LoadStreamInfo decompresses a .stream_info file and decodes it.
func LoadStreamInfo(raw []byte) (*StreamInfo, error) {
	payload, err := Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress stream info: %w", err)
	}
	return DecodeStreamInfo(payload)
}

// DecodeStreamInfo decodes a decompressed .stream_info payload. Only version
// 24 is supported. Bytes after the chunk list are ignored.
func DecodeStreamInfo(payload []byte) (*StreamInfo, error) {
	r := NewReader(payload, binary.BigEndian)

	version, err := r.Int32()
	if err != nil {
		return nil, fmt.Errorf("%w: stream info version: %w", ErrTruncatedHeader, err)
	}
	if version != streamInfoVersion {
		return nil, fmt.Errorf("%w: stream info version %d (want %d)", ErrUnsupportedFormat, version, streamInfoVersion)
	}

	s := &StreamInfo{Version: version}
	d := fieldDecoder{r: r}

	s.Seed = d.uint32("seed")
	s.FramesPlayed = d.int32("frames played")
	s.SecondsPlayed = d.float32("seconds played")
	s.Counter = d.uint64("counter")

	backgrounds := d.uint32("background count")
	for i := uint32(0); i < backgrounds && d.err == nil; i++ {
		var b Background
		b.X = d.float32("background x")
		b.Y = d.float32("background y")
		b.Path = d.string("background path")
		b.Z = d.float32("background z")
		b.XOffset = d.float32("background x offset")
		b.YOffset = d.float32("background y offset")
		s.Backgrounds = append(s.Backgrounds, b)
	}

	chunks := d.int32("chunk count")
	s.SchemaHash = d.string("schema hash")
	s.GameModeNumber = d.int32("game mode number")
	s.GameModeName = d.string("game mode name")
	s.GameModeSteam = d.uint64("game mode steam id")
	s.ModdedRun = d.bool("mod flag")
	for i := range s.SavedAt {
		s.SavedAt[i] = d.uint16("save time")
	}
	s.NewGameName = d.string("new game name")
	for i := range s.Camera {
		s.Camera[i] = d.int32("camera")
	}

	if d.err == nil && chunks < 0 {
		return nil, fmt.Errorf("%w: negative chunk count %d", ErrSizeMismatch, chunks)
	}
	for i := int32(0); i < chunks && d.err == nil; i++ {
		var c ChunkInfo
		c.X = d.int32("chunk x")
		c.Y = d.int32("chunk y")
		c.Loaded = d.bool("chunk loaded")
		s.Chunks = append(s.Chunks, c)
	}

	if d.err != nil {
		return nil, fmt.Errorf("stream info: %w", d.err)
	}
	return s, nil
}

// fieldDecoder reads a run of fields, keeping the first error. Once an error
// is recorded every later read returns the zero value.
type fieldDecoder struct {
	r   *Reader
	err error
}

func (d *fieldDecoder) fail(what string, off int, err error) {
	if d.err == nil {
		d.err = truncated(fmt.Sprintf("%s at offset %d", what, off), err)
	}
}

func (d *fieldDecoder) uint16(what string) uint16 {
	if d.err != nil {
		return 0
	}
	off := d.r.Offset()
	v, err := d.r.Uint16()
	if err != nil {
		d.fail(what, off, err)
	}
	return v
}

func (d *fieldDecoder) uint32(what string) uint32 {
	if d.err != nil {
		return 0
	}
	off := d.r.Offset()
	v, err := d.r.Uint32()
	if err != nil {
		d.fail(what, off, err)
	}
	return v
}

func (d *fieldDecoder) int32(what string) int32 {
	return int32(d.uint32(what))
}

func (d *fieldDecoder) uint64(what string) uint64 {
	if d.err != nil {
		return 0
	}
	off := d.r.Offset()
	v, err := d.r.Uint64()
	if err != nil {
		d.fail(what, off, err)
	}
	return v
}

func (d *fieldDecoder) float32(what string) float32 {
	if d.err != nil {
		return 0
	}
	off := d.r.Offset()
	v, err := d.r.Float32()
	if err != nil {
		d.fail(what, off, err)
	}
	return v
}

func (d *fieldDecoder) bool(what string) bool {
	if d.err != nil {
		return false
	}
	off := d.r.Offset()
	v, err := d.r.Bool()
	if err != nil {
		d.fail(what, off, err)
	}
	return v
}

func (d *fieldDecoder) string(what string) string {
	if d.err != nil {
		return ""
	}
	off := d.r.Offset()
	v, err := d.r.SizedString()
	if err != nil {
		d.fail(what, off, err)
	}
	return v
}
