// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Cell is one byte of the world grid: the top bit marks a custom colour,
// the low seven bits index the material table.
type Cell byte

// Material returns the material index of the cell.
func (c Cell) Material() int { return int(c &^ customColorBit) }

// HasCustomColor reports whether the cell takes the next custom colour.
func (c Cell) HasCustomColor() bool { return c&customColorBit != 0 }

// PhysicsObject is a simulated rigid body together with its sprite.
type PhysicsObject struct {
	ID       uint64
	Flags    uint32
	X        float32
	Y        float32
	Rotation float32 // radians
	Aux      [5]float64
	Toggles  [5]bool
	Z        float32
	Width    uint32
	Height   uint32

	// Pixels holds Width*Height colours in row-major order
	Pixels []Color
}

// WorldState is a decoded world chunk (.png_petri) payload.
type WorldState struct {
	Version uint32
	Width   uint32
	Height  uint32

	// Cells holds Width*Height grid cells in row-major order
	Cells []Cell

	// Materials maps cell material indices to names
	Materials []string

	// CustomColors are consumed in grid scan order by cells with the custom bit set
	CustomColors []Color

	Objects []PhysicsObject

	// TrailingOffset and TrailingSize locate the bytes after the last
	// physics object, which this package does not interpret.
	TrailingOffset int
	TrailingSize   int
}

// LoadWorldState decompresses a .png_petri file and decodes its world state.
func LoadWorldState(raw []byte) (*WorldState, error) {
	payload, err := Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress world state: %w", err)
	}
	return DecodeWorldState(payload)
}

// DecodeWorldState decodes a decompressed world-state payload.
// Only version 24 chunks of 512x512 cells are supported.
func DecodeWorldState(payload []byte) (*WorldState, error) {
	const headerSize = 12
	if len(payload) < headerSize {
		return nil, fmt.Errorf("%w: world state needs %d bytes, got %d", ErrTruncatedHeader, headerSize, len(payload))
	}

	var h worldHeader
	if err := binary.Read(bytes.NewReader(payload[:headerSize]), binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("read world header: %w", err)
	}
	if !h.supported() {
		return nil, fmt.Errorf("%w: world state version %d, %dx%d (want version %d, %dx%d)",
			ErrUnsupportedFormat, h.Version, h.Width, h.Height, worldVersion, worldWidth, worldHeight)
	}

	r := NewReader(payload, binary.BigEndian)
	r.off = headerSize

	w := &WorldState{
		Version: h.Version,
		Width:   h.Width,
		Height:  h.Height,
	}

	// Cell grid
	grid, err := r.Next(int(h.Width * h.Height))
	if err != nil {
		return nil, truncated("cell grid", err)
	}
	w.Cells = make([]Cell, len(grid))
	for i, b := range grid {
		w.Cells[i] = Cell(b)
	}

	// Material names
	if w.Materials, err = readMaterials(r); err != nil {
		return nil, err
	}

	// Custom colours
	if w.CustomColors, err = readColors(r, "custom colors"); err != nil {
		return nil, err
	}
	if custom := w.customCellCount(); custom > len(w.CustomColors) {
		return nil, fmt.Errorf("%w: %d cells use a custom color, only %d colors stored",
			ErrSizeMismatch, custom, len(w.CustomColors))
	}

	// Physics objects
	off := r.Offset()
	count, err := r.Uint32()
	if err != nil {
		return nil, truncated(fmt.Sprintf("physics object count at offset %d", off), err)
	}
	// Each object needs at least its fixed record
	w.Objects = make([]PhysicsObject, 0, min(int(count), r.Len()/physicsRecordSize))
	for i := uint32(0); i < count; i++ {
		obj, err := readPhysicsObject(r)
		if err != nil {
			return nil, fmt.Errorf("physics object %d: %w", i, err)
		}
		w.Objects = append(w.Objects, obj)
	}

	w.TrailingOffset = r.Offset()
	w.TrailingSize = r.Len()
	if w.TrailingSize > 0 {
		logger.WithFields(logrus.Fields{
			"offset": w.TrailingOffset,
			"size":   w.TrailingSize,
		}).Debug("world state has unparsed trailing bytes")
	}

	return w, nil
}

// readMaterials reads the count-prefixed material name table.
func readMaterials(r *Reader) ([]string, error) {
	off := r.Offset()
	count, err := r.Uint32()
	if err != nil {
		return nil, truncated(fmt.Sprintf("material count at offset %d", off), err)
	}

	// Every name has at least a 4-byte length
	if uint64(count)*4 > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: %d material names at offset %d, %d bytes remaining",
			ErrTruncatedRecord, count, off, r.Len())
	}

	names := make([]string, count)
	for i := range names {
		start := r.Offset()
		if names[i], err = r.SizedString(); err != nil {
			return nil, truncated(fmt.Sprintf("material %d at offset %d", i, start), err)
		}
	}
	return names, nil
}

// readColors reads a count-prefixed array of packed colours.
func readColors(r *Reader, what string) ([]Color, error) {
	off := r.Offset()
	count, err := r.Uint32()
	if err != nil {
		return nil, truncated(fmt.Sprintf("%s count at offset %d", what, off), err)
	}
	return readColorArray(r, uint64(count), what)
}

// readColorArray reads n big-endian packed colours.
func readColorArray(r *Reader, n uint64, what string) ([]Color, error) {
	if n > uint64(r.Len())/4 {
		return nil, fmt.Errorf("%w: %s: %d colors at offset %d, %d bytes remaining",
			ErrTruncatedRecord, what, n, r.Offset(), r.Len())
	}

	raw, _ := r.Next(int(n * 4))
	colors := make([]Color, n)
	for i := range colors {
		colors[i] = Color(binary.BigEndian.Uint32(raw[i*4:]))
	}
	return colors, nil
}

// readPhysicsObject reads one fixed record and its trailing image.
func readPhysicsObject(r *Reader) (PhysicsObject, error) {
	off := r.Offset()
	fixed, err := r.Next(physicsRecordSize)
	if err != nil {
		return PhysicsObject{}, truncated(fmt.Sprintf("record at offset %d", off), err)
	}

	var rec physicsRecord
	if err := binary.Read(bytes.NewReader(fixed), binary.BigEndian, &rec); err != nil {
		return PhysicsObject{}, fmt.Errorf("read record at offset %d: %w", off, err)
	}

	obj := PhysicsObject{
		ID:       rec.ID,
		Flags:    rec.Flags,
		X:        rec.X,
		Y:        rec.Y,
		Rotation: rec.Rotation,
		Aux:      rec.Aux,
		Toggles:  rec.Toggles,
		Z:        rec.Z,
		Width:    rec.Width,
		Height:   rec.Height,
	}

	pixels := uint64(rec.Width) * uint64(rec.Height)
	if obj.Pixels, err = readColorArray(r, pixels, fmt.Sprintf("%dx%d image", rec.Width, rec.Height)); err != nil {
		return PhysicsObject{}, err
	}
	return obj, nil
}

// customCellCount returns the number of cells that take a custom colour.
func (w *WorldState) customCellCount() int {
	n := 0
	for _, c := range w.Cells {
		if c.HasCustomColor() {
			n++
		}
	}
	return n
}

// MarshalBinary encodes the world state in the decompressed layout.
// Trailing bytes are not retained by DecodeWorldState and are not written.
func (w *WorldState) MarshalBinary() ([]byte, error) {
	h := worldHeader{Version: w.Version, Width: w.Width, Height: w.Height}
	if !h.supported() {
		return nil, fmt.Errorf("%w: world state version %d, %dx%d", ErrUnsupportedFormat, h.Version, h.Width, h.Height)
	}
	if len(w.Cells) != int(w.Width*w.Height) {
		return nil, fmt.Errorf("%w: %d cells for a %dx%d grid", ErrSizeMismatch, len(w.Cells), w.Width, w.Height)
	}

	out := NewWriter(binary.BigEndian)
	if err := binary.Write(out, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("write world header: %w", err)
	}

	for _, c := range w.Cells {
		out.buf = append(out.buf, byte(c))
	}

	out.Uint32(uint32(len(w.Materials)))
	for _, name := range w.Materials {
		out.SizedString(name)
	}

	out.Uint32(uint32(len(w.CustomColors)))
	for _, c := range w.CustomColors {
		out.Uint32(uint32(c))
	}

	out.Uint32(uint32(len(w.Objects)))
	for i := range w.Objects {
		obj := &w.Objects[i]
		if uint64(len(obj.Pixels)) != uint64(obj.Width)*uint64(obj.Height) {
			return nil, fmt.Errorf("%w: physics object %d has %d pixels for %dx%d",
				ErrSizeMismatch, i, len(obj.Pixels), obj.Width, obj.Height)
		}

		rec := physicsRecord{
			ID:       obj.ID,
			Flags:    obj.Flags,
			X:        obj.X,
			Y:        obj.Y,
			Rotation: obj.Rotation,
			Aux:      obj.Aux,
			Toggles:  obj.Toggles,
			Z:        obj.Z,
			Width:    obj.Width,
			Height:   obj.Height,
		}
		if err := binary.Write(out, binary.BigEndian, &rec); err != nil {
			return nil, fmt.Errorf("write physics object %d: %w", i, err)
		}
		for _, c := range obj.Pixels {
			out.Uint32(uint32(c))
		}
	}

	return out.Bytes(), nil
}

// EncodeWorldState encodes and compresses w into a .png_petri file.
func EncodeWorldState(w *WorldState) ([]byte, error) {
	payload, err := w.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return Compress(payload)
}
