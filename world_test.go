// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// worldFixture describes a world-state payload to build by hand.
type worldFixture struct {
	version       uint32
	cells         []byte // defaults to an all-zero grid
	materials     []string
	customColors  []uint32
	objects       []PhysicsObject
	pixelOverride map[int]int // object index -> number of pixels actually written
	trailing      []byte
}

func (f worldFixture) bytes() []byte {
	w := NewWriter(binary.BigEndian)

	version := f.version
	if version == 0 {
		version = worldVersion
	}
	w.Uint32(version)
	w.Uint32(worldWidth)
	w.Uint32(worldHeight)

	cells := f.cells
	if cells == nil {
		cells = make([]byte, worldWidth*worldHeight)
	}
	w.Write(cells)

	w.Uint32(uint32(len(f.materials)))
	for _, m := range f.materials {
		w.SizedString(m)
	}

	w.Uint32(uint32(len(f.customColors)))
	for _, c := range f.customColors {
		w.Uint32(c)
	}

	w.Uint32(uint32(len(f.objects)))
	for i, o := range f.objects {
		w.Uint64(o.ID)
		w.Uint32(o.Flags)
		w.Float32(o.X)
		w.Float32(o.Y)
		w.Float32(o.Rotation)
		for _, a := range o.Aux {
			w.Float64(a)
		}
		for _, b := range o.Toggles {
			w.Bool(b)
		}
		w.Float32(o.Z)
		w.Uint32(o.Width)
		w.Uint32(o.Height)

		n := len(o.Pixels)
		if override, ok := f.pixelOverride[i]; ok {
			n = override
		}
		for j := 0; j < n; j++ {
			var c Color
			if j < len(o.Pixels) {
				c = o.Pixels[j]
			}
			w.Uint32(uint32(c))
		}
	}

	w.Write(f.trailing)
	return w.Bytes()
}

func sampleObject() PhysicsObject {
	return PhysicsObject{
		ID:       0x0102030405060708,
		Flags:    0xA0B0C0D0,
		X:        12.5,
		Y:        -3,
		Rotation: float32(math.Pi / 2),
		Aux:      [5]float64{1, 2, 3, 4, 5},
		Toggles:  [5]bool{true, false, true, false, true},
		Z:        7.25,
		Width:    2,
		Height:   2,
		Pixels:   []Color{0xFF0000FF, 0xFF00FF00, 0xFFFF0000, 0x00000000},
	}
}

func TestDecodeWorldStateEmpty(t *testing.T) {
	w, err := DecodeWorldState(worldFixture{}.bytes())
	require.NoError(t, err)

	assert.Equal(t, uint32(24), w.Version)
	assert.Equal(t, uint32(512), w.Width)
	assert.Equal(t, uint32(512), w.Height)
	assert.Len(t, w.Cells, 262144)
	assert.Empty(t, w.Materials)
	assert.Empty(t, w.CustomColors)
	assert.Empty(t, w.Objects)
	assert.Equal(t, 0, w.TrailingSize)
	assert.Equal(t, 12+262144+12, w.TrailingOffset)
}

func TestDecodeWorldStateFull(t *testing.T) {
	cells := make([]byte, worldWidth*worldHeight)
	cells[0] = 1
	cells[1] = 0x80 | 2
	cells[worldWidth] = 0x80

	obj := sampleObject()
	fixture := worldFixture{
		cells:        cells,
		materials:    []string{"air", "water", "sand"},
		customColors: []uint32{0x11223344, 0x55667788},
		objects:      []PhysicsObject{obj},
	}

	w, err := DecodeWorldState(fixture.bytes())
	require.NoError(t, err)

	assert.Equal(t, []string{"air", "water", "sand"}, w.Materials)
	assert.Equal(t, []Color{0x11223344, 0x55667788}, w.CustomColors)
	require.Len(t, w.Objects, 1)
	assert.Equal(t, obj, w.Objects[0])

	assert.Equal(t, Cell(1), w.Cell(0, 0))
	assert.True(t, w.Cell(1, 0).HasCustomColor())
	assert.Equal(t, 2, w.Cell(1, 0).Material())
	assert.Equal(t, 0, w.Cell(0, 1).Material())

	name, ok := w.MaterialName(w.Cell(1, 0))
	assert.True(t, ok)
	assert.Equal(t, "sand", name)
	_, ok = w.MaterialName(Cell(0x7F))
	assert.False(t, ok)
}

func TestPhysicsObjectByteLayout(t *testing.T) {
	obj := sampleObject()
	payload := worldFixture{objects: []PhysicsObject{obj}}.bytes()

	// First object record starts after header, grid and three empty counts plus the object count
	rec := payload[12+worldWidth*worldHeight+4+4+4:]

	assert.Equal(t, obj.ID, binary.BigEndian.Uint64(rec[0:]))
	assert.Equal(t, obj.Flags, binary.BigEndian.Uint32(rec[8:]))
	assert.Equal(t, math.Float32bits(obj.X), binary.BigEndian.Uint32(rec[12:]))
	assert.Equal(t, math.Float32bits(obj.Rotation), binary.BigEndian.Uint32(rec[20:]))
	assert.Equal(t, math.Float64bits(obj.Aux[0]), binary.BigEndian.Uint64(rec[24:]))
	assert.Equal(t, math.Float64bits(obj.Aux[4]), binary.BigEndian.Uint64(rec[56:]))
	assert.Equal(t, []byte{1, 0, 1, 0, 1}, rec[64:69])
	assert.Equal(t, math.Float32bits(obj.Z), binary.BigEndian.Uint32(rec[69:]))
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(rec[73:]))
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(rec[77:]))
	assert.Equal(t, uint32(obj.Pixels[0]), binary.BigEndian.Uint32(rec[81:]))

	// Encoding must produce the same bytes
	w, err := DecodeWorldState(payload)
	require.NoError(t, err)
	encoded, err := w.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, encoded))
}

func TestDecodeWorldStateImageSize(t *testing.T) {
	obj := sampleObject()
	fixture := worldFixture{
		objects:       []PhysicsObject{obj},
		pixelOverride: map[int]int{0: 3},
	}

	w, err := DecodeWorldState(fixture.bytes())
	assert.ErrorIs(t, err, ErrTruncatedRecord)
	assert.Nil(t, w)
}

func TestDecodeWorldStateErrors(t *testing.T) {
	full := worldFixture{objects: []PhysicsObject{sampleObject()}}.bytes()

	overflowCells := make([]byte, worldWidth*worldHeight)
	overflowCells[10] = 0x80
	overflowCells[20] = 0x81

	badSize := binary.BigEndian.AppendUint32(nil, worldVersion)
	badSize = binary.BigEndian.AppendUint32(badSize, 256)
	badSize = binary.BigEndian.AppendUint32(badSize, 256)

	tests := []struct {
		name    string
		payload []byte
		want    error
	}{
		{"empty", nil, ErrTruncatedHeader},
		{"partial header", full[:8], ErrTruncatedHeader},
		{"version 1", worldFixture{version: 1}.bytes(), ErrUnsupportedFormat},
		{"wrong size", badSize, ErrUnsupportedFormat},
		{"short grid", full[:12+1000], ErrTruncatedRecord},
		{"missing material count", full[:12+worldWidth*worldHeight+2], ErrTruncatedRecord},
		{"short physics record", full[:len(full)-16-40], ErrTruncatedRecord},
		{"custom color overflow", worldFixture{cells: overflowCells, customColors: []uint32{1}}.bytes(), ErrSizeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := DecodeWorldState(tt.payload)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, w)
		})
	}
}

func TestDecodeWorldStateMaterialTruncated(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	w.Uint32(worldVersion)
	w.Uint32(worldWidth)
	w.Uint32(worldHeight)
	w.Write(make([]byte, worldWidth*worldHeight))
	w.Uint32(1)
	w.Uint32(64) // name length past the end
	w.Write([]byte("air"))

	_, err := DecodeWorldState(w.Bytes())
	assert.ErrorIs(t, err, ErrTruncatedRecord)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestDecodeWorldStateTrailing(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	SetLogger(logger)
	defer SetLogger(nil)

	fixture := worldFixture{trailing: []byte{9, 9, 9, 9, 9}}
	payload := fixture.bytes()

	w, err := DecodeWorldState(payload)
	require.NoError(t, err)
	assert.Equal(t, 5, w.TrailingSize)
	assert.Equal(t, len(payload)-5, w.TrailingOffset)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, 5, entry.Data["size"])
}

func TestWorldStateRoundTrip(t *testing.T) {
	cells := make([]byte, worldWidth*worldHeight)
	for i := range cells {
		cells[i] = byte(i % 3)
	}
	cells[100] |= 0x80

	second := sampleObject()
	second.ID = 2
	second.Z = 100
	second.Width, second.Height = 1, 3
	second.Pixels = []Color{1, 2, 3}

	fixture := worldFixture{
		cells:        cells,
		materials:    []string{"air", "rock_static", "blood"},
		customColors: []uint32{0xDEADBEEF},
		objects:      []PhysicsObject{sampleObject(), second},
	}

	w, err := DecodeWorldState(fixture.bytes())
	require.NoError(t, err)

	raw, err := EncodeWorldState(w)
	require.NoError(t, err)
	assert.Less(t, len(raw), len(fixture.bytes()))

	again, err := LoadWorldState(raw)
	require.NoError(t, err)
	assert.Equal(t, w, again)
}

func TestWorldStateMarshalBinaryErrors(t *testing.T) {
	w, err := DecodeWorldState(worldFixture{}.bytes())
	require.NoError(t, err)

	bad := *w
	bad.Cells = bad.Cells[:10]
	_, err = bad.MarshalBinary()
	assert.ErrorIs(t, err, ErrSizeMismatch)

	bad = *w
	bad.Version = 23
	_, err = bad.MarshalBinary()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	bad = *w
	obj := sampleObject()
	obj.Pixels = obj.Pixels[:1]
	bad.Objects = []PhysicsObject{obj}
	_, err = bad.MarshalBinary()
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestCellColors(t *testing.T) {
	cells := make([]byte, worldWidth*worldHeight)
	cells[5] = 0x80
	cells[worldWidth+1] = 0x83

	fixture := worldFixture{cells: cells, customColors: []uint32{0xFF0000FF, 0xFF00FF00}}
	w, err := DecodeWorldState(fixture.bytes())
	require.NoError(t, err)

	colors := w.CellColors()
	require.Len(t, colors, len(cells))
	assert.Equal(t, Color(0xFF0000FF), colors[5])
	assert.Equal(t, Color(0xFF00FF00), colors[worldWidth+1])
	assert.Equal(t, Color(0), colors[0])

	img := w.Image()
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, color.NRGBA{R: 0xFF, A: 0xFF}, img.NRGBAAt(5, 0))
	assert.Equal(t, color.NRGBA{G: 0xFF, A: 0xFF}, img.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(0, 0))
}

func TestColor(t *testing.T) {
	c := NewColor(0x11, 0x22, 0x33, 0x44)
	assert.Equal(t, Color(0x44332211), c)
	assert.Equal(t, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}, c.NRGBA())

	r, g, b, a := NewColor(0xFF, 0, 0, 0xFF).RGBA()
	assert.Equal(t, [4]uint32{0xFFFF, 0, 0, 0xFFFF}, [4]uint32{r, g, b, a})
}

func TestPhysicsObjectImage(t *testing.T) {
	obj := sampleObject()
	img := obj.Image()

	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 0xFF, A: 0xFF}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 0xFF, A: 0xFF}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{B: 0xFF, A: 0xFF}, img.NRGBAAt(0, 1))
}

func TestObjectsByDepth(t *testing.T) {
	w := &WorldState{
		Objects: []PhysicsObject{
			{ID: 1, Z: 0},
			{ID: 2, Z: 5},
			{ID: 3, Z: -1},
			{ID: 4, Z: 5},
		},
	}

	var ids []uint64
	for _, o := range w.ObjectsByDepth() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []uint64{2, 4, 1, 3}, ids)

	// The stored order is untouched
	assert.Equal(t, uint64(1), w.Objects[0].ID)
}

func TestWorldStateWriteSummary(t *testing.T) {
	fixture := worldFixture{
		materials: []string{"air", "gold"},
		objects:   []PhysicsObject{sampleObject()},
		trailing:  []byte{1, 2, 3},
	}
	w, err := DecodeWorldState(fixture.bytes())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.WriteSummary(&buf))

	out := buf.String()
	assert.Contains(t, out, "version 24, 512x512")
	assert.Contains(t, out, "materials: 2")
	assert.Contains(t, out, "gold")
	assert.Contains(t, out, "physics objects: 1")
	assert.Contains(t, out, "flags 0xA0B0C0D0")
	assert.Contains(t, out, "image 2x2")
	assert.Contains(t, out, "unparsed: 3 bytes at offset")
}

func TestDecodeWorldStateHugeImage(t *testing.T) {
	obj := sampleObject()
	obj.Width, obj.Height = 0xFFFFFFFF, 0xFFFFFFFF
	fixture := worldFixture{
		objects:       []PhysicsObject{obj},
		pixelOverride: map[int]int{0: 4},
	}

	_, err := DecodeWorldState(fixture.bytes())
	assert.ErrorIs(t, err, ErrTruncatedRecord)
}
