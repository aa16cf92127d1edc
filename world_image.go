// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"sort"
)

// Color is a packed colour as stored in world files. The least significant
// byte is red, followed by green, blue and alpha (not premultiplied).
type Color uint32

// NewColor packs r, g, b and a into a Color.
func NewColor(r, g, b, a uint8) Color {
	return Color(uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24)
}

// NRGBA unpacks the colour.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c), G: uint8(c >> 8), B: uint8(c >> 16), A: uint8(c >> 24)}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// Cell returns the grid cell at (x, y). It panics if the position is outside
// the grid.
func (w *WorldState) Cell(x, y int) Cell {
	if x < 0 || y < 0 || x >= int(w.Width) || y >= int(w.Height) {
		panic(fmt.Sprintf("noita: cell (%d, %d) outside %dx%d grid", x, y, w.Width, w.Height))
	}
	return w.Cells[y*int(w.Width)+x]
}

// MaterialName returns the material name for c, or false if the index is
// past the material table.
func (w *WorldState) MaterialName(c Cell) (string, bool) {
	i := c.Material()
	if i >= len(w.Materials) {
		return "", false
	}
	return w.Materials[i], true
}

// CellColors returns one colour per cell in scan order. Cells with the custom
// bit take the next custom colour; all others are transparent, as material
// colours live in the game's data files rather than the save.
func (w *WorldState) CellColors() []Color {
	out := make([]Color, len(w.Cells))
	next := 0
	for i, c := range w.Cells {
		if !c.HasCustomColor() {
			continue
		}
		// DecodeWorldState guarantees enough colours; guard hand-built values
		if next < len(w.CustomColors) {
			out[i] = w.CustomColors[next]
		}
		next++
	}
	return out
}

// Image renders the custom-coloured cells of the grid.
func (w *WorldState) Image() *image.NRGBA {
	return colorsToImage(w.CellColors(), int(w.Width), int(w.Height))
}

// Image returns the object's sprite.
func (o *PhysicsObject) Image() *image.NRGBA {
	return colorsToImage(o.Pixels, int(o.Width), int(o.Height))
}

func colorsToImage(colors []Color, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, c := range colors {
		if i >= width*height {
			break
		}
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = uint8(c), uint8(c>>8), uint8(c>>16), uint8(c>>24)
	}
	return img
}

// ObjectsByDepth returns the physics objects in draw order: larger Z first.
// Objects with equal Z keep their file order. The receiver is not modified.
func (w *WorldState) ObjectsByDepth() []*PhysicsObject {
	out := make([]*PhysicsObject, len(w.Objects))
	for i := range w.Objects {
		out[i] = &w.Objects[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Z > out[j].Z
	})
	return out
}

// WriteSummary writes a readable listing of the materials, physics objects
// and any unparsed trailing bytes to wr.
func (w *WorldState) WriteSummary(wr io.Writer) error {
	bw := bufio.NewWriter(wr)

	fmt.Fprintf(bw, "version %d, %dx%d\n", w.Version, w.Width, w.Height)

	fmt.Fprintf(bw, "materials: %d\n", len(w.Materials))
	for i, name := range w.Materials {
		fmt.Fprintf(bw, "  %3d %s\n", i, displayText(name))
	}

	fmt.Fprintf(bw, "custom colors: %d\n", len(w.CustomColors))

	fmt.Fprintf(bw, "physics objects: %d\n", len(w.Objects))
	for i := range w.Objects {
		o := &w.Objects[i]
		fmt.Fprintf(bw, "  id %d flags 0x%08X\n", o.ID, o.Flags)
		fmt.Fprintf(bw, "    pos (%g, %g) rot %g z %g\n", o.X, o.Y, o.Rotation, o.Z)
		fmt.Fprintf(bw, "    aux %v\n", o.Aux)
		fmt.Fprintf(bw, "    toggles %v\n", o.Toggles)
		fmt.Fprintf(bw, "    image %dx%d\n", o.Width, o.Height)
	}

	if w.TrailingSize > 0 {
		fmt.Fprintf(bw, "unparsed: %d bytes at offset %d\n", w.TrailingSize, w.TrailingOffset)
	}

	return bw.Flush()
}
