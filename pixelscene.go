// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"encoding/binary"
	"fmt"
)

// ColorMaterial maps a colour in a scene's colour image to a material.
// Color holds the 24-bit RGB value with alpha dropped.
type ColorMaterial struct {
	Color    uint32 `yaml:"color"`
	CellType int32  `yaml:"cell_type"`
}

// PixelScene is a scene image pending or already placed in the world.
type PixelScene struct {
	X                  int32           `yaml:"x"`
	Y                  int32           `yaml:"y"`
	MaterialFilename   string          `yaml:"material_filename"`
	ColorsFilename     string          `yaml:"colors_filename"`
	BackgroundFilename string          `yaml:"background_filename"`
	SkipBiomeChecks    bool            `yaml:"skip_biome_checks"`
	SkipEdgeTextures   bool            `yaml:"skip_edge_textures"`
	BackgroundZIndex   int32           `yaml:"background_z_index"`
	JustLoadAnEntity   string          `yaml:"just_load_an_entity"`
	CleanAreaBefore    bool            `yaml:"clean_area_before"`
	DebugReloadMe      bool            `yaml:"debug_reload_me"`
	ColorMaterials     []ColorMaterial `yaml:"color_materials"`
}

// SceneImage is a background image listed in the pixel scene file.
type SceneImage struct {
	X        int32  `yaml:"x"`
	Y        int32  `yaml:"y"`
	Filename string `yaml:"filename"`
}

// PixelSceneFile is a decoded _pixel_scenes.bin payload.
type PixelSceneFile struct {
	Version          int32        `yaml:"version"`
	Magic            int32        `yaml:"magic"`
	Pending          []PixelScene `yaml:"pending"`
	Placed           []PixelScene `yaml:"placed"`
	BackgroundImages []SceneImage `yaml:"background_images"`
}

// LoadPixelScenes decompresses a _pixel_scenes.bin file and decodes it.
func LoadPixelScenes(raw []byte) (*PixelSceneFile, error) {
	payload, err := Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress pixel scenes: %w", err)
	}
	return DecodePixelScenes(payload)
}

// DecodePixelScenes decodes a decompressed pixel scene payload.
// Only version 3 files with the current magic number are supported.
func DecodePixelScenes(payload []byte) (*PixelSceneFile, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: pixel scenes need 8 bytes, got %d", ErrTruncatedHeader, len(payload))
	}

	r := NewReader(payload, binary.BigEndian)
	version, _ := r.Int32()
	magic, _ := r.Int32()
	if magic != pixelSceneMagic {
		return nil, fmt.Errorf("%w: pixel scene magic 0x%08X (want 0x%08X)", ErrUnsupportedFormat, uint32(magic), pixelSceneMagic)
	}
	if version != pixelSceneVersion {
		return nil, fmt.Errorf("%w: pixel scene version %d (want %d)", ErrUnsupportedFormat, version, pixelSceneVersion)
	}

	f := &PixelSceneFile{Version: version, Magic: magic}
	d := &fieldDecoder{r: r}

	f.Pending = readPixelSceneList(d, "pending")
	f.Placed = readPixelSceneList(d, "placed")

	images := d.int32("background image count")
	for i := int32(0); i < images && d.err == nil; i++ {
		var img SceneImage
		img.X = d.int32("background image x")
		img.Y = d.int32("background image y")
		img.Filename = d.string("background image filename")
		f.BackgroundImages = append(f.BackgroundImages, img)
	}

	if d.err != nil {
		return nil, fmt.Errorf("pixel scenes: %w", d.err)
	}
	return f, nil
}

func readPixelSceneList(d *fieldDecoder, list string) []PixelScene {
	count := d.int32(list + " scene count")

	var scenes []PixelScene
	for i := int32(0); i < count && d.err == nil; i++ {
		scenes = append(scenes, readPixelScene(d))
	}
	return scenes
}

func readPixelScene(d *fieldDecoder) PixelScene {
	var s PixelScene
	s.X = d.int32("scene x")
	s.Y = d.int32("scene y")
	s.MaterialFilename = d.string("material filename")
	s.ColorsFilename = d.string("colors filename")
	s.BackgroundFilename = d.string("background filename")
	s.SkipBiomeChecks = d.bool("skip biome checks")
	s.SkipEdgeTextures = d.bool("skip edge textures")
	s.BackgroundZIndex = d.int32("background z index")
	s.JustLoadAnEntity = d.string("entity filename")
	s.CleanAreaBefore = d.bool("clean area before")
	s.DebugReloadMe = d.bool("debug reload")

	count := d.uint32("color material count")
	for i := uint32(0); i < count && d.err == nil; i++ {
		var cm ColorMaterial
		// The colour is the one little-endian field in the file
		cm.Color = d.uint32LE("color") >> 8
		cm.CellType = d.int32("cell type")
		s.ColorMaterials = append(s.ColorMaterials, cm)
	}
	return s
}

// uint32LE reads a 32-bit unsigned integer in little-endian order regardless
// of the reader's byte order.
func (d *fieldDecoder) uint32LE(what string) uint32 {
	if d.err != nil {
		return 0
	}
	off := d.r.Offset()
	b, err := d.r.Next(4)
	if err != nil {
		d.fail(what, off, err)
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Material returns the cell type mapped to colour c, if any.
func (s *PixelScene) Material(c uint32) (int32, bool) {
	for _, cm := range s.ColorMaterials {
		if cm.Color == c {
			return cm.CellType, true
		}
	}
	return 0, false
}
