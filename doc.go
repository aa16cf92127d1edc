// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package noita provides pure Go codecs for the binary save and settings files
of the game Noita.

Every file is wrapped in the same container: an 8-byte little-endian header
holding the compressed and decompressed sizes, followed by a FastLZ body. When
the two sizes are equal the body is stored verbatim. Inside the container the
payloads are big-endian.

# Supported Files

  - mod_settings.bin: the mod settings table ([DecodeSettings])
  - .png_petri world chunks: cell grid, materials, custom colours and
    physics objects ([DecodeWorldState])
  - .stream_info: the header of a saved run ([DecodeStreamInfo])
  - _pixel_scenes.bin: pending and placed pixel scenes ([DecodePixelScenes])

# Basic Usage

Reading the mod settings:

	raw, err := os.ReadFile("save00/mod_settings.bin")
	if err != nil {
		log.Fatal(err)
	}

	table, err := noita.LoadSettings(raw)
	if err != nil {
		log.Fatal(err)
	}
	table.WriteText(os.Stdout)

Reading a world chunk:

	world, err := noita.LoadWorldState(raw)
	if err != nil {
		log.Fatal(err)
	}
	for _, obj := range world.ObjectsByDepth() {
		fmt.Println(obj.ID, obj.Width, obj.Height)
	}

Writing a settings table back:

	raw, err = noita.EncodeSettings(table)

# Compression

[Compress] and [Decompress] use FastLZ level 2, as the game does. Other
block compressors can be plugged in with [CompressWith] and [DecompressWith];
files written with [LZ4] or [Zstd] are only readable by this package.

# Errors

Decode failures wrap one of the sentinel errors ([ErrTruncatedHeader],
[ErrTruncatedRecord], [ErrSizeMismatch], ...) and carry the byte offset where
decoding stopped. Nothing is repaired or partially returned.

# Logging

Warnings and debug traces go to the logrus standard logger. Use [SetLogger]
to redirect them.

# Limitations

  - Only world-state version 24 with 512x512 chunks is decoded
  - Bytes after the last physics object are reported, not interpreted
  - Entities and other save files are not supported
*/
package noita
