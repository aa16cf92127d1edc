// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// SettingType tags the kind of a SettingValue.
type SettingType uint32

// Setting value tags as stored in mod_settings.bin
const (
	SettingNone   SettingType = 0
	SettingBool   SettingType = 1
	SettingNumber SettingType = 2
	SettingString SettingType = 3
)

func (t SettingType) String() string {
	switch t {
	case SettingNone:
		return "none"
	case SettingBool:
		return "bool"
	case SettingNumber:
		return "number"
	case SettingString:
		return "string"
	default:
		return fmt.Sprintf("SettingType(%d)", uint32(t))
	}
}

// SettingValue is one typed settings value. Only the field matching Type is
// meaningful.
type SettingValue struct {
	Type   SettingType
	Bool   bool
	Number float64
	Text   string
}

// NoneValue returns the empty (nil) value.
func NoneValue() SettingValue { return SettingValue{Type: SettingNone} }

// BoolValue returns a boolean value.
func BoolValue(b bool) SettingValue { return SettingValue{Type: SettingBool, Bool: b} }

// NumberValue returns a number value.
func NumberValue(f float64) SettingValue { return SettingValue{Type: SettingNumber, Number: f} }

// StringValue returns a string value.
func StringValue(s string) SettingValue { return SettingValue{Type: SettingString, Text: s} }

// SettingsEntry is one mod setting with the value in effect now and the
// value that takes effect on the next restart.
type SettingsEntry struct {
	ID      string
	Current SettingValue
	Pending SettingValue
}

// SettingsTable is a decoded mod_settings.bin payload.
type SettingsTable struct {
	// Declared is the entry count stored in the header. It is advisory.
	Declared uint64

	// Entries in file order
	Entries []SettingsEntry

	// Warnings holds non-fatal problems found while decoding; each wraps
	// ErrEntryCountMismatch.
	Warnings []error
}

// LoadSettings decompresses a mod_settings.bin file and decodes its table.
func LoadSettings(raw []byte) (*SettingsTable, error) {
	payload, err := Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress settings: %w", err)
	}
	return DecodeSettings(payload)
}

// DecodeSettings decodes a decompressed settings table.
func DecodeSettings(payload []byte) (*SettingsTable, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: settings table needs 8 bytes, got %d", ErrTruncatedHeader, len(payload))
	}

	r := NewReader(payload, binary.BigEndian)
	declared, _ := r.Uint64()

	t := &SettingsTable{Declared: declared}
	for r.Len() > 0 {
		entry, err := readSettingsEntry(r)
		if err != nil {
			return nil, fmt.Errorf("settings entry %d: %w", len(t.Entries), err)
		}
		t.Entries = append(t.Entries, entry)
	}

	if uint64(len(t.Entries)) != t.Declared {
		t.Warnings = append(t.Warnings, fmt.Errorf("%w: header declares %d, decoded %d",
			ErrEntryCountMismatch, t.Declared, len(t.Entries)))
		logger.WithFields(logrus.Fields{
			"declared": t.Declared,
			"decoded":  len(t.Entries),
		}).Warn("settings entry count does not match header")
	}

	return t, nil
}

// readSettingsEntry decodes one record starting at the reader's cursor.
func readSettingsEntry(r *Reader) (SettingsEntry, error) {
	var e SettingsEntry
	start := r.Offset()

	id, err := r.SizedString()
	if err != nil {
		return e, truncated(fmt.Sprintf("id at offset %d", start), err)
	}
	e.ID = id

	currentType, err := readSettingType(r)
	if err != nil {
		return e, err
	}
	pendingType, err := readSettingType(r)
	if err != nil {
		return e, err
	}

	if e.Current, err = readSettingValue(r, currentType); err != nil {
		return e, fmt.Errorf("%s current value: %w", id, err)
	}
	if e.Pending, err = readSettingValue(r, pendingType); err != nil {
		return e, fmt.Errorf("%s pending value: %w", id, err)
	}

	return e, nil
}

// readSettingType reads and validates a value tag.
func readSettingType(r *Reader) (SettingType, error) {
	off := r.Offset()
	v, err := r.Uint32()
	if err != nil {
		return 0, truncated(fmt.Sprintf("type tag at offset %d", off), err)
	}

	t := SettingType(v)
	switch t {
	case SettingNone, SettingBool, SettingNumber, SettingString:
		return t, nil
	default:
		return 0, fmt.Errorf("%w: tag %d at offset %d", ErrUnknownSettingType, v, off)
	}
}

// readSettingValue reads the payload for a value of type t.
func readSettingValue(r *Reader, t SettingType) (SettingValue, error) {
	off := r.Offset()
	where := fmt.Sprintf("%s value at offset %d", t, off)

	switch t {
	case SettingNone:
		return NoneValue(), nil

	case SettingBool:
		v, err := r.Uint32()
		if err != nil {
			return SettingValue{}, truncated(where, err)
		}
		return BoolValue(v != 0), nil

	case SettingNumber:
		v, err := r.Float64()
		if err != nil {
			return SettingValue{}, truncated(where, err)
		}
		return NumberValue(v), nil

	case SettingString:
		v, err := r.SizedString()
		if err != nil {
			return SettingValue{}, truncated(where, err)
		}
		return StringValue(v), nil
	}

	return SettingValue{}, fmt.Errorf("%w: tag %d", ErrUnknownSettingType, uint32(t))
}

// Lookup returns the entry with the given id.
func (t *SettingsTable) Lookup(id string) (SettingsEntry, bool) {
	for _, e := range t.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return SettingsEntry{}, false
}

// MarshalBinary encodes the table in the decompressed settings layout.
// The count hint is written as the number of entries.
func (t *SettingsTable) MarshalBinary() ([]byte, error) {
	w := NewWriter(binary.BigEndian)
	w.Uint64(uint64(len(t.Entries)))

	for i, e := range t.Entries {
		w.SizedString(e.ID)
		w.Uint32(uint32(e.Current.Type))
		w.Uint32(uint32(e.Pending.Type))
		if err := writeSettingValue(w, e.Current); err != nil {
			return nil, fmt.Errorf("settings entry %d current value: %w", i, err)
		}
		if err := writeSettingValue(w, e.Pending); err != nil {
			return nil, fmt.Errorf("settings entry %d pending value: %w", i, err)
		}
	}

	return w.Bytes(), nil
}

// EncodeSettings encodes and compresses t into a mod_settings.bin file.
func EncodeSettings(t *SettingsTable) ([]byte, error) {
	payload, err := t.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return Compress(payload)
}

func writeSettingValue(w *Writer, v SettingValue) error {
	switch v.Type {
	case SettingNone:
	case SettingBool:
		if v.Bool {
			w.Uint32(1)
		} else {
			w.Uint32(0)
		}
	case SettingNumber:
		w.Float64(v.Number)
	case SettingString:
		w.SizedString(v.Text)
	default:
		return fmt.Errorf("%w: tag %d", ErrUnknownSettingType, uint32(v.Type))
	}
	return nil
}
