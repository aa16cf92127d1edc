// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"bufio"
	"io"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

// displayText returns s for printing. Strings in save files are raw bytes;
// anything that is not valid UTF-8 is shown as Windows-1252.
func displayText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return strconv.QuoteToASCII(s)
	}
	return out
}

// String formats v the way the settings dump prints it: nil, true/false,
// a number, or a quoted string.
func (v SettingValue) String() string {
	switch v.Type {
	case SettingNone:
		return "nil"
	case SettingBool:
		return strconv.FormatBool(v.Bool)
	case SettingNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case SettingString:
		return `"` + displayText(v.Text) + `"`
	default:
		return "what?"
	}
}

// WriteText writes a human-readable dump of the table to w:
//
//	mod.setting_id
//	  Current: 1
//	  Next   : 2
func (t *SettingsTable) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range t.Entries {
		bw.WriteString(displayText(e.ID))
		bw.WriteString("\n  Current: ")
		bw.WriteString(e.Current.String())
		bw.WriteString("\n  Next   : ")
		bw.WriteString(e.Pending.String())
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

// MarshalYAML encodes the value as a plain YAML scalar (null for None).
func (v SettingValue) MarshalYAML() (interface{}, error) {
	return v.yamlNode(), nil
}

func (v SettingValue) yamlNode() *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.Type {
	case SettingBool:
		n.Tag, n.Value = "!!bool", strconv.FormatBool(v.Bool)
	case SettingNumber:
		n.Tag, n.Value = "!!float", strconv.FormatFloat(v.Number, 'g', -1, 64)
	case SettingString:
		n.Tag, n.Value = "!!str", displayText(v.Text)
	default:
		n.Tag, n.Value = "!!null", "null"
	}
	return n
}

// MarshalYAML encodes the table as a mapping from setting id to its current
// and next values, in file order.
func (t *SettingsTable) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range t.Entries {
		values := &yaml.Node{Kind: yaml.MappingNode}
		values.Content = append(values.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "current"}, e.Current.yamlNode(),
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "next"}, e.Pending.yamlNode(),
		)
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: displayText(e.ID)},
			values,
		)
	}
	return root, nil
}
