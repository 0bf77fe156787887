package io

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/matzehuels/graphopt/pkg/ir"
)

// Format is a graph serialization format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name. "yml" is accepted as YAML and the empty
// string defaults to JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// FormatFromPath picks the format from a file extension. Unknown extensions
// default to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Read decodes a graph in the given format.
func Read(r io.Reader, f Format) (*ir.Graph, error) {
	switch f {
	case FormatYAML:
		return ReadYAML(r)
	case FormatJSON, "":
		return ReadJSON(r)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// Write encodes a graph in the given format.
func Write(g *ir.Graph, w io.Writer, f Format) error {
	switch f {
	case FormatYAML:
		return WriteYAML(g, w)
	case FormatJSON, "":
		return WriteJSON(g, w)
	}
	return fmt.Errorf("unknown format %q", f)
}

// Decode is Read over a byte slice.
func Decode(data []byte, f Format) (*ir.Graph, error) {
	return Read(bytes.NewReader(data), f)
}

// Encode is Write into a byte slice.
func Encode(g *ir.Graph, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
