// Package targets loads the ordered descriptor list a sweep probes.
package targets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotList is returned when the document's top-level value is not a sequence.
var ErrNotList = errors.New("targets: document must be a list of descriptors")

// Descriptor is one method + route pair from the targets file.
type Descriptor struct {
	Method string `json:"method" yaml:"method"`
	Route  string `json:"route" yaml:"route"`
}

// Load reads path and returns its descriptors in file order. Files ending in
// .yaml or .yml are parsed as YAML; everything else must be a JSON array.
func Load(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("targets: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return parseJSON(data)
	}
}

func parseJSON(data []byte) ([]Descriptor, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '[' {
		if json.Valid(trimmed) {
			return nil, ErrNotList
		}
	}
	var out []Descriptor
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("targets: decode json: %w", err)
	}
	if out == nil {
		return nil, ErrNotList
	}
	return out, nil
}

func parseYAML(data []byte) ([]Descriptor, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("targets: decode yaml: %w", err)
	}
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.SequenceNode {
		return nil, ErrNotList
	}
	out := make([]Descriptor, 0, len(node.Content[0].Content))
	if err := node.Content[0].Decode(&out); err != nil {
		return nil, fmt.Errorf("targets: decode yaml: %w", err)
	}
	return out, nil
}
