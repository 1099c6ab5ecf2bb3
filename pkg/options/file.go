package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// sinkFile represents the structure of the sink definition file.
type sinkFile struct {
	Stream struct {
		ID         string   `json:"id" yaml:"id"`
		Attributes []string `json:"attributes" yaml:"attributes"`
	} `json:"stream" yaml:"stream"`
	Sink struct {
		Type    string            `json:"type" yaml:"type"`
		Options map[string]string `json:"options" yaml:"options"`
	} `json:"sink" yaml:"sink"`
	Destinations []map[string]string `json:"destinations" yaml:"destinations"`
}

// SinkDefinition is a parsed sink file: the transport kind, the shared
// sink-level options, and one option set per destination in declaration
// order (which fixes the destination ids).
type SinkDefinition struct {
	Kind             string
	StreamID         string
	StreamAttributes []string
	Base             *OptionHolder
	Destinations     []*OptionHolder
}

// LoadSinkFile loads a sink definition from a YAML/JSON file.
func LoadSinkFile(path string) (*SinkDefinition, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sink file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sink file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sink file: %w", err)
	}

	parsed, err := parseSinkFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return buildSinkDefinition(parsed)
}

// parseSinkFile attempts to decode the sink file content.
func parseSinkFile(data []byte, ext string) (sinkFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var parsed sinkFile
		if err := d.fn(data, &parsed); err == nil {
			return parsed, nil
		}
	}

	return sinkFile{}, errors.New("sink file format not recognized (expected YAML or JSON)")
}

// buildSinkDefinition validates the parsed file and materializes holders.
func buildSinkDefinition(parsed sinkFile) (*SinkDefinition, error) {
	kind := strings.ToLower(strings.TrimSpace(parsed.Sink.Type))
	if kind == "" {
		return nil, &ConfigError{Reason: "sink.type is required"}
	}
	if len(parsed.Destinations) == 0 {
		return nil, &ConfigError{Reason: "at least one destination is required"}
	}

	def := &SinkDefinition{
		Kind:             kind,
		StreamID:         strings.TrimSpace(parsed.Stream.ID),
		StreamAttributes: parsed.Stream.Attributes,
		Base:             NewOptionHolder(sanitizeOptions(parsed.Sink.Options)),
	}
	for _, dest := range parsed.Destinations {
		def.Destinations = append(def.Destinations, NewOptionHolder(sanitizeOptions(dest)))
	}
	return def, nil
}

// sanitizeOptions trims keys and values and drops empty keys.
func sanitizeOptions(opts map[string]string) map[string]string {
	if len(opts) == 0 {
		return nil
	}
	out := make(map[string]string, len(opts))
	for k, v := range opts {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(v)
	}
	return out
}
