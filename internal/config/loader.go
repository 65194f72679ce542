package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/stampede/pkg/jsonschema"
)

// LoadFile reads, schema-checks, decodes and validates a configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML (or JSON, which is valid YAML) configuration data.
//
// The raw document is checked against the embedded JSON Schema first, so
// unknown keys and wrong types are reported together with their location.
// The decoded File is then passed through Validate.
func Parse(data []byte) (*File, error) {
	cfg := &File{}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	schema, err := jsonschema.Compile("stampede-config.json", fileSchema)
	if err != nil {
		return nil, err
	}
	if errs := schema.Validate(doc); len(errs) > 0 {
		return nil, fmt.Errorf("config does not match schema: %w", errs)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
