package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchemaFile is a schema stored on disk. The file may hold the whole object or
// just the field list.
type SchemaFile struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Fields      []FieldSpec `json:"fields" yaml:"fields"`
}

// ReadSchemaFile loads a schema from a .json, .yaml or .yml file. A file
// without a name takes its base name.
func ReadSchemaFile(path string) (*SchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var sf *SchemaFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		sf, err = parseYAMLSchema(data)
	case ".json", "":
		sf, err = parseJSONSchema(data)
	default:
		return nil, fmt.Errorf("unsupported schema file extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if sf.Name == "" {
		sf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sf, nil
}

func parseJSONSchema(data []byte) (*SchemaFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var fields []FieldSpec
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
		return &SchemaFile{Fields: fields}, nil
	}

	var sf SchemaFile
	if err := json.Unmarshal(trimmed, &sf); err != nil {
		return nil, err
	}
	return &sf, nil
}

func parseYAMLSchema(data []byte) (*SchemaFile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return &SchemaFile{}, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		var fields []FieldSpec
		if err := root.Decode(&fields); err != nil {
			return nil, err
		}
		return &SchemaFile{Fields: fields}, nil
	}

	var sf SchemaFile
	if err := root.Decode(&sf); err != nil {
		return nil, err
	}
	return &sf, nil
}
