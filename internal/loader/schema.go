package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Schema describes the graph shape extracted from (or declared for) a
// source table: node labels, relation types, and attribute columns.
type Schema struct {
	NodeLabels    []string `json:"node_labels" yaml:"node_labels"`
	RelationTypes []string `json:"relation_types" yaml:"relation_types"`
	Attributes    []string `json:"attributes" yaml:"attributes"`
}

// ReadSchemaFile loads a schema description. YAML and JSON both decode.
func ReadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read schema file")
	}
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, errors.Wrap(err, "decode schema file")
	}
	return &schema, nil
}

// Write persists the schema as indented JSON, creating parent
// directories as needed.
func (s *Schema) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create schema directory")
	}
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, payload, 0o644), "write schema file")
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
