package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://replacer.local/schema/rules-v1.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func rulesSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// yamlParser reads a "replacer" mapping:
//
//	description: common typos
//	replacer:
//	  teh: the
//	  "i ": "I "
//
// The document shape is checked against the embedded JSON schema before
// entries are read. Any scalar value is taken as text; null, sequence and
// mapping values are unreadable.
type yamlParser struct{}

func (yamlParser) ChecksSelfContainment() bool { return false }

func (yamlParser) Parse(source string, data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, parseError(source, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, missingGroupError(source)
	}
	root := doc.Content[0]

	if err := validateShape(root); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Source = source
			return nil, ce
		}
		return nil, parseError(source, err)
	}

	var group *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == Group {
			group = root.Content[i+1]
			break
		}
	}
	if group == nil {
		return nil, missingGroupError(source)
	}

	entries := make([]Entry, 0, len(group.Content)/2)
	for i := 0; i+1 < len(group.Content); i += 2 {
		key, val := group.Content[i], group.Content[i+1]
		entry := Entry{Pattern: key.Value}
		switch {
		case val.Kind == yaml.ScalarNode && val.Tag != "!!null":
			entry.Value = val.Value
		case val.Kind == yaml.AliasNode && val.Alias != nil && val.Alias.Kind == yaml.ScalarNode:
			entry.Value = val.Alias.Value
		default:
			entry.Err = fmt.Errorf("line %d: value is not text", val.Line)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// validateShape checks root against the embedded schema. A document without
// the replacer group is reported as E208 rather than a schema violation.
func validateShape(root *yaml.Node) error {
	var generic any
	if err := root.Decode(&generic); err != nil {
		return err
	}
	m, ok := generic.(map[string]any)
	if !ok {
		return fmt.Errorf("top level must be a mapping")
	}
	if _, ok := m[Group]; !ok {
		return missingGroupError("")
	}

	// Round-trip through JSON so the validator sees JSON types
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return err
	}

	s, err := rulesSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
