package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Write sets section.key = value in the YAML file at path, creating the
// file and its directory if needed. Other content, comments included, is
// preserved.
func Write(path, section, key, value string) error {
	if section == "" || key == "" {
		return fmt.Errorf("config write: section and key are required")
	}

	var root yaml.Node
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("config %s: top level must be a mapping", path)
	}

	sectionNode := lookup(root.Content[0], section)
	if sectionNode == nil {
		sectionNode = &yaml.Node{Kind: yaml.MappingNode}
		root.Content[0].Content = append(root.Content[0].Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: section},
			sectionNode,
		)
	}
	if sectionNode.Kind != yaml.MappingNode {
		return fmt.Errorf("config %s: %s is not a section", path, section)
	}

	valueNode := &yaml.Node{Kind: yaml.ScalarNode, Value: value, Style: yaml.DoubleQuotedStyle}
	if existing := lookupIndex(sectionNode, key); existing >= 0 {
		sectionNode.Content[existing+1] = valueNode
	} else {
		sectionNode.Content = append(sectionNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			valueNode,
		)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	if i := lookupIndex(mapping, key); i >= 0 {
		return mapping.Content[i+1]
	}
	return nil
}

func lookupIndex(mapping *yaml.Node, key string) int {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return i
		}
	}
	return -1
}
