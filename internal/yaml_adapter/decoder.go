// Package yaml_adapter reads YAML descriptor files. A file may hold several
// documents separated by "---"; each has the config.Document shape.
package yaml_adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/extreg/internal/config"
	"github.com/specialistvlad/extreg/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Decoder is the YAML implementation of config.FileDecoder.
type Decoder struct{}

var _ config.FileDecoder = Decoder{}

// NewDecoder creates a new YAML decoder.
func NewDecoder() Decoder {
	return Decoder{}
}

// Extensions implements config.FileDecoder.
func (Decoder) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// DecodeFile implements config.FileDecoder. Resources are tagged with the line
// they start on.
func (Decoder) DecodeFile(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	model := config.NewModel()
	dec := yaml.NewDecoder(bytes.NewReader(src))
	for n := 0; ; n++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
		}

		var doc config.Document
		if err := decodeStrict(&node, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s (document %d): %w", filename, n+1, err)
		}
		lines := resourceLines(&node)
		part, err := doc.ToModel(func(i int) string {
			if i < len(lines) {
				return fmt.Sprintf("%s:%d", filename, lines[i])
			}
			return filename
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("YAML file decoded.", "file", filename, "resources", len(model.Resources))
	return model, nil
}

// decodeStrict re-encodes node and decodes it with unknown fields rejected;
// yaml.Node.Decode has no strict mode of its own.
func decodeStrict(node *yaml.Node, v any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// resourceLines returns the line of every item of the top-level "resources"
// sequence.
func resourceLines(doc *yaml.Node) []int {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "resources" {
			continue
		}
		seq := root.Content[i+1]
		lines := make([]int, len(seq.Content))
		for j, item := range seq.Content {
			lines[j] = item.Line
		}
		return lines
	}
	return nil
}
