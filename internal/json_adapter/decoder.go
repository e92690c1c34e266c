// Package json_adapter reads JSON descriptor files shaped like config.Document.
package json_adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/extreg/internal/config"
	"github.com/specialistvlad/extreg/internal/ctxlog"
)

// Decoder is the JSON implementation of config.FileDecoder.
type Decoder struct{}

var _ config.FileDecoder = Decoder{}

// NewDecoder creates a new JSON decoder.
func NewDecoder() Decoder {
	return Decoder{}
}

// Extensions implements config.FileDecoder.
func (Decoder) Extensions() []string {
	return []string{".json"}
}

// DecodeFile implements config.FileDecoder. The file must hold exactly one
// JSON object.
func (Decoder) DecodeFile(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	var doc config.Document
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, describe(filename, src, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode JSON file %s: unexpected data after the top-level object", filename)
	}

	model, err := doc.ToModel(func(i int) string {
		return fmt.Sprintf("%s:resources[%d]", filename, i)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	ctxlog.FromContext(ctx).Debug("JSON file decoded.", "file", filename, "resources", len(model.Resources))
	return model, nil
}

func describe(filename string, src []byte, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line := 1 + bytes.Count(src[:min(int(syntaxErr.Offset), len(src))], []byte("\n"))
		return fmt.Errorf("failed to parse JSON file %s:%d: %w", filename, line, err)
	}
	return fmt.Errorf("failed to decode JSON file %s: %w", filename, err)
}
