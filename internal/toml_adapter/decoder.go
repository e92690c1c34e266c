// Package toml_adapter reads TOML descriptor files shaped like
// config.Document, using [[resources]] tables for resources.
package toml_adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/specialistvlad/extreg/internal/config"
	"github.com/specialistvlad/extreg/internal/ctxlog"
)

// Decoder is the TOML implementation of config.FileDecoder.
type Decoder struct{}

var _ config.FileDecoder = Decoder{}

// NewDecoder creates a new TOML decoder.
func NewDecoder() Decoder {
	return Decoder{}
}

// Extensions implements config.FileDecoder.
func (Decoder) Extensions() []string {
	return []string{".toml"}
}

// DecodeFile implements config.FileDecoder.
func (Decoder) DecodeFile(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	var doc config.Document
	dec := toml.NewDecoder(bytes.NewReader(src))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, describe(filename, err)
	}

	model, err := doc.ToModel(func(i int) string {
		return fmt.Sprintf("%s:resources[%d]", filename, i)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	ctxlog.FromContext(ctx).Debug("TOML file decoded.", "file", filename, "resources", len(model.Resources))
	return model, nil
}

func describe(filename string, err error) error {
	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, col := decErr.Position()
		return fmt.Errorf("failed to parse TOML file %s:%d:%d: %w", filename, row, col, err)
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		return fmt.Errorf("failed to decode TOML file %s: unknown fields:\n%s", filename, strictErr.String())
	}
	return fmt.Errorf("failed to decode TOML file %s: %w", filename, err)
}
