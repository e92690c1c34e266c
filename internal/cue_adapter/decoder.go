// Package cue_adapter reads CUE descriptor files. The file content is unified
// with an embedded #Document schema before being decoded, so type and shape
// mistakes are reported by CUE with their field path.
package cue_adapter

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/specialistvlad/extreg/internal/config"
	"github.com/specialistvlad/extreg/internal/ctxlog"
)

//go:embed schema.cue
var schemaSource []byte

// Decoder is the CUE implementation of config.FileDecoder.
type Decoder struct{}

var _ config.FileDecoder = Decoder{}

// NewDecoder creates a new CUE decoder.
func NewDecoder() Decoder {
	return Decoder{}
}

// Extensions implements config.FileDecoder.
func (Decoder) Extensions() []string {
	return []string{".cue"}
}

// DecodeFile implements config.FileDecoder.
func (Decoder) DecodeFile(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	cctx := cuecontext.New()

	schema := cctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile descriptor schema: %w", schema.Err())
	}
	root := schema.LookupPath(cue.ParsePath("#Document"))

	data := cctx.CompileBytes(src, cue.Filename(filename))
	if data.Err() != nil {
		return nil, formatError(filename, data.Err())
	}

	unified := root.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatError(filename, err)
	}
	var doc config.Document
	if err := unified.Decode(&doc); err != nil {
		return nil, formatError(filename, err)
	}

	lines := resourceLines(data)
	model, err := doc.ToModel(func(i int) string {
		if i < len(lines) && lines[i] > 0 {
			return fmt.Sprintf("%s:%d", filename, lines[i])
		}
		return filename
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	ctxlog.FromContext(ctx).Debug("CUE file decoded.", "file", filename, "resources", len(model.Resources))
	return model, nil
}

func resourceLines(v cue.Value) []int {
	list := v.LookupPath(cue.ParsePath("resources"))
	if !list.Exists() {
		return nil
	}
	iter, err := list.List()
	if err != nil {
		return nil
	}
	var lines []int
	for iter.Next() {
		lines = append(lines, iter.Value().Pos().Line())
	}
	return lines
}

// formatError renders every CUE error on its own line, prefixed with the
// field path when CUE reports one.
func formatError(filename string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("invalid CUE file %s: %w", filename, err)
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		path := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if path != "" && !strings.HasPrefix(msg, path) {
			msg = path + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid CUE file %s: %s", filename, strings.Join(msgs, "; "))
}
