package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/specialistvlad/extreg/internal/config"
	"github.com/specialistvlad/extreg/internal/cue_adapter"
	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/hcl_adapter"
	"github.com/specialistvlad/extreg/internal/json_adapter"
	"github.com/specialistvlad/extreg/internal/toml_adapter"
	"github.com/specialistvlad/extreg/internal/tracing"
	"github.com/specialistvlad/extreg/internal/yaml_adapter"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultLoader reads every descriptor format extreg supports.
func DefaultLoader() *config.Multi {
	return config.NewMulti(
		hcl_adapter.NewDecoder(),
		yaml_adapter.NewDecoder(),
		toml_adapter.NewDecoder(),
		json_adapter.NewDecoder(),
		cue_adapter.NewDecoder(),
	)
}

// loadModel reads the configured paths inside a load span.
func (a *App) loadModel(ctx context.Context) (model *config.Model, err error) {
	ctx, span := a.tracer.Tracer().Start(ctx, tracing.SpanLoad)
	defer func() { tracing.EndWithError(span, err) }()
	span.SetAttributes(attribute.StringSlice(tracing.AttrPaths, a.config.Paths))

	model, err = a.loader.Load(ctx, a.config.Paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load descriptors: %w", err)
	}
	span.SetAttributes(attribute.Int(tracing.AttrDescriptors, len(model.Resources)))
	return model, nil
}

// inputKey identifies a descriptor batch, including order and sources, so a
// cached graph is only reused for byte-identical input.
func inputKey(descs []descriptor.Descriptor) string {
	h := sha256.New()
	for _, d := range descs {
		fmt.Fprintf(h, "%s\x00%s\x00%d\x00", d.ID, d.Source, len(d.Payload))
		h.Write(d.Payload)
	}
	return hex.EncodeToString(h.Sum(nil))
}
