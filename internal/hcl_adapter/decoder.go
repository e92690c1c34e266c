package hcl_adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/extreg/internal/config"
	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/descriptor"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Decoder is the HCL implementation of config.FileDecoder.
type Decoder struct{}

var _ config.FileDecoder = Decoder{}

// NewDecoder creates a new HCL decoder.
func NewDecoder() Decoder {
	return Decoder{}
}

// Extensions implements config.FileDecoder.
func (Decoder) Extensions() []string {
	return []string{".hcl"}
}

// DecodeFile implements config.FileDecoder.
func (d Decoder) DecodeFile(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx).With("file", filename)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	model := config.NewModel()
	var all hcl.Diagnostics
	for _, block := range root.Resources {
		desc, diags := translateResource(block)
		all = append(all, diags...)
		if diags.HasErrors() {
			continue
		}
		model.Resources = append(model.Resources, desc)
	}
	for _, block := range root.Extensions {
		if _, dup := model.Options[block.Name]; dup {
			all = all.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate extension block",
				Detail:   fmt.Sprintf("Options for extension %q are already defined in this file.", block.Name),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		opts, diags := translateExtension(block)
		all = append(all, diags...)
		if diags.HasErrors() {
			continue
		}
		model.Options[block.Name] = opts
	}
	if all.HasErrors() {
		return nil, fmt.Errorf("invalid HCL file %s: %w", filename, all)
	}

	logger.Debug("HCL file decoded.", "resources", len(model.Resources), "extensions", len(model.Options))
	return model, nil
}

// translateResource converts a resource block into a descriptor whose payload
// is the JSON form of the block's attributes.
func translateResource(block *ResourceBlock) (descriptor.Descriptor, hcl.Diagnostics) {
	val, diags := evalAttributes(block.Body)
	if diags.HasErrors() {
		return descriptor.Descriptor{}, diags
	}
	payload, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return descriptor.Descriptor{}, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported value",
			Detail:   fmt.Sprintf("Resource %s.%s cannot be encoded: %s.", block.Type, block.Name, err),
			Subject:  block.DefRange.Ptr(),
		})
	}
	desc := descriptor.New(block.Type, block.Name, payload)
	desc.Source = fmt.Sprintf("%s:%d", block.DefRange.Filename, block.DefRange.Start.Line)
	return desc, diags
}

// translateExtension converts an extension block into plain Go option values.
func translateExtension(block *ExtensionBlock) (map[string]any, hcl.Diagnostics) {
	val, diags := evalAttributes(block.Body)
	if diags.HasErrors() {
		return nil, diags
	}
	raw, err := ctyjson.Marshal(val, val.Type())
	if err == nil {
		opts := make(map[string]any)
		if err = json.Unmarshal(raw, &opts); err == nil {
			return opts, diags
		}
	}
	return nil, diags.Append(&hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unsupported value",
		Detail:   fmt.Sprintf("Options of extension %q cannot be encoded: %s.", block.Name, err),
		Subject:  block.DefRange.Ptr(),
	})
}
