package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Attribute describes one top-level payload attribute.
type Attribute struct {
	Name     string
	Type     cty.Type
	Required bool
	// Default is used by Decode when the attribute is absent. Zero means null.
	Default cty.Value
	// Deprecated, when set, turns any use of the attribute into a warning.
	Deprecated string
}

// Required declares a mandatory attribute. typeExpr uses HCL type syntax; an
// invalid expression panics, as schemas are declared at bootstrap.
func Required(name, typeExpr string) Attribute {
	return Attribute{Name: name, Type: MustParseType(typeExpr), Required: true}
}

// Optional declares an optional attribute.
func Optional(name, typeExpr string) Attribute {
	return Attribute{Name: name, Type: MustParseType(typeExpr)}
}

// WithDefault returns a copy of a with a default value.
func (a Attribute) WithDefault(v cty.Value) Attribute {
	a.Default = v
	return a
}

// WithDeprecation returns a copy of a marked as deprecated.
func (a Attribute) WithDeprecation(msg string) Attribute {
	a.Deprecated = msg
	return a
}

// Schema is an ordered set of attributes.
type Schema struct {
	Attributes []Attribute
	// AllowUnknown accepts attributes the schema does not declare.
	AllowUnknown bool
}

// New builds a schema from attrs.
func New(attrs ...Attribute) Schema {
	return Schema{Attributes: attrs}
}

// ObjectType is the cty object type Decode produces.
func (s Schema) ObjectType() cty.Type {
	types := make(map[string]cty.Type, len(s.Attributes))
	for _, a := range s.Attributes {
		types[a.Name] = a.Type
	}
	return cty.Object(types)
}

// Validate checks payload and returns every violation found.
func (s Schema) Validate(payload json.RawMessage) descriptor.Result {
	_, res := s.check(payload)
	return res
}

// Decode validates payload and returns it as a value of ObjectType, with
// absent attributes set to their default or null.
func (s Schema) Decode(payload json.RawMessage) (cty.Value, error) {
	val, res := s.check(payload)
	if !res.OK() {
		msgs := make([]string, 0, len(res.Violations))
		for _, v := range res.Errors() {
			msgs = append(msgs, v.String())
		}
		return cty.NilVal, errors.New(strings.Join(msgs, "; "))
	}
	return val, nil
}

// DecodeInto decodes payload and stores the result in target using its JSON
// field tags.
func (s Schema) DecodeInto(payload json.RawMessage, target any) error {
	val, err := s.Decode(payload)
	if err != nil {
		return err
	}
	raw, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return fmt.Errorf("encode decoded payload: %w", err)
	}
	return json.Unmarshal(raw, target)
}

func (s Schema) check(payload json.RawMessage) (cty.Value, descriptor.Result) {
	var res descriptor.Result

	raw := bytes.TrimSpace(payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		res.Errorf("", "payload is not valid JSON: %v", err)
		return cty.NilVal, res
	}
	if !ty.IsObjectType() {
		res.Errorf("", "payload must be an object, got %s", ty.FriendlyName())
		return cty.NilVal, res
	}
	val, err := ctyjson.Unmarshal(raw, ty)
	if err != nil {
		res.Errorf("", "payload is not valid JSON: %v", err)
		return cty.NilVal, res
	}

	given := val.AsValueMap()
	out := make(map[string]cty.Value, len(s.Attributes))
	declared := make(map[string]struct{}, len(s.Attributes))
	for _, a := range s.Attributes {
		declared[a.Name] = struct{}{}
		v, ok := given[a.Name]
		if !ok || v.IsNull() {
			if a.Required {
				res.Errorf(a.Name, "attribute is required")
			}
			out[a.Name] = defaultOf(a)
			continue
		}
		if a.Deprecated != "" {
			res.Warnf(a.Name, "attribute is deprecated: %s", a.Deprecated)
		}
		converted, err := convert.Convert(v, a.Type)
		if err != nil {
			res.Errorf(fieldOf(a.Name, err), "must be %s: %s", a.Type.FriendlyName(), messageOf(err))
			out[a.Name] = cty.NullVal(a.Type)
			continue
		}
		out[a.Name] = converted
	}

	if !s.AllowUnknown {
		var unknown []string
		for name := range given {
			if _, ok := declared[name]; !ok {
				unknown = append(unknown, name)
			}
		}
		slices.Sort(unknown)
		for _, name := range unknown {
			res.Errorf(name, "unsupported attribute")
		}
	}
	return cty.ObjectVal(out), res
}

func defaultOf(a Attribute) cty.Value {
	if a.Default == cty.NilVal || a.Default.IsNull() {
		return cty.NullVal(a.Type)
	}
	if v, err := convert.Convert(a.Default, a.Type); err == nil {
		return v
	}
	return cty.NullVal(a.Type)
}

// fieldOf renders the attribute name plus the nested path carried by a
// cty.PathError, if any.
func fieldOf(name string, err error) string {
	var pathErr cty.PathError
	if !errors.As(err, &pathErr) {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, step := range pathErr.Path {
		switch s := step.(type) {
		case cty.GetAttrStep:
			b.WriteString("." + s.Name)
		case cty.IndexStep:
			switch {
			case s.Key.Type() == cty.String:
				b.WriteString("." + s.Key.AsString())
			case s.Key.Type() == cty.Number:
				b.WriteString("[" + s.Key.AsBigFloat().Text('f', -1) + "]")
			}
		}
	}
	return b.String()
}

func messageOf(err error) string {
	var pathErr cty.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Error()
	}
	return err.Error()
}
