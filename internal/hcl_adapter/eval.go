package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// referenceContext builds an evaluation context in which every two-step
// traversal used by expr, such as topic.orders, resolves to the string
// "topic:orders".
func referenceContext(expr hcl.Expression) (*hcl.EvalContext, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	byType := make(map[string]map[string]cty.Value)

	for _, trav := range expr.Variables() {
		rootName := trav.RootName()
		if len(trav) < 2 {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid reference",
				Detail:   fmt.Sprintf("A reference must name a resource as <type>.<name>, got %q.", rootName),
				Subject:  trav.SourceRange().Ptr(),
			})
			continue
		}
		attr, ok := trav[1].(hcl.TraverseAttr)
		if !ok {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid reference",
				Detail:   "A reference must name a resource as <type>.<name>.",
				Subject:  trav.SourceRange().Ptr(),
			})
			continue
		}
		if byType[rootName] == nil {
			byType[rootName] = make(map[string]cty.Value)
		}
		byType[rootName][attr.Name] = cty.StringVal(nodeid.New(rootName, attr.Name).String())
	}

	vars := make(map[string]cty.Value, len(byType))
	for typ, names := range byType {
		vars[typ] = cty.ObjectVal(names)
	}
	return &hcl.EvalContext{Variables: vars, Functions: functions}, diags
}

// evalAttributes evaluates every attribute of body into one object value.
// Nested blocks are not allowed; nested data is written as object literals.
func evalAttributes(body hcl.Body) (cty.Value, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	vals := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		evalCtx, refDiags := referenceContext(attr.Expr)
		diags = append(diags, refDiags...)
		if refDiags.HasErrors() {
			continue
		}
		v, valDiags := attr.Expr.Value(evalCtx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		vals[name] = v
	}
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return cty.ObjectVal(vals), diags
}
