package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// ResourceBlock represents a `resource` block.
type ResourceBlock struct {
	Type string   `hcl:"type,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`

	DefRange hcl.Range `hcl:",def_range"`
}

// ExtensionBlock represents an `extension` block carrying options for the
// named extension.
type ExtensionBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`

	DefRange hcl.Range `hcl:",def_range"`
}

// fileRoot is used to decode all top-level blocks from any file.
type fileRoot struct {
	Resources  []*ResourceBlock  `hcl:"resource,block"`
	Extensions []*ExtensionBlock `hcl:"extension,block"`
}
