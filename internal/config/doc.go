// Package config defines the format-agnostic configuration model: the raw
// resource descriptors and per-extension options read from descriptor files.
//
// Concrete file formats live in their own adapter packages (hcl_adapter,
// yaml_adapter, toml_adapter, json_adapter). Multi dispatches on file
// extension and merges every file into one Model. The model is not checked
// for duplicates or dangling references; that is the resolution engine's job.
package config
