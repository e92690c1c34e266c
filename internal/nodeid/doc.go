// internal/nodeid/doc.go

/*
Package nodeid provides a structured, type-safe representation for resource
identifiers within the system, based on the canonical format `type:name`.

A type is a stable tag chosen by the extension that owns it (e.g. `topic`),
the name is unique within that type. Both segments are restricted to the
characters `[a-zA-Z0-9_.-]` so that the canonical form can always be parsed
back unambiguously.

This package enforces the identifier schema and centralizes all
formatting and parsing logic.
*/
package nodeid
