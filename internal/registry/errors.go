package registry

import (
	"fmt"
	"strings"
)

// DuplicateTypeError means a handler for the type is already registered.
type DuplicateTypeError struct {
	Type     string
	Existing Identity
	Incoming Identity
}

func (e DuplicateTypeError) Error() string {
	if e.Existing == e.Incoming {
		return fmt.Sprintf("handler for type %q registered twice by extension %s", e.Type, e.Incoming)
	}
	return fmt.Sprintf("handler already registered for type %q: registered by %s, rejected from %s",
		e.Type, e.Existing, e.Incoming)
}

// DuplicateExtensionError means the extension was already registered.
type DuplicateExtensionError struct {
	Extension Identity
	Existing  Identity
}

func (e DuplicateExtensionError) Error() string {
	return fmt.Sprintf("extension %q already registered (existing: %s, incoming: %s)",
		e.Extension.Name, e.Existing, e.Extension)
}

// RegistryFrozenError means a registration was attempted after Freeze.
type RegistryFrozenError struct {
	Extension Identity
}

func (e RegistryFrozenError) Error() string {
	return fmt.Sprintf("registry is frozen: cannot register extension %s", e.Extension)
}

// UnknownTypeError means no extension handles the descriptor type.
type UnknownTypeError struct {
	Type  string
	Known []string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown resource descriptor type %q: are you missing an extension? known types: [%s]",
		e.Type, strings.Join(e.Known, ", "))
}

// UnusedOptionsError means options were supplied for extensions that never asked for them.
type UnusedOptionsError struct {
	Extensions []string
	Installed  []string
}

func (e UnusedOptionsError) Error() string {
	return fmt.Sprintf("no registered extension was interested in options for [%s], installed extensions: [%s]",
		strings.Join(e.Extensions, ", "), strings.Join(e.Installed, ", "))
}
