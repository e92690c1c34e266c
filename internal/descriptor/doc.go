// Package descriptor defines the polymorphic contract every resource
// descriptor type satisfies.
//
// A Descriptor is a raw, unresolved declaration of a resource identified by
// (type, name) and carrying an opaque payload. Each type is owned by exactly
// one Handler, supplied by an extension, which knows how to validate the
// payload and which other resources it references. The core only ever talks
// to the Handler interface, never to concrete extension types.
package descriptor
