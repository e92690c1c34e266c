// Package schema checks descriptor payloads against attribute schemas built on
// go-cty types. A schema reports every missing, ill-typed or unsupported
// attribute of a payload at once, which is what handlers need to return a
// complete descriptor.Result.
//
// Attribute types are written in HCL type syntax, for example "string",
// "list(string)" or "object({ name = string, replicas = number })".
package schema
