// Package kwbind binds keyword call sites to typed arguments. It covers:
//   - Variable references `${name}`, `@{list}`, `&{dict}` and `%{ENV=default}`
//     resolved against a chain of scopes and an injected environment.
//   - Interpolation of argument templates, where a lone reference keeps the
//     referenced value and anything else is joined into a string.
//   - A type registry with primitives, lists, dictionaries, enums,
//     structured mappings, unions and opaque types such as Secret.
//   - Signatures with positional-only, named-only and variadic parameters,
//     matched against positional and `name=value` arguments.
//   - Keyword libraries declared in YAML and a protobuf export of bound calls.
//
// Binding either yields a complete BoundCall or fails with a CallError whose
// message is meant for the script author.
package kwbind
