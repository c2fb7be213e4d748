// Package properties implements the flat key-value text format used to
// persist record-store metadata (name, description, record count) alongside
// a store.
//
// An example file:
//
//	Name = fingerprints
//	Description = left index captures, 500ppi
//	Count = 412
//
// One "key = value" entry per line; leading and trailing whitespace is
// trimmed from both key and value, so the property names "Foo", "  Foo" and
// "Foo  " are equivalent. Malformed lines (no separator) surface as
// StrategyError when loaded through PropertiesFile.
//
// Properties is the in-memory set; PropertiesFile binds a set to a file on
// disk with read-only gating, atomic replacement on Sync, and renaming via
// ChangeName.
package properties
