/*
Package dbrs implements a record store on top of two keyed database engine
files, transparently segmenting records that exceed the engine's per-entry
value ceiling.

The package focuses on:

  - Transparent Segmentation: records of any length are split into fixed
    capacity segments on write and reassembled on read; callers only ever
    see whole records
  - Durable Pairing: the primary file, the subordinate file and the
    metadata file are created, opened, renamed and removed as a unit
  - Strict Failure Semantics: every operation fails with a typed
    recstore.Error, mutating operations check the access mode before
    touching any engine, and multi-segment writes roll back on partial
    failure

Key Components:

  - Store: the record store implementation; construct with Create or Open
  - Options: engine factory selection (bolt by default), per-entry value
    ceiling and logging

Storage Layout:

For a store NAME in parentDir, three files exist:

	parentDir/NAME             primary engine file
	parentDir/NAME.subordinate subordinate engine file
	parentDir/NAME.properties  metadata (name, description, record count)

A record stored under key K occupies one primary entry holding a 16 byte
header plus the first payload chunk, and for records larger than the payload
capacity, subordinate entries under keys "K&1", "K&2", ... in chunk order.

A Store is not safe for concurrent use. Callers that share a Store across
goroutines must serialize access externally.
*/
package dbrs
