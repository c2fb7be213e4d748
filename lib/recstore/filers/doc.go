/*
Package filers implements the record store contract with one flat file per
record. There is no value ceiling and no segmentation, so the layout is
trivially inspectable with ordinary file tools, at the cost of one inode per
record.

Record keys are percent-escaped (url.PathEscape) to form file names, which
keeps arbitrary keys mappable to valid paths and the mapping reversible.
Writes stage a temp file in the record directory and rename it into place,
so readers never observe a half-written record.

Iteration order is the lexicographic order of the decoded keys, resolved
against a live directory listing on every step.
*/
package filers
