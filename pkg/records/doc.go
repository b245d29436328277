// Package records reads and writes the (name, content) records entering and leaving a run.
//
// Records come from plain directories, one file per record, or from bundles. A bundle is a zstd-compressed stream
// of CBOR entries; Load packs a directory into numbered bundles and Unload expands them back. The checkpoint of a
// run is a bundle of terminal documents that keeps their failed flag and is appended to as documents complete.
package records
