// Package checksum computes and verifies scene file digests.
//
// Files are streamed in fixed 1 MiB chunks so arbitrarily large GeoTIFFs are
// digested in constant memory. Read failures are tagged with
// faults.ErrChecksumIO; a digest mismatch is not an error, it is a false
// verification result.
package checksum
