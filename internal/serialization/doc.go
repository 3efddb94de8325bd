// Package serialization reads and writes model snapshots.
//
// A .born snapshot is laid out as
//
//	0x00  "BORN"
//	0x04  format version (uint32, little endian, currently 2)
//	0x08  flags (uint32)
//	0x0C  reserved
//	0x10  JSON header length (uint64)
//	0x18  tensor data length (uint64)
//	0x20  SHA-256 of the tensor data (32 bytes)
//	0x40  JSON header, zero padded to a 64-byte boundary
//	      tensor data, row-major little-endian, in header order
//
// Snapshots are written to a temporary file and renamed into place, and
// the checksum is verified before any tensor is returned. Open maps the
// file read-only where the platform supports it.
//
// WriteSafeTensors exports the same state dict in the safetensors layout
// for other frameworks.
package serialization
