// Package qr implements the watermark payload codec: wrapping payload text
// in a CRC32 integrity envelope, rendering it as a QR raster, and detecting
// and decoding QR symbols in recovered bit planes.
//
// The envelope is compact JSON ({"data":...,"crc32":...,"timestamp":...});
// its absence is a valid legacy state, not an error.
package qr
