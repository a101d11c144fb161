// Package stego implements the LSB watermark engine: embedding a 2-level
// mark raster into, and recovering one from, the blue-channel least
// significant bits of a cover image, one bit per pixel in row-major order.
//
// Both operations are pure functions over pixel buffers and are bitwise
// deterministic given identical inputs. Channel values are 8-bit unsigned
// and all bit manipulation uses AND/OR masks, never floating point.
package stego
