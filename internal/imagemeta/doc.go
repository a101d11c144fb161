// Package imagemeta inspects the EXIF metadata of cover images before
// watermarking. Embedded metadata (GPS coordinates, device serials,
// author fields) identifies the document's origin independently of the
// watermark; inspection surfaces those fields so operators know what the
// PNG re-encode is about to strip.
package imagemeta
