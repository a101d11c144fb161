// Package main provides the entry point for the docseal CLI.
//
// docseal embeds and recovers invisible watermarks in the images of DOCX
// and PDF documents. The watermark payload is encoded as a QR symbol and
// hidden in the least significant bits of the blue channel.
//
// Usage:
//
//	docseal embed -p "customer-id" report.docx
//	docseal extract report.marked.docx
//
// See --help for all available options.
package main

// main is the entry point for docseal.
func main() {
	Execute()
}
