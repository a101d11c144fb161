// Package verify scores watermarking runs: MSE/PSNR visual fidelity between
// original and watermarked covers, and CRC32 envelope validation of
// recovered payload text.
package verify
