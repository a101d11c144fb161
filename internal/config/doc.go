// Package config provides configuration structures and utilities for docseal.
// It defines the main configuration options for watermark generation,
// embedding, extraction, and report generation preferences.
package config
