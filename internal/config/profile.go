package config

// Profile holds a named set of watermarking parameters. Profiles let an
// operator keep one config file with per-use-case settings ("archival"
// at high DPI, "draft" with small modules) instead of repeating flags.
type Profile struct {
	// ModuleSize overrides the QR module edge length in pixels.
	// If zero, the global default is used.
	ModuleSize int `yaml:"moduleSize,omitempty"`

	// DPI overrides the rasterization density.
	// If zero, the global default is used.
	DPI int `yaml:"dpi,omitempty"`

	// Mode overrides the PDF extraction strategy
	// ("real-images" or "page-render").
	Mode string `yaml:"mode,omitempty"`

	// Concurrency overrides the parallel worker count.
	// If zero, the global default is used.
	Concurrency int `yaml:"concurrency,omitempty"`

	// AddIntegrity overrides whether payloads are wrapped in a CRC32
	// envelope. Nil means inherit.
	AddIntegrity *bool `yaml:"addIntegrity,omitempty"`
}

// File represents the structure of the .docseal configuration file.
type File struct {
	// Profiles maps profile names to their watermarking parameters.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`

	// Defaults contains the default profile applied to every run
	// unless overridden in a named profile.
	Defaults Profile `yaml:"defaults,omitempty"`
}

// GetProfile returns the parameters for a named profile.
// It merges the named profile over the file defaults.
func (cf *File) GetProfile(name string) Profile {
	// Start with defaults
	result := cf.Defaults

	// Override with the named profile if present
	if p, ok := cf.Profiles[name]; ok {
		if p.ModuleSize != 0 {
			result.ModuleSize = p.ModuleSize
		}
		if p.DPI != 0 {
			result.DPI = p.DPI
		}
		if p.Mode != "" {
			result.Mode = p.Mode
		}
		if p.Concurrency != 0 {
			result.Concurrency = p.Concurrency
		}
		if p.AddIntegrity != nil {
			result.AddIntegrity = p.AddIntegrity
		}
	}

	return result
}
