package imagemeta

import (
	exif "github.com/dsoprea/go-exif/v3"
)

// Sensitivity grades how strongly a metadata field identifies the
// image's origin.
type Sensitivity int

const (
	// SensitivityInfo marks fields that are merely descriptive.
	SensitivityInfo Sensitivity = iota

	// SensitivityMedium marks fields that narrow down the producing
	// device or host.
	SensitivityMedium

	// SensitivityHigh marks fields that uniquely identify a device or a
	// person, or pinpoint a location.
	SensitivityHigh
)

// String returns the lowercase sensitivity name used in reports.
func (s Sensitivity) String() string {
	switch s {
	case SensitivityHigh:
		return "high"
	case SensitivityMedium:
		return "medium"
	default:
		return "info"
	}
}

// Field is one EXIF entry found in a cover image.
type Field struct {
	// Tag is the EXIF tag name (e.g. "GPSLatitude", "Model").
	Tag string

	// Value is the formatted tag value.
	Value string

	// Sensitivity grades the field.
	Sensitivity Sensitivity
}

// tagSensitivity maps the EXIF tags worth reporting to their grade.
// Tags absent from this map are not reported; wholesale metadata dumps
// drown the fields that matter.
var tagSensitivity = map[string]Sensitivity{
	// Location disclosure.
	"GPSLatitude":     SensitivityHigh,
	"GPSLongitude":    SensitivityHigh,
	"GPSLatitudeRef":  SensitivityHigh,
	"GPSLongitudeRef": SensitivityHigh,
	"GPSAltitude":     SensitivityHigh,

	// Unique device identifiers.
	"SerialNumber":       SensitivityHigh,
	"CameraSerialNumber": SensitivityHigh,
	"BodySerialNumber":   SensitivityHigh,
	"LensSerialNumber":   SensitivityHigh,

	// Identity disclosure.
	"Artist":    SensitivityHigh,
	"Author":    SensitivityHigh,
	"Copyright": SensitivityHigh,
	"XPAuthor":  SensitivityHigh,

	// Device and host identification.
	"Make":         SensitivityMedium,
	"Model":        SensitivityMedium,
	"HostComputer": SensitivityMedium,

	// Descriptive.
	"Software":           SensitivityInfo,
	"ProcessingSoftware": SensitivityInfo,
	"DateTime":           SensitivityInfo,
	"DateTimeOriginal":   SensitivityInfo,
	"DateTimeDigitized":  SensitivityInfo,
}

// Inspect extracts the reportable EXIF fields from an encoded image
// stream. Images without an EXIF segment (every PNG the pipeline itself
// produces, most DOCX media) yield an empty slice and no error; absence
// of metadata is the normal case, not a failure.
func Inspect(data []byte) ([]Field, error) {
	if len(data) == 0 {
		return nil, nil
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		// go-exif reports "no exif data" as an error; either way there is
		// nothing to inspect.
		return nil, nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		// A malformed EXIF segment carries no usable fields.
		return nil, nil
	}

	var fields []Field
	for _, entry := range entries {
		sensitivity, ok := tagSensitivity[entry.TagName]
		if !ok {
			continue
		}
		fields = append(fields, Field{
			Tag:         entry.TagName,
			Value:       entry.Formatted,
			Sensitivity: sensitivity,
		})
	}
	return fields, nil
}

// HighestSensitivity returns the strongest grade among fields, or
// SensitivityInfo for an empty slice.
func HighestSensitivity(fields []Field) Sensitivity {
	highest := SensitivityInfo
	for _, f := range fields {
		if f.Sensitivity > highest {
			highest = f.Sensitivity
		}
	}
	return highest
}
