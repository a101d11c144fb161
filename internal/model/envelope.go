package model

// IntegrityEnvelope is the checksummed payload wrapper encoded as QR text.
// It is serialized as compact JSON with no extraneous whitespace, so the QR
// capacity budget is len(Data) plus fixed JSON overhead.
type IntegrityEnvelope struct {
	// Data is the original watermark payload text.
	Data string `json:"data"`

	// CRC32 is the IEEE checksum over the UTF-8 bytes of Data.
	CRC32 uint32 `json:"crc32"`

	// Timestamp is the Unix time the envelope was created, if known.
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// PayloadFormat distinguishes enveloped payloads from legacy plain text.
type PayloadFormat int

const (
	// FormatEnvelope is a payload wrapped in an IntegrityEnvelope.
	FormatEnvelope PayloadFormat = iota

	// FormatLegacy is a raw payload with no envelope. This is a valid
	// state, not a verification failure: payloads embedded before the
	// envelope existed decode this way.
	FormatLegacy
)

// String returns the format name used in reports.
func (f PayloadFormat) String() string {
	if f == FormatLegacy {
		return "legacy"
	}
	return "envelope"
}

// IntegrityRecord is the result of verifying a recovered payload.
type IntegrityRecord struct {
	// Format reports whether the payload carried an envelope.
	Format PayloadFormat `json:"format"`

	// Data is the payload text (envelope data field, or the raw text for
	// legacy payloads).
	Data string `json:"data"`

	// DataValid reports whether the recomputed CRC32 matched the stored
	// one. Always false for malformed envelopes; meaningless for legacy
	// payloads, where no checksum exists to check.
	DataValid bool `json:"data_valid"`

	// Timestamp is the envelope timestamp, if present.
	Timestamp *int64 `json:"timestamp,omitempty"`
}
