package verify

import (
	"github.com/docseal/docseal/internal/model"
	"github.com/docseal/docseal/internal/qr"
)

// Payload verifies recovered payload text against its integrity envelope.
// Non-JSON input is the legacy format, reported as such rather than as a
// failure; enveloped input has its CRC32 recomputed and compared.
func Payload(raw string) model.IntegrityRecord {
	return qr.Verify(raw)
}
