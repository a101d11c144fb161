package qr

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"time"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/docseal/docseal/internal/model"
)

// DefaultModuleSize is the pixel width of one QR module in rendered
// rasters. Matches the rendering density the original tooling used, which
// keeps symbols comfortably detectable after a container round trip.
const DefaultModuleSize = 10

// ErrEncoding is returned when the payload text exceeds QR capacity for
// error-correction level L at the maximum symbol version.
var ErrEncoding = errors.New("payload exceeds QR capacity")

// Wrap turns payload text into the string that gets QR-encoded.
// With addIntegrity it computes CRC32 over the UTF-8 bytes of data,
// attaches the current Unix timestamp, and serializes the envelope as
// compact JSON. Without it, data is returned verbatim (legacy form).
func Wrap(data string, addIntegrity bool) (string, error) {
	if !addIntegrity {
		return data, nil
	}

	ts := time.Now().Unix()
	env := model.IntegrityEnvelope{
		Data:      data,
		CRC32:     crc32.ChecksumIEEE([]byte(data)),
		Timestamp: &ts,
	}

	// json.Marshal emits compact separators, so the QR capacity budget is
	// len(data) plus fixed envelope overhead.
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to serialize integrity envelope: %w", err)
	}
	return string(b), nil
}

// Verify recomputes CRC32 over the envelope's data and compares it to the
// stored checksum. Non-JSON input is reported as the legacy format, never
// as a verification failure; a JSON object missing its data or checksum
// fields is a malformed envelope and yields DataValid=false.
func Verify(raw string) model.IntegrityRecord {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return model.IntegrityRecord{
			Format:    model.FormatLegacy,
			Data:      raw,
			DataValid: false,
		}
	}

	var env model.IntegrityEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// A JSON object with wrongly typed fields is a broken envelope,
		// not a legacy payload.
		return model.IntegrityRecord{Format: model.FormatEnvelope, DataValid: false}
	}

	if _, ok := fields["data"]; !ok {
		return model.IntegrityRecord{Format: model.FormatEnvelope, DataValid: false}
	}
	if _, ok := fields["crc32"]; !ok {
		return model.IntegrityRecord{Format: model.FormatEnvelope, Data: env.Data, DataValid: false}
	}

	return model.IntegrityRecord{
		Format:    model.FormatEnvelope,
		Data:      env.Data,
		DataValid: crc32.ChecksumIEEE([]byte(env.Data)) == env.CRC32,
		Timestamp: env.Timestamp,
	}
}

// Render encodes text as a QR raster: error-correction level L, automatic
// version sizing, and the standard 4-module quiet zone. Each module spans
// moduleSize pixels; moduleSize values below 1 fall back to the default.
func Render(text string, moduleSize int) (image.Image, error) {
	if moduleSize < 1 {
		moduleSize = DefaultModuleSize
	}

	code, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	// A negative size scales each module to |size| pixels instead of
	// fitting the symbol into a fixed canvas.
	return code.Image(-moduleSize), nil
}

// RenderPNG is Render with the raster encoded as PNG bytes, the form the
// front end hands to users and the embed operation accepts.
func RenderPNG(text string, moduleSize int) ([]byte, error) {
	if moduleSize < 1 {
		moduleSize = DefaultModuleSize
	}

	code, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	png, err := code.PNG(-moduleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR raster: %w", err)
	}
	return png, nil
}

// Decode detects and decodes zero or more QR symbols in a raster.
// A raster with no detectable symbol yields an empty slice, not an error:
// the recovered bit plane may contain the symbol only in a sub-region, or
// no watermark at all.
func Decode(img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize raster: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	results, err := zxqr.NewQRCodeMultiReader().DecodeMultiple(bmp, hints)
	if err != nil {
		// NotFoundException and friends mean "no symbol here", which is a
		// normal outcome for unwatermarked covers.
		return nil, nil
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		if t := r.GetText(); t != "" {
			texts = append(texts, t)
		}
	}
	return texts, nil
}
