package container

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/docseal/docseal/internal/model"
)

// Well-known paths inside an OOXML word-processing package.
const (
	docxDocumentPath     = "word/document.xml"
	docxRelsPath         = "word/_rels/document.xml.rels"
	docxMediaPrefix      = "word/media/"
	docxContentTypesPath = "[Content_Types].xml"
)

// pngContentTypeDefault is injected into [Content_Types].xml when the
// package has never carried a PNG part before.
const pngContentTypeDefault = `<Default Extension="png" ContentType="image/png"/>`

// DOCXExtractor reads every media entry out of a DOCX package.
//
// The package is a ZIP whose entry order is unspecified, so extraction
// orders images by their relationship order within the document body:
// the rIds referenced by a:blip/v:imagedata elements, in document order,
// resolved through word/_rels/document.xml.rels. Media parts that the
// body never references (header or footer art) follow in package-path
// order so every media entry is still returned deterministically.
type DOCXExtractor struct{}

// Kind implements Extractor.
func (e *DOCXExtractor) Kind() model.ContainerKind { return model.KindDOCX }

// Extract implements Extractor.
func (e *DOCXExtractor) Extract(ctx context.Context, data []byte) ([]model.CoverImage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a ZIP package: %w", model.ErrInvalidFormat)
	}

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}
	if _, ok := parts[docxDocumentPath]; !ok {
		return nil, fmt.Errorf("missing %s: %w", docxDocumentPath, model.ErrInvalidFormat)
	}

	order, err := mediaOrder(parts)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("docx: %w", model.ErrNoImagesFound)
	}

	covers := make([]model.CoverImage, 0, len(order))
	for _, name := range order {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		raw, err := readZipFile(parts[name])
		if err != nil {
			return nil, fmt.Errorf("failed to read media part %s: %w", name, err)
		}
		img, err := decodeRaster(raw)
		if err != nil {
			return nil, fmt.Errorf("media part %s: %w", name, err)
		}
		covers = append(covers, model.CoverImage{
			Index:    len(covers),
			SourceID: name,
			Image:    img,
			Raw:      raw,
		})
	}
	return covers, nil
}

// mediaOrder returns the package paths of all media parts in contract
// order: body relationship order first, then unreferenced media parts in
// path order.
func mediaOrder(parts map[string]*zip.File) ([]string, error) {
	rels := map[string]string{}
	if f, ok := parts[docxRelsPath]; ok {
		raw, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read relationships: %w", err)
		}
		rels, err = parseRelationships(raw)
		if err != nil {
			return nil, fmt.Errorf("relationships: %w", model.ErrInvalidFormat)
		}
	}

	bodyIDs, err := bodyImageRelIDs(parts)
	if err != nil {
		return nil, err
	}

	var order []string
	seen := map[string]bool{}
	for _, rid := range bodyIDs {
		target, ok := rels[rid]
		if !ok {
			continue
		}
		name := resolvePartPath(target)
		if !strings.HasPrefix(name, docxMediaPrefix) || seen[name] {
			continue
		}
		if _, ok := parts[name]; !ok {
			continue
		}
		seen[name] = true
		order = append(order, name)
	}

	var rest []string
	for name := range parts {
		if strings.HasPrefix(name, docxMediaPrefix) && !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...), nil
}

// bodyImageRelIDs scans word/document.xml and returns the relationship IDs
// of embedded images in document order. Both DrawingML (a:blip r:embed)
// and legacy VML (v:imagedata r:id) references count.
func bodyImageRelIDs(parts map[string]*zip.File) ([]string, error) {
	raw, err := readZipFile(parts[docxDocumentPath])
	if err != nil {
		return nil, fmt.Errorf("failed to read document body: %w", err)
	}

	dec := xml.NewDecoder(bytes.NewReader(raw))
	var ids []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document body: %w", model.ErrInvalidFormat)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var want string
		switch se.Name.Local {
		case "blip":
			want = "embed"
		case "imagedata":
			want = "id"
		default:
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == want && attr.Value != "" {
				ids = append(ids, attr.Value)
				break
			}
		}
	}
	return ids, nil
}

// relationships mirrors the OOXML relationships part.
type relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Relationships []relationship `xml:"Relationship"`
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// parseRelationships maps rId to relationship target.
func parseRelationships(raw []byte) (map[string]string, error) {
	var rs relationships
	if err := xml.Unmarshal(raw, &rs); err != nil {
		return nil, err
	}
	m := make(map[string]string, len(rs.Relationships))
	for _, r := range rs.Relationships {
		m[r.ID] = r.Target
	}
	return m, nil
}

// resolvePartPath resolves a relationship target relative to word/.
func resolvePartPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean("word/" + target)
}

// readZipFile reads one package part fully.
func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// DOCXReconstructor re-embeds watermarked covers into the original
// package, replacing only the media bytes. Every other part is copied
// raw (compressed bytes verbatim), so non-image document structure stays
// byte-identical.
type DOCXReconstructor struct{}

// Kind implements Reconstructor.
func (r *DOCXReconstructor) Kind() model.ContainerKind { return model.KindDOCX }

// Reconstruct implements Reconstructor. Covers are matched to media parts
// by SourceID; replacements are always written as PNG to keep the carrier
// path lossless.
func (r *DOCXReconstructor) Reconstruct(ctx context.Context, original []byte, covers []model.CoverImage) ([]byte, error) {
	if len(covers) == 0 {
		return nil, fmt.Errorf("docx: no watermarked images: %w", model.ErrReconstruction)
	}

	zr, err := zip.NewReader(bytes.NewReader(original), int64(len(original)))
	if err != nil {
		return nil, fmt.Errorf("not a ZIP package: %w", model.ErrInvalidFormat)
	}

	replacements := make(map[string][]byte, len(covers))
	for i := range covers {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		b, err := encodePNG(covers[i].Image)
		if err != nil {
			return nil, fmt.Errorf("cover %s: %w", covers[i].SourceID, model.ErrReconstruction)
		}
		replacements[covers[i].SourceID] = b
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range zr.File {
		if repl, ok := replacements[f.Name]; ok {
			if err := writeZipEntry(zw, f.Name, repl); err != nil {
				return nil, fmt.Errorf("replace %s: %w", f.Name, model.ErrReconstruction)
			}
			continue
		}
		if f.Name == docxContentTypesPath {
			raw, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", f.Name, model.ErrReconstruction)
			}
			if err := writeZipEntry(zw, f.Name, ensurePNGContentType(raw)); err != nil {
				return nil, fmt.Errorf("rewrite %s: %w", f.Name, model.ErrReconstruction)
			}
			continue
		}
		if err := copyZipEntryRaw(zw, f); err != nil {
			return nil, fmt.Errorf("copy %s: %w", f.Name, model.ErrReconstruction)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize package: %w", model.ErrReconstruction)
	}
	return out.Bytes(), nil
}

// ensurePNGContentType adds the PNG default declaration when the package
// lacks one. Word-produced packages already declare it; packages whose
// media was all JPEG may not.
func ensurePNGContentType(raw []byte) []byte {
	if bytes.Contains(raw, []byte(`Extension="png"`)) {
		return raw
	}
	return bytes.Replace(raw, []byte("</Types>"), []byte(pngContentTypeDefault+"</Types>"), 1)
}

// writeZipEntry writes one deflated entry.
func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// copyZipEntryRaw copies an entry's compressed bytes verbatim, preserving
// its header so untouched parts stay byte-identical.
func copyZipEntryRaw(zw *zip.Writer, f *zip.File) error {
	header := f.FileHeader
	w, err := zw.CreateRaw(&header)
	if err != nil {
		return err
	}
	rc, err := f.OpenRaw()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, rc)
	return err
}
