package extract

import (
	"archive/zip"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

const officeDocumentRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"

var (
	errPartMissing    = errors.New("part not found in package")
	errExternalTarget = errors.New("relationship targets an external resource")
)

// docxPackage gives access to the parts of an OOXML zip package.
type docxPackage struct {
	parts        map[string]*zip.File
	maxEntrySize int64
}

func newDocxPackage(zr *zip.Reader, maxEntrySize int64) *docxPackage {
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[strings.TrimPrefix(f.Name, "/")] = f
	}
	return &docxPackage{parts: parts, maxEntrySize: maxEntrySize}
}

func (p *docxPackage) read(name string) ([]byte, error) {
	f, ok := p.parts[name]
	if !ok {
		return nil, errPartMissing
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, p.maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > p.maxEntrySize {
		return nil, fmt.Errorf("zip entry %s exceeds %d byte limit", name, p.maxEntrySize)
	}
	return data, nil
}

type relationships struct {
	Items []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// relationshipsOf returns the relationships declared for part, in file order.
// A part without a relationships file has none.
func (p *docxPackage) relationshipsOf(part string) ([]relationship, error) {
	dir, file := path.Split(part)
	data, err := p.read(path.Join(dir, "_rels", file+".rels"))
	if errors.Is(err, errPartMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parse relationships: %w", err)
	}
	return rels.Items, nil
}

// resolveTarget turns a relationship target into a package part name.
func resolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(sourcePart), target)
}

// mainDocumentPart finds the officeDocument part through the package
// relationships, falling back to word/document.xml.
func (p *docxPackage) mainDocumentPart() string {
	rels, err := p.relationshipsOf("")
	if err != nil {
		return defaultDocumentPart
	}
	for _, r := range rels {
		if r.Type == officeDocumentRelType {
			return resolveTarget("", r.Target)
		}
	}
	return defaultDocumentPart
}

type contentTypes struct {
	Defaults []struct {
		Extension   string `xml:"Extension,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Default"`
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// contentTypeResolver maps part names to their declared MIME types.
type contentTypeResolver struct {
	byExt  map[string]string
	byPart map[string]string
}

func (p *docxPackage) contentTypes() contentTypeResolver {
	r := contentTypeResolver{byExt: map[string]string{}, byPart: map[string]string{}}
	data, err := p.read("[Content_Types].xml")
	if err != nil {
		return r
	}
	var ct contentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return r
	}
	for _, d := range ct.Defaults {
		r.byExt[strings.ToLower(d.Extension)] = d.ContentType
	}
	for _, o := range ct.Overrides {
		r.byPart[strings.ToLower(strings.TrimPrefix(o.PartName, "/"))] = o.ContentType
	}
	return r
}

// lookup returns the declared type of part, sniffing payload when the
// package declares none.
func (r contentTypeResolver) lookup(part string, payload []byte) string {
	if ct, ok := r.byPart[strings.ToLower(part)]; ok {
		return ct
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(part), "."))
	if ct, ok := r.byExt[ext]; ok {
		return ct
	}
	return http.DetectContentType(payload)
}

// images returns every relationship of part whose target mentions "image",
// in declaration order, as data URLs. Unreadable images are returned in
// skipped rather than failing the extraction.
func (p *docxPackage) images(part string) ([]Image, []SkippedImage) {
	rels, err := p.relationshipsOf(part)
	if err != nil {
		return nil, []SkippedImage{{Err: err}}
	}
	types := p.contentTypes()

	var images []Image
	var skipped []SkippedImage
	for _, rel := range rels {
		if !strings.Contains(rel.Target, "image") {
			continue
		}
		img, err := p.image(part, rel, types)
		if err != nil {
			skipped = append(skipped, SkippedImage{RelID: rel.ID, Target: rel.Target, Err: err})
			continue
		}
		images = append(images, img)
	}
	return images, skipped
}

func (p *docxPackage) image(sourcePart string, rel relationship, types contentTypeResolver) (Image, error) {
	if strings.EqualFold(rel.TargetMode, "External") {
		return Image{}, errExternalTarget
	}
	name := resolveTarget(sourcePart, rel.Target)
	data, err := p.read(name)
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", name, err)
	}
	mime := types.lookup(name, data)
	return Image{
		DataURL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		MimeType: mime,
	}, nil
}

type stylesDoc struct {
	Styles []struct {
		ID   string `xml:"styleId,attr"`
		Name struct {
			Val string `xml:"val,attr"`
		} `xml:"name"`
	} `xml:"style"`
}

// styleNames maps style IDs to their UI names ("Heading2" -> "Heading 2").
// Missing or malformed styles.xml yields an empty map; callers then fall
// back to the style ID itself.
func (p *docxPackage) styleNames() map[string]string {
	names := map[string]string{}
	data, err := p.read("word/styles.xml")
	if err != nil {
		return names
	}
	var doc stylesDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return names
	}
	for _, s := range doc.Styles {
		if s.ID == "" || s.Name.Val == "" {
			continue
		}
		names[s.ID] = uiStyleName(s.Name.Val)
	}
	return names
}

// Built-in styles are stored under lowercase internal names.
var builtinStyleNames = map[string]string{
	"caption": "Caption",
	"footer":  "Footer",
	"header":  "Header",
	"title":   "Title",
}

func uiStyleName(name string) string {
	if ui, ok := builtinStyleNames[name]; ok {
		return ui
	}
	if rest, ok := strings.CutPrefix(name, "heading "); ok {
		return "Heading " + rest
	}
	return name
}
