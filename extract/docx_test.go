package extract

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestDOCXParagraphs(t *testing.T) {
	content := buildTestDocx(t, para("", "  Hello World  ")+para("", "")+para("", "Second paragraph"))

	c, err := Extract(content, "docx")
	if err != nil {
		t.Fatal(err)
	}
	want := "<p>Hello World</p>\n<p>Second paragraph</p>"
	if c.HTML != want {
		t.Errorf("html = %q, want %q", c.HTML, want)
	}
	if c.Images == nil || len(c.Images) != 0 {
		t.Errorf("expected empty non-nil images, got %#v", c.Images)
	}
}

func TestDOCXHeadingStyleNames(t *testing.T) {
	body := para("Heading2", "Chapter") +
		para("HeadingCustom", "Aside") +
		para("Heading9", "Deep") +
		para("Normal", "Body")
	content := buildZip(t, []testPart{
		{name: "word/document.xml", data: documentXML(body)},
		{name: "word/styles.xml", data: stylesXML(map[string]string{
			"Heading2":      "heading 2",
			"HeadingCustom": "Heading Custom",
			"Heading9":      "heading 9",
			"Normal":        "Normal",
		})},
	})

	c, err := Extract(content, "docx")
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"<h2>Chapter</h2>",
		"<p><strong>Aside</strong></p>",
		"<h6>Deep</h6>",
		"<p>Body</p>",
	}, "\n")
	if c.HTML != want {
		t.Errorf("html =\n%s\nwant\n%s", c.HTML, want)
	}
}

func TestDOCXHeadingFallsBackToStyleID(t *testing.T) {
	content := buildTestDocx(t, para("Heading1", "Intro")+para("Heading0", "Zero"))

	c, err := Extract(content, "docx")
	if err != nil {
		t.Fatal(err)
	}
	if c.HTML != "<h1>Intro</h1>\n<h1>Zero</h1>" {
		t.Errorf("html = %q", c.HTML)
	}
}

func TestRenderParagraph(t *testing.T) {
	tests := []struct {
		name  string
		style string
		text  string
		want  string
	}{
		{"plain", "", "text", "<p>text</p>"},
		{"heading with space", "Heading 3", "t", "<h3>t</h3>"},
		{"clamped high", "Heading 12", "t", "<h6>t</h6>"},
		{"clamped low", "Heading -2", "t", "<h1>t</h1>"},
		{"unparseable level", "Heading Custom", "t", "<p><strong>t</strong></p>"},
		{"bare marker", "Heading", "t", "<p><strong>t</strong></p>"},
		{"not a heading", "Subheading 2", "t", "<p>t</p>"},
		{"escaped", "", "a < b & c", "<p>a &lt; b &amp; c</p>"},
		{"blank", "Heading 1", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderParagraph(paragraph{styleID: tt.style, text: tt.text}, nil)
			if got != tt.want {
				t.Errorf("renderParagraph(%q, %q) = %q, want %q", tt.style, tt.text, got, tt.want)
			}
		})
	}
}

func TestDOCXTablePreservesBodyOrder(t *testing.T) {
	body := para("", "Before") +
		tbl([]string{" Name ", "Age"}, []string{"John", " 30 "}) +
		para("", "After")
	content := buildTestDocx(t, body)

	c, err := Extract(content, "docx")
	if err != nil {
		t.Fatal(err)
	}

	before := strings.Index(c.HTML, "<p>Before</p>")
	table := strings.Index(c.HTML, "<table")
	after := strings.Index(c.HTML, "<p>After</p>")
	if before < 0 || table < 0 || after < 0 || !(before < table && table < after) {
		t.Fatalf("body order not preserved: %q", c.HTML)
	}

	header := `<tr><th style="` + headerCellStyle + `">Name</th><th style="` + headerCellStyle + `">Age</th></tr>`
	data := `<tr><td style="` + dataCellStyle + `">John</td><td style="` + dataCellStyle + `">30</td></tr>`
	if !strings.Contains(c.HTML, header) {
		t.Errorf("header row missing:\n%s", c.HTML)
	}
	if !strings.Contains(c.HTML, data) {
		t.Errorf("data row missing:\n%s", c.HTML)
	}
	if strings.Count(c.HTML, "<th ") != 2 || strings.Count(c.HTML, "<td ") != 2 {
		t.Errorf("expected 2 th and 2 td cells:\n%s", c.HTML)
	}
	if !strings.Contains(c.HTML, tableOpenTag) {
		t.Errorf("table styling missing:\n%s", c.HTML)
	}
}

func TestDOCXCellWithSeveralParagraphs(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc>` +
		`<w:p><w:r><w:t>line one</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>line two</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>nested</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:tc></w:tr></w:tbl>`
	c, err := Extract(buildTestDocx(t, body), "docx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.HTML, ">line one\nline two</th>") {
		t.Errorf("cell paragraphs not joined: %q", c.HTML)
	}
	if strings.Contains(c.HTML, "nested") {
		t.Errorf("nested table text should not be rendered: %q", c.HTML)
	}
}

func TestDOCXRunContent(t *testing.T) {
	body := `<w:p>` +
		`<w:r><w:t>Tab</w:t><w:tab/><w:t>bed</w:t></w:r>` +
		`<w:r><w:instrText>HYPERLINK x</w:instrText></w:r>` +
		`<w:hyperlink><w:r><w:t xml:space="preserve"> link</w:t></w:r></w:hyperlink>` +
		`<w:r><w:drawing><wp:inline xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"><wp:docPr id="1" name="Picture"/></wp:inline></w:drawing></w:r>` +
		`</w:p>`
	c, err := Extract(buildTestDocx(t, body), "docx")
	if err != nil {
		t.Fatal(err)
	}
	if c.HTML != "<p>Tab\tbed link</p>" {
		t.Errorf("html = %q", c.HTML)
	}
}

func TestDOCXContentControlBlocks(t *testing.T) {
	body := para("", "first") +
		`<w:sdt><w:sdtPr><w:alias w:val="Box"/></w:sdtPr><w:sdtContent>` + para("", "inside") + `</w:sdtContent></w:sdt>` +
		para("", "last")
	c, err := Extract(buildTestDocx(t, body), "docx")
	if err != nil {
		t.Fatal(err)
	}
	if c.HTML != "<p>first</p>\n<p>inside</p>\n<p>last</p>" {
		t.Errorf("html = %q", c.HTML)
	}
}

func mergedCell(props, text string) string {
	return `<w:tc><w:tcPr>` + props + `</w:tcPr><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:tc>`
}

func TestDOCXMergedCellsFillEveryGridColumn(t *testing.T) {
	body := `<w:tbl>` +
		`<w:tr>` + mergedCell(`<w:gridSpan w:val="2"/>`, "Group") + mergedCell("", "C") + `</w:tr>` +
		`<w:tr>` + mergedCell(`<w:vMerge w:val="restart"/>`, "X") + mergedCell("", "1") + mergedCell("", "2") + `</w:tr>` +
		`<w:tr>` + mergedCell(`<w:vMerge/>`, "") + mergedCell("", "3") + mergedCell("", "4") + `</w:tr>` +
		`</w:tbl>`
	c, err := Extract(buildTestDocx(t, body), "docx")
	if err != nil {
		t.Fatal(err)
	}

	th := func(s string) string { return `<th style="` + headerCellStyle + `">` + s + `</th>` }
	td := func(s string) string { return `<td style="` + dataCellStyle + `">` + s + `</td>` }
	rows := []string{
		"<tr>" + th("Group") + th("Group") + th("C") + "</tr>",
		"<tr>" + td("X") + td("1") + td("2") + "</tr>",
		"<tr>" + td("X") + td("3") + td("4") + "</tr>",
	}
	for _, row := range rows {
		if !strings.Contains(c.HTML, row) {
			t.Errorf("row %q missing:\n%s", row, c.HTML)
		}
	}
}

func TestDOCXGridSpanIsCapped(t *testing.T) {
	body := `<w:tbl><w:tr>` + mergedCell(`<w:gridSpan w:val="100000"/>`, "wide") + `</w:tr></w:tbl>`
	c, err := Extract(buildTestDocx(t, body), "docx")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(c.HTML, "<th "); n != maxGridSpan {
		t.Errorf("got %d header cells, want %d", n, maxGridSpan)
	}
}

const mcNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"

func alternate(choice, fallback string) string {
	return `<mc:AlternateContent xmlns:mc="` + mcNS + `">` +
		`<mc:Choice Requires="w14">` + choice + `</mc:Choice>` +
		`<mc:Fallback>` + fallback + `</mc:Fallback>` +
		`</mc:AlternateContent>`
}

func TestDOCXAlternateContentReadsChoiceOnly(t *testing.T) {
	body := para("", "first") +
		alternate(para("", "new"), para("", "old")) +
		para("", "last")
	c, err := Extract(buildTestDocx(t, body), "docx")
	if err != nil {
		t.Fatal(err)
	}
	if c.HTML != "<p>first</p>\n<p>new</p>\n<p>last</p>" {
		t.Errorf("html = %q", c.HTML)
	}

	cellBody := `<w:tbl><w:tr><w:tc>` +
		alternate(`<w:p><w:r><w:t>new</w:t></w:r></w:p>`, `<w:p><w:r><w:t>old</w:t></w:r></w:p>`) +
		`</w:tc></w:tr></w:tbl>`
	c, err = Extract(buildTestDocx(t, cellBody), "docx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.HTML, ">new</th>") || strings.Contains(c.HTML, "old") {
		t.Errorf("cell should hold only the Choice branch: %q", c.HTML)
	}
}

func TestDOCXImagesInRelationshipOrder(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x01, 0x02}
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x10, 0x20, 0x30}
	content := buildZip(t, []testPart{
		{name: "[Content_Types].xml", data: contentTypesXML(map[string]string{
			"/word/media/image1.jpeg": "image/jpeg",
		})},
		{name: "word/document.xml", data: documentXML(para("", "Pictures"))},
		{name: "word/_rels/document.xml.rels", data: relsXML([]testRel{
			{id: "rId1", target: "styles.xml"},
			{id: "rId7", target: "media/image2.png"},
			{id: "rId3", target: "media/image1.jpeg"},
		})},
		{name: "word/media/image1.jpeg", data: jpeg},
		{name: "word/media/image2.png", data: png},
	})

	c, err := Extract(content, "docx")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(c.Images))
	}
	wants := []struct {
		mime string
		data []byte
	}{{"image/png", png}, {"image/jpeg", jpeg}}
	for i, w := range wants {
		img := c.Images[i]
		if img.MimeType != w.mime {
			t.Errorf("image %d mime = %q, want %q", i, img.MimeType, w.mime)
		}
		prefix := "data:" + w.mime + ";base64,"
		if !strings.HasPrefix(img.DataURL, prefix) {
			t.Fatalf("image %d data url = %q", i, img.DataURL)
		}
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(img.DataURL, prefix))
		if err != nil {
			t.Fatalf("image %d: %v", i, err)
		}
		if !bytes.Equal(decoded, w.data) {
			t.Errorf("image %d round trip mismatch", i)
		}
	}
	if c.HTML != "<p>Pictures</p>" {
		t.Errorf("html = %q", c.HTML)
	}
}

func TestDOCXCorruptImageIsSkipped(t *testing.T) {
	good := []byte("GOOD-IMAGE-PAYLOAD-0123456789")
	bad := []byte("BAD-IMAGE-PAYLOAD-9876543210")
	content := buildZip(t, []testPart{
		{name: "[Content_Types].xml", data: contentTypesXML(nil)},
		{name: "word/document.xml", data: documentXML(para("Heading1", "Title") + tbl([]string{"a"}, []string{"b"}))},
		{name: "word/_rels/document.xml.rels", data: relsXML([]testRel{
			{id: "rId1", target: "media/image1.png"},
			{id: "rId2", target: "media/image2.png"},
			{id: "rId3", target: "media/image3.png"},
			{id: "rId4", target: "https://example.com/image.png", mode: "External"},
		})},
		{name: "word/media/image1.png", data: good},
		{name: "word/media/image2.png", data: bad, store: true},
		// image3.png is declared but missing from the package.
	})
	// Flip payload bytes so the stored entry fails its CRC check.
	i := bytes.Index(content, bad)
	if i < 0 {
		t.Fatal("stored payload not found in archive")
	}
	copy(content[i:], bytes.ToLower(bad))

	c, err := Extract(content, "docx")
	if err != nil {
		t.Fatalf("extraction should survive corrupt images: %v", err)
	}
	if len(c.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(c.Images))
	}
	if c.Images[0].DataURL != "data:image/png;base64,"+base64.StdEncoding.EncodeToString(good) {
		t.Errorf("unexpected surviving image: %q", c.Images[0].DataURL)
	}
	if len(c.Skipped) != 3 {
		t.Fatalf("expected 3 skipped images, got %d: %+v", len(c.Skipped), c.Skipped)
	}
	if c.Skipped[0].RelID != "rId2" || c.Skipped[1].RelID != "rId3" || c.Skipped[2].RelID != "rId4" {
		t.Errorf("unexpected skipped order: %+v", c.Skipped)
	}
	if !errors.Is(c.Skipped[2].Err, errExternalTarget) {
		t.Errorf("external target error = %v", c.Skipped[2].Err)
	}
	if !strings.HasPrefix(c.HTML, "<h1>Title</h1>\n<table") {
		t.Errorf("html incomplete: %q", c.HTML)
	}
}

func TestDOCXImageWithoutDeclaredTypeIsSniffed(t *testing.T) {
	gif := []byte("GIF89a\x01\x00\x01\x00")
	content := buildZip(t, []testPart{
		{name: "word/document.xml", data: documentXML(para("", "x"))},
		{name: "word/_rels/document.xml.rels", data: relsXML([]testRel{{id: "rId1", target: "media/image1.gif"}})},
		{name: "word/media/image1.gif", data: gif},
	})
	c, err := Extract(content, "docx")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Images) != 1 || c.Images[0].MimeType != "image/gif" {
		t.Errorf("images = %+v", c.Images)
	}
}

func TestDOCXMainPartFromPackageRelationships(t *testing.T) {
	pkgRels := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="` + officeDocumentRelType + `" Target="word/document2.xml"/>` +
		`</Relationships>`
	content := buildZip(t, []testPart{
		{name: "_rels/.rels", data: []byte(pkgRels)},
		{name: "word/document2.xml", data: documentXML(para("", "relocated"))},
	})
	c, err := Extract(content, "docx")
	if err != nil {
		t.Fatal(err)
	}
	if c.HTML != "<p>relocated</p>" {
		t.Errorf("html = %q", c.HTML)
	}
}

func TestDOCXInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"not a zip", []byte("not a zip")},
		{"missing document", buildZip(t, []testPart{{name: "word/styles.xml", data: []byte("<styles/>")}})},
		{"broken xml", buildZip(t, []testPart{{name: "word/document.xml", data: []byte("<w:document><w:body><w:p>")}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.content, "docx")
			if !errors.Is(err, ErrExtraction) {
				t.Fatalf("expected ErrExtraction, got %v", err)
			}
			var ee *ExtractionError
			if !errors.As(err, &ee) || ee.Format != FormatDOCX {
				t.Errorf("expected *ExtractionError for docx, got %T", err)
			}
		})
	}
}

func TestDOCXEntrySizeLimit(t *testing.T) {
	content := buildTestDocx(t, para("", strings.Repeat("x", 4096)))
	e := New(WithMaxEntrySize(512))
	if _, err := e.Extract(content, "docx"); !errors.Is(err, ErrExtraction) {
		t.Errorf("expected size limit error, got %v", err)
	}
}

func TestDOCXLegacyDocExtensionUsesDOCXPath(t *testing.T) {
	c, err := Extract(buildTestDocx(t, para("", "legacy")), "doc")
	if err != nil {
		t.Fatal(err)
	}
	if c.HTML != "<p>legacy</p>" {
		t.Errorf("html = %q", c.HTML)
	}
}
