package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// --- test helpers ---

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type testPart struct {
	name  string
	data  []byte
	store bool // write uncompressed so tests can corrupt the payload in place
}

func buildZip(t *testing.T, parts []testPart) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		method := zip.Deflate
		if p.store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: method})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(p.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func documentXML(body string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString("\n")
	b.WriteString(`<w:document xmlns:w="` + wordNS + `">`)
	b.WriteString("<w:body>")
	b.WriteString(body)
	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>`)
	b.WriteString("</w:body></w:document>")
	return []byte(b.String())
}

func para(style, text string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	if style != "" {
		fmt.Fprintf(&b, `<w:pPr><w:pStyle w:val="%s"/><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>`, style)
	}
	fmt.Fprintf(&b, `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r>`, text)
	b.WriteString("</w:p>")
	return b.String()
}

func tbl(rows ...[]string) string {
	var b strings.Builder
	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/></w:tblPr><w:tblGrid><w:gridCol w:w="4000"/></w:tblGrid>`)
	for _, row := range rows {
		b.WriteString("<w:tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, `<w:tc><w:tcPr><w:tcW w:w="4000" w:type="dxa"/></w:tcPr><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:tc>`, cell)
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

func stylesXML(idToName map[string]string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<w:styles xmlns:w="` + wordNS + `">`)
	for id, name := range idToName {
		fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="%s"/></w:style>`, id, name)
	}
	b.WriteString("</w:styles>")
	return []byte(b.String())
}

type testRel struct {
	id, target, mode string
}

func relsXML(rels []testRel) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		relType := "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
		if !strings.Contains(r.target, "image") {
			relType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
		}
		mode := ""
		if r.mode != "" {
			mode = fmt.Sprintf(` TargetMode="%s"`, r.mode)
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"%s/>`, r.id, relType, r.target, mode)
	}
	b.WriteString("</Relationships>")
	return []byte(b.String())
}

func contentTypesXML(overrides map[string]string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	for part, ct := range overrides {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, part, ct)
	}
	b.WriteString("</Types>")
	return []byte(b.String())
}

func buildTestDocx(t *testing.T, body string) []byte {
	t.Helper()
	return buildZip(t, []testPart{
		{name: "[Content_Types].xml", data: contentTypesXML(nil)},
		{name: "word/document.xml", data: documentXML(body)},
	})
}
