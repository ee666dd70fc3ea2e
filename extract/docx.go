package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const defaultDocumentPart = "word/document.xml"

// maxGridSpan is the widest table Word produces.
const maxGridSpan = 63

var errEmptyDOCX = errors.New("empty docx content")

// nodeKind tags a top-level body node.
type nodeKind int

const (
	nodeParagraph nodeKind = iota
	nodeTable
)

// bodyNode is one top-level element of the document body, in document order.
// Exactly one of paragraph or table is meaningful, selected by kind.
type bodyNode struct {
	kind      nodeKind
	paragraph paragraph
	table     table
}

type paragraph struct {
	styleID string
	text    string
}

type table struct {
	rows [][]string
}

// extractDOCX walks the document body in order, emitting paragraphs,
// headings and tables, then collects images from the relationship list.
func (e *Extractor) extractDOCX(data []byte) (Content, error) {
	if len(data) == 0 {
		return Content{}, extractionErr(FormatDOCX, errEmptyDOCX)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Content{}, extractionErr(FormatDOCX, fmt.Errorf("open zip: %w", err))
	}
	pkg := newDocxPackage(zr, e.maxEntrySize)

	docPart := pkg.mainDocumentPart()
	docData, err := pkg.read(docPart)
	if err != nil {
		return Content{}, extractionErr(FormatDOCX, fmt.Errorf("read %s: %w", docPart, err))
	}
	nodes, err := parseBody(docData)
	if err != nil {
		return Content{}, extractionErr(FormatDOCX, err)
	}

	styles := pkg.styleNames()
	var fragments []string
	for _, n := range nodes {
		switch n.kind {
		case nodeParagraph:
			if frag := renderParagraph(n.paragraph, styles); frag != "" {
				fragments = append(fragments, frag)
			}
		case nodeTable:
			fragments = append(fragments, tableHTML(n.table.rows))
		}
	}

	images, skipped := pkg.images(docPart)
	for _, s := range skipped {
		e.logger.Warn("extract: skipped docx image",
			"rel_id", s.RelID, "target", s.Target, "error", s.Err)
	}

	return Content{
		HTML:    strings.Join(fragments, "\n"),
		Images:  images,
		Skipped: skipped,
	}, nil
}

// renderParagraph returns "" for paragraphs with no visible text.
func renderParagraph(p paragraph, styles map[string]string) string {
	text := strings.TrimSpace(p.text)
	if text == "" {
		return ""
	}
	name := p.styleID
	if resolved, ok := styles[p.styleID]; ok {
		name = resolved
	}
	if !strings.HasPrefix(name, "Heading") {
		return paragraphHTML(text)
	}
	level, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(name, "Heading")))
	if err != nil {
		return boldParagraphHTML(text)
	}
	return headingHTML(min(max(level, 1), 6), text)
}

// parseBody collects the paragraphs and tables directly under w:body.
// Block-level wrappers such as content controls are descended into so the
// blocks they hold keep their position. Of an mc:AlternateContent only the
// mc:Choice branch is read.
func parseBody(data []byte) ([]bodyNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var nodes []bodyNode
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inBody {
				inBody = t.Name.Local == "body"
				continue
			}
			switch t.Name.Local {
			case "p":
				p, err := readParagraph(dec)
				if err != nil {
					return nil, fmt.Errorf("parse paragraph: %w", err)
				}
				nodes = append(nodes, bodyNode{kind: nodeParagraph, paragraph: p})
			case "tbl":
				tbl, err := readTable(dec)
				if err != nil {
					return nil, fmt.Errorf("parse table: %w", err)
				}
				nodes = append(nodes, bodyNode{kind: nodeTable, table: tbl})
			case "sectPr", "sdtPr", "sdtEndPr", "Fallback":
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("parse xml: %w", err)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				inBody = false
			}
		}
	}
	return nodes, nil
}

// readParagraph consumes tokens up to the closing w:p. Text comes from w:t
// runs; w:tab becomes a tab and w:br/w:cr a newline. Drawings, embedded
// objects, and field instructions are not part of the paragraph text.
func readParagraph(dec *xml.Decoder) (paragraph, error) {
	var p paragraph
	var text strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return p, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				style, err := readParagraphStyle(dec)
				if err != nil {
					return p, err
				}
				p.styleID = style
			case "t":
				inText = true
			case "tab":
				text.WriteByte('\t')
			case "br", "cr":
				text.WriteByte('\n')
			case "drawing", "pict", "object", "AlternateContent", "delText", "instrText", "rPr":
				if err := dec.Skip(); err != nil {
					return p, err
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				p.text = text.String()
				return p, nil
			}
		}
	}
}

// readParagraphStyle consumes a w:pPr element and returns its w:pStyle value.
func readParagraphStyle(dec *xml.Decoder) (string, error) {
	var style string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "pStyle" && depth == 2 {
				style = attrValue(t, "val")
			}
		case xml.EndElement:
			depth--
		}
	}
	return style, nil
}

// readTable consumes tokens up to the closing w:tbl. Each row has one entry
// per grid column: a cell spanning several columns (w:gridSpan) is repeated,
// and a vertically merged continuation cell (w:vMerge) repeats the text of
// the cell above it. Tables nested inside a cell are not rendered.
func readTable(dec *xml.Decoder) (table, error) {
	var tbl table
	for {
		tok, err := dec.Token()
		if err != nil {
			return tbl, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				tbl.rows = append(tbl.rows, []string{})
			case "tc":
				c, err := readCell(dec)
				if err != nil {
					return tbl, err
				}
				n := len(tbl.rows)
				if n == 0 {
					continue
				}
				row := tbl.rows[n-1]
				text := c.text
				if c.mergedAbove && n > 1 && len(row) < len(tbl.rows[n-2]) {
					text = tbl.rows[n-2][len(row)]
				}
				for range c.span {
					row = append(row, text)
				}
				tbl.rows[n-1] = row
			case "tblPr", "tblGrid", "trPr", "tblPrEx":
				if err := dec.Skip(); err != nil {
					return tbl, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return tbl, nil
			}
		}
	}
}

type cell struct {
	text        string
	span        int  // grid columns covered, at least 1
	mergedAbove bool // w:vMerge continuation
}

// readCell returns the cell's paragraphs joined by newlines, trimmed, along
// with its merge properties.
func readCell(dec *xml.Decoder) (cell, error) {
	c := cell{span: 1}
	var paras []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return c, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				p, err := readParagraph(dec)
				if err != nil {
					return c, err
				}
				paras = append(paras, p.text)
			case "tcPr":
				if err := readCellProps(dec, &c); err != nil {
					return c, err
				}
			case "tbl", "Fallback":
				if err := dec.Skip(); err != nil {
					return c, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				c.text = strings.TrimSpace(strings.Join(paras, "\n"))
				return c, nil
			}
		}
	}
}

// readCellProps consumes a w:tcPr element, recording w:gridSpan and w:vMerge.
func readCellProps(dec *xml.Decoder, c *cell) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth != 2 {
				continue
			}
			switch t.Name.Local {
			case "gridSpan":
				if n, err := strconv.Atoi(attrValue(t, "val")); err == nil && n > 1 {
					c.span = min(n, maxGridSpan)
				}
			case "vMerge":
				c.mergedAbove = attrValue(t, "val") != "restart"
			}
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func attrValue(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
