package docs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// LoadDOCX returns the paragraphs of word/document.xml, one per line.
func LoadDOCX(_ context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx archive: %w", err)
	}

	part, err := readPart(zr, "word/document.xml")
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs(part), "\n"), nil
}

// LoadPPTX returns the text of every slide in slide order, slides separated
// by a blank line.
func LoadPPTX(_ context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pptx archive: %w", err)
	}

	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, "ppt/slides/slide"), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, name: f.Name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var out []string
	for _, s := range slides {
		part, err := readPart(zr, s.name)
		if err != nil {
			return "", err
		}
		if text := strings.Join(paragraphs(part), "\n"); text != "" {
			out = append(out, text)
		}
	}

	return strings.Join(out, "\n\n"), nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening %s: %w", name, err)
		}
		defer rc.Close()

		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("missing part %s", name)
}

// paragraphs collects the text runs (<w:t>, <a:t>) of each paragraph
// (<w:p>, <a:p>). Tabs and breaks inside a paragraph become whitespace.
func paragraphs(part []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(part))

	var (
		out    []string
		cur    strings.Builder
		inText bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteString("\t")
			case "br":
				cur.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	flush()

	return out
}
