package printsize

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PrintRootID is the id of the element holding the label image.
const PrintRootID = "printRoot"

// HTMLSurface is a print page: the rule is carried by a single
// <style> element and the label is embedded as a PNG data URL.
type HTMLSurface struct {
	doc   *html.Node
	head  *html.Node
	style *html.Node
	root  *html.Node
}

func newElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func NewHTMLSurface() *HTMLSurface {
	s := &HTMLSurface{doc: &html.Node{Type: html.DocumentNode}}
	s.doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := newElement(atom.Html)
	s.doc.AppendChild(root)

	s.head = newElement(atom.Head)
	root.AppendChild(s.head)
	s.head.AppendChild(newElement(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	title := newElement(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: "Label"})
	s.head.AppendChild(title)

	body := newElement(atom.Body)
	root.AppendChild(body)
	s.root = newElement(atom.Div, html.Attribute{Key: "id", Val: PrintRootID})
	body.AppendChild(s.root)
	return s
}

func (s *HTMLSurface) MediaType() string { return "text/html; charset=utf-8" }

// SetRule replaces the content of the page style, creating it
// on first use.
func (s *HTMLSurface) SetRule(r Rule) {
	if s.style == nil {
		s.style = newElement(atom.Style)
		s.head.AppendChild(s.style)
	}
	for c := s.style.FirstChild; c != nil; c = s.style.FirstChild {
		s.style.RemoveChild(c)
	}
	s.style.AppendChild(&html.Node{Type: html.TextNode, Data: r.CSS()})
}

func (s *HTMLSurface) Place(img image.Image) error {
	var buf bytes.Buffer
	buf.WriteString("data:image/png;base64,")
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := png.Encode(enc, img); err != nil {
		return fmt.Errorf("encoding label raster: %w", err)
	}
	enc.Close()

	for c := s.root.FirstChild; c != nil; c = s.root.FirstChild {
		s.root.RemoveChild(c)
	}
	s.root.AppendChild(newElement(atom.Img,
		html.Attribute{Key: "src", Val: buf.String()},
		html.Attribute{Key: "alt", Val: "label"},
	))
	return nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (s *HTMLSurface) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	bw := bufio.NewWriter(cw)
	if err := html.Render(bw, s.doc); err != nil {
		return cw.n, err
	}
	err := bw.Flush()
	return cw.n, err
}
