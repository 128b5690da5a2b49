package printsize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const pdfImageName = "label"

// PDFSurface lays the label out on a single PDF page whose size is
// exactly the one of the rule.
type PDFSurface struct {
	rule      Rule
	doc       []byte
	committed chan struct{}
}

func NewPDFSurface() *PDFSurface {
	return &PDFSurface{committed: make(chan struct{})}
}

func (s *PDFSurface) SetRule(r Rule) {
	s.rule = r
	s.doc = nil
	s.committed = make(chan struct{})
}

func (s *PDFSurface) Committed() <-chan struct{} { return s.committed }

func (s *PDFSurface) MediaType() string { return "application/pdf" }

func (s *PDFSurface) Place(img image.Image) error {
	r := s.rule
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid page size %gx%g in", r.Width, r.Height)
	}

	var raster bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&raster, img); err != nil {
		return fmt.Errorf("encoding label raster: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           gofpdf.SizeType{Wd: r.Width, Ht: r.Height},
	})
	pdf.SetMargins(r.Margin, r.Margin, r.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(pdfImageName, opts, &raster)
	w, h := r.ImageSize()
	pdf.ImageOptions(pdfImageName, r.Margin, r.Margin, w, h, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	s.doc = out.Bytes()
	select {
	case <-s.committed:
		// placed again under the same rule
		s.committed = make(chan struct{})
	default:
	}
	close(s.committed)
	return nil
}

// WriteTo writes the PDF document produced by the last call to Place.
func (s *PDFSurface) WriteTo(w io.Writer) (int64, error) {
	if s.doc == nil {
		return 0, fmt.Errorf("no label placed")
	}
	n, err := w.Write(s.doc)
	return int64(n), err
}
