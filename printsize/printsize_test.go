package printsize

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 24))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(3, 3, color.RGBA{R: 0xff, A: 0xff})
	return img
}

func TestRuleCSS(t *testing.T) {
	css := NewRule(4, 6).CSS()
	assert.Contains(t, css, "@media print")
	assert.Contains(t, css, "size: 4in 6in;")
	assert.Contains(t, css, "margin: 0;")
	assert.Contains(t, css, "calc(100% - 1px)")

	w, h := NewRule(4, 6).ImageSize()
	assert.InDelta(t, 4-1./96, w, 1e-9)
	assert.InDelta(t, 6-1./96, h, 1e-9)
}

func countStyles(n *html.Node) int {
	c := 0
	if n.Type == html.ElementNode && n.Data == "style" {
		c++
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c += countStyles(ch)
	}
	return c
}

func TestHandleReplacement(t *testing.T) {
	s := NewHTMLSurface()
	sizer := NewSizer(s)

	h1, err := sizer.ApplyPageRule(4, 6)
	require.NoError(t, err)
	h2, err := sizer.ApplyPageRule(2, 1)
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, 2., h2.Rule().Width)

	assert.Equal(t, 1, countStyles(s.doc))

	var buf bytes.Buffer
	_, err = s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "size: 2in 1in;")
	assert.NotContains(t, buf.String(), "size: 4in 6in;")

	sizer.Close()
	assert.ErrorIs(t, h1.Set(NewRule(1, 1)), ErrRetired)
	_, err = sizer.ApplyPageRule(1, 1)
	assert.ErrorIs(t, err, ErrRetired)
}

func TestHTMLSurface(t *testing.T) {
	s := NewHTMLSurface()
	s.SetRule(NewRule(4, 6))
	require.NoError(t, s.Place(testImage()))
	require.NoError(t, s.Place(testImage()))

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `id="printRoot"`)
	assert.Equal(t, 1, strings.Count(out, "data:image/png;base64,"))
}

func TestPDFPageSize(t *testing.T) {
	s := NewPDFSurface()
	s.SetRule(NewRule(4, 6))
	select {
	case <-s.Committed():
		t.Fatal("committed before placement")
	default:
	}
	require.NoError(t, s.Place(testImage()))

	select {
	case <-s.Committed():
	default:
		t.Fatal("expected commit signal")
	}

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	// 4x6 in is 288x432 pt
	assert.Contains(t, buf.String(), "/MediaBox [0 0 288.00 432.00]")
}

func TestPDFNotPlaced(t *testing.T) {
	_, err := NewPDFSurface().WriteTo(&bytes.Buffer{})
	assert.Error(t, err)
}

type recordPrinter struct {
	calls int
	media string
	at    time.Time
}

func (r *recordPrinter) Print(_ context.Context, doc Document) error {
	r.calls++
	r.media = doc.MediaType()
	r.at = time.Now()
	return nil
}

func TestPrintWaitsSettleDelay(t *testing.T) {
	sizer := NewSizer(NewHTMLSurface(), WithSettleDelay(50*time.Millisecond))
	_, err := sizer.ApplyPageRule(4, 6)
	require.NoError(t, err)

	var p recordPrinter
	start := time.Now()
	require.NoError(t, sizer.Print(context.Background(), testImage(), &p))
	assert.Equal(t, 1, p.calls)
	assert.GreaterOrEqual(t, p.at.Sub(start), 50*time.Millisecond)
}

func TestPrintUsesCommitSignal(t *testing.T) {
	sizer := NewSizer(NewPDFSurface(), WithSettleDelay(time.Hour))
	_, err := sizer.ApplyPageRule(2, 1)
	require.NoError(t, err)

	var p recordPrinter
	require.NoError(t, sizer.Print(context.Background(), testImage(), &p))
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "application/pdf", p.media)
}

func TestPrintTwiceSameRule(t *testing.T) {
	s := NewPDFSurface()
	sizer := NewSizer(s, WithSettleDelay(time.Hour))
	_, err := sizer.ApplyPageRule(2, 1)
	require.NoError(t, err)

	var p recordPrinter
	require.NotPanics(t, func() {
		require.NoError(t, sizer.Print(context.Background(), testImage(), &p))
		require.NoError(t, sizer.Print(context.Background(), testImage(), &p))
	})
	assert.Equal(t, 2, p.calls)

	require.NoError(t, s.Place(testImage()))
	select {
	case <-s.Committed():
	default:
		t.Fatal("expected commit signal")
	}
}

func TestPrintCancelled(t *testing.T) {
	sizer := NewSizer(NewHTMLSurface(), WithSettleDelay(time.Hour))
	_, err := sizer.ApplyPageRule(4, 6)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	var p recordPrinter
	err = sizer.Print(ctx, testImage(), &p)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, p.calls)
}

func TestPrintWithoutRule(t *testing.T) {
	err := NewSizer(NewPDFSurface()).Print(context.Background(), testImage(), &recordPrinter{})
	assert.ErrorIs(t, err, ErrNoRule)
}

func TestFilePrinter(t *testing.T) {
	dir := t.TempDir()
	s := NewPDFSurface()
	s.SetRule(NewRule(1, 1))
	require.NoError(t, s.Place(testImage()))

	fp := &FilePrinter{Dir: filepath.Join(dir, "out"), Name: "label"}
	require.NoError(t, fp.Print(context.Background(), s))
	assert.Equal(t, filepath.Join(dir, "out", "label.pdf"), fp.Path)

	data, err := os.ReadFile(fp.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestCommandPrinter(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	target := filepath.Join(t.TempDir(), "spool.html")
	cp, err := ParseCommand("sh -c 'cat'")
	require.NoError(t, err)
	assert.Equal(t, "sh", cp.Command)

	cp = CommandPrinter{Command: "sh", Args: []string{"-c", "cat > " + target}}
	s := NewHTMLSurface()
	s.SetRule(NewRule(1, 1))
	require.NoError(t, s.Place(testImage()))
	require.NoError(t, cp.Print(context.Background(), s))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "printRoot")

	cp = CommandPrinter{Command: "sh", Args: []string{"-c", "echo offline >&2; exit 3"}}
	err = cp.Print(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")

	_, err = ParseCommand("   ")
	assert.Error(t, err)
}
