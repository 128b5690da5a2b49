package imgload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const squareSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 10">
<rect x="0" y="0" width="20" height="10" fill="black"/></svg>`

func TestDataURL(t *testing.T) {
	f := New()
	res, err := f.Load(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes(t, 3, 2)))
	require.NoError(t, err)
	assert.Equal(t, 3., res.Width)
	assert.Equal(t, 2., res.Height)

	res, err = f.Load(context.Background(), "data:image/svg+xml,"+`%3Csvg%20xmlns%3D%22http%3A%2F%2Fwww.w3.org%2F2000%2Fsvg%22%20viewBox%3D%220%200%208%204%22%3E%3C%2Fsvg%3E`)
	require.NoError(t, err)
	assert.Equal(t, 8., res.Width)
	assert.Equal(t, 4., res.Height)

	_, err = f.Load(context.Background(), "data:image/png;base64")
	assert.Error(t, err)
	_, err = f.Load(context.Background(), "data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestHTTPAndCache(t *testing.T) {
	var hits int32
	data := pngBytes(t, 5, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/barcode.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(data)
		case "/logo.svg":
			w.Header().Set("Content-Type", "image/svg+xml")
			w.Write([]byte(squareSVG))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(WithHTTPClient(srv.Client()), WithCacheTTL(time.Minute))
	ctx := context.Background()

	res, err := f.Load(ctx, srv.URL+"/barcode.png")
	require.NoError(t, err)
	again, err := f.Load(ctx, srv.URL+"/barcode.png")
	require.NoError(t, err)
	assert.Same(t, res, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	svg, err := f.Load(ctx, srv.URL+"/logo.svg")
	require.NoError(t, err)
	assert.Equal(t, 20., svg.Width)
	assert.Equal(t, 10., svg.Height)
	assert.Equal(t, image.Rect(0, 0, 80, 40), svg.Image.Bounds(), "rasterized at 4x")

	_, err = f.Load(ctx, srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestNoCache(t *testing.T) {
	var hits int32
	data := pngBytes(t, 1, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(data)
	}))
	defer srv.Close()

	f := New(WithHTTPClient(srv.Client()), WithCacheTTL(0))
	for range [3]int{} {
		_, err := f.Load(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestLocalFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 6), 0o644))
	ctx := context.Background()

	_, err := New().Load(ctx, path)
	assert.ErrorIs(t, err, ErrLocalFiles)
	_, err = New().Load(ctx, "file://"+path)
	assert.ErrorIs(t, err, ErrLocalFiles)

	f := New(WithLocalFiles(dir))
	res, err := f.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 6., res.Height)

	res, err = f.Load(ctx, "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, 4., res.Width)

	res, err = f.Load(ctx, "img.png")
	require.NoError(t, err)
	assert.Equal(t, 4., res.Width)

	_, err = f.Load(ctx, filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestLocalFilesOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "assets")
	require.NoError(t, os.Mkdir(root, 0o755))
	secret := filepath.Join(parent, "secret.png")
	require.NoError(t, os.WriteFile(secret, pngBytes(t, 2, 2), 0o644))

	f := New(WithLocalFiles(root))
	for _, u := range []string{secret, "file://" + secret, "../secret.png", "sub/../../secret.png"} {
		_, err := f.Load(context.Background(), u)
		assert.Error(t, err, u)
	}
}

// pngHeader returns a PNG stream made of a valid header
// declaring a w x h image, without pixel data.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(typ))
		crc.Write(data)
		buf.WriteString(typ)
		buf.Write(data)
		binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8], ihdr[9] = 8, 6 // 8 bits RGBA
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestTooLarge(t *testing.T) {
	ctx := context.Background()
	f := New(WithCacheTTL(0))

	bomb := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader(200000, 200000))
	_, err := f.Load(ctx, bomb)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Load(ctx, "data:image/svg+xml,<svg viewBox='0 0 3000000000 3000000000'>")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Load(ctx, "data:image/svg+xml,<svg viewBox='0 0 1e400 10'></svg>")
	assert.Error(t, err)

	small := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 4, 6))
	_, err = New(WithMaxPixels(10)).Load(ctx, small)
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = New(WithMaxPixels(24)).Load(ctx, small)
	assert.NoError(t, err)

	// 20x10 view box at 4x is 80x40 pixels
	svg := "data:image/svg+xml," + url.PathEscape(squareSVG)
	_, err = New(WithMaxPixels(80*40-1)).Load(ctx, svg)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestErrors(t *testing.T) {
	f := New()
	_, err := f.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURL)

	_, err = f.Load(context.Background(), "ftp://example.com/a.png")
	assert.Error(t, err)

	_, err = f.Load(context.Background(), "data:text/plain,hello")
	assert.Error(t, err, "not an image")
}

func TestIsSVG(t *testing.T) {
	assert.True(t, isSVG([]byte(squareSVG), ""))
	assert.True(t, isSVG([]byte(`<?xml version="1.0"?>`+squareSVG), ""))
	assert.True(t, isSVG(nil, "image/svg+xml"))
	assert.False(t, isSVG([]byte("\x89PNG"), "image/png"))
}
