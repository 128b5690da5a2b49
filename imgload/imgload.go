// Package imgload fetches and decodes the raster sources of image
// and barcode elements, from http(s) URLs, data URLs or local files.
// SVG sources are rasterized.
package imgload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// maxSize limits the size of a fetched source.
const maxSize = 32 << 20

// DefaultMaxPixels bounds the decoded size of a source.
const DefaultMaxPixels = 1 << 26

var (
	// ErrEmptyURL is returned when an element has no source.
	ErrEmptyURL = errors.New("empty image url")
	// ErrTooLarge is returned for sources whose decoded size exceeds the pixel cap.
	ErrTooLarge = errors.New("image source too large")
	// ErrLocalFiles is returned for local sources when local files are disabled.
	ErrLocalFiles = errors.New("local image files are disabled")
)

// Resource is a decoded image with its natural size,
// in reference pixels.
type Resource struct {
	Image         image.Image
	Width, Height float64
}

// Loader provides the images of a label.
type Loader interface {
	Load(ctx context.Context, url string) (*Resource, error)
}

// Fetcher is the default Loader. Resources are cached
// by URL; it is safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	cache    *cache.Cache // nil when disabled
	svgScale float64
	log      *zap.Logger

	maxPixels int
	// localRoot is the directory local sources are resolved in,
	// empty when they are refused.
	localRoot string
}

type Option func(*Fetcher)

// WithHTTPClient sets the client used for http(s) URLs.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithCacheTTL sets how long decoded images are kept.
// A zero TTL disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(f *Fetcher) {
		if ttl <= 0 {
			f.cache = nil
			return
		}
		f.cache = cache.New(ttl, 2*ttl)
	}
}

// WithSVGScale sets the oversampling used to rasterize SVG sources,
// which should match the supersampling of the label raster.
func WithSVGScale(scale float64) Option {
	return func(f *Fetcher) { f.svgScale = scale }
}

// WithMaxPixels sets the largest accepted source, in decoded pixels.
func WithMaxPixels(n int) Option {
	return func(f *Fetcher) { f.maxPixels = n }
}

// WithLocalFiles enables file: URLs and plain paths, resolved in `root`.
// Paths escaping `root` are refused.
func WithLocalFiles(root string) Option {
	return func(f *Fetcher) { f.localRoot = root }
}

func WithLogger(log *zap.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// New returns a Fetcher with a 15 seconds timeout and a 10 minutes cache.
// Local files are refused unless WithLocalFiles is given.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: 15 * time.Second},
		cache:     cache.New(10*time.Minute, 20*time.Minute),
		svgScale:  4,
		log:       zap.NewNop(),
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load implements Loader.
func (f *Fetcher) Load(ctx context.Context, rawURL string) (*Resource, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	if f.cache != nil {
		if res, ok := f.cache.Get(rawURL); ok {
			return res.(*Resource), nil
		}
	}

	data, contentType, err := f.read(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	res, err := decode(data, contentType, f.svgScale, f.maxPixels)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", shorten(rawURL), err)
	}
	f.log.Debug("image loaded",
		zap.String("url", shorten(rawURL)),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Float64("width", res.Width), zap.Float64("height", res.Height))

	if f.cache != nil {
		f.cache.Set(rawURL, res, cache.DefaultExpiration)
	}
	return res, nil
}

// read returns the raw bytes and the media type, if known.
func (f *Fetcher) read(ctx context.Context, rawURL string) ([]byte, string, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return readDataURL(rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", err
	}
	switch u.Scheme {
	case "http", "https":
		return f.fetch(ctx, u.String())
	case "file":
		data, err := f.readLocal(u.Path)
		return data, "", err
	case "":
		data, err := f.readLocal(rawURL)
		return data, "", err
	default:
		return nil, "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetch(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetching %s: %s", target, resp.Status)
	}
	data, err := readLimited(resp.Body)
	return data, resp.Header.Get("Content-Type"), err
}

// readLocal reads `path`, which must lie inside the local root.
func (f *Fetcher) readLocal(path string) ([]byte, error) {
	if f.localRoot == "" {
		return nil, ErrLocalFiles
	}
	root, err := filepath.Abs(f.localRoot)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%s is outside of %s", path, root)
	}
	return readFile(path)
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readLimited(file)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSize {
		return nil, fmt.Errorf("image larger than %s", humanize.Bytes(maxSize))
	}
	return data, nil
}

// readDataURL decodes "data:[<mediatype>][;base64],<data>"
func readDataURL(rawURL string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(rawURL, "data:"), ",")
	if !ok {
		return nil, "", errors.New("invalid data url: missing comma")
	}
	mediaType := header
	isBase64 := strings.HasSuffix(header, ";base64")
	if isBase64 {
		mediaType = strings.TrimSuffix(header, ";base64")
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, "", fmt.Errorf("invalid data url: %w", err)
		}
		return data, mediaType, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid data url: %w", err)
	}
	return []byte(data), mediaType, nil
}

func decode(data []byte, contentType string, svgScale float64, maxPixels int) (*Resource, error) {
	if isSVG(data, contentType) {
		return rasterizeSVG(data, svgScale, maxPixels)
	}
	// the header is enough to reject oversized rasters before allocating
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := checkSize(float64(cfg.Width), float64(cfg.Height), maxPixels); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Resource{Image: img, Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
}

func checkSize(w, h float64, maxPixels int) error {
	if w*h > float64(maxPixels) {
		return fmt.Errorf("%w: %gx%g pixels", ErrTooLarge, w, h)
	}
	return nil
}

func isSVG(data []byte, contentType string) bool {
	if strings.Contains(contentType, "svg") {
		return true
	}
	head := bytes.TrimSpace(data)
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg")))
}

// shorten avoids logging whole data urls
func shorten(u string) string {
	if len(u) > 64 {
		return u[:61] + "..."
	}
	return u
}
