// Package host runs a complete print attempt: it fetches the markup
// of a label from the label service, hands it to a fresh render
// context, and prints the result on a page sized like the label.
package host

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benoitkugler/oklabel/bridge"
	"github.com/benoitkugler/oklabel/config"
	"github.com/benoitkugler/oklabel/element"
	"github.com/benoitkugler/oklabel/fonts"
	"github.com/benoitkugler/oklabel/imgload"
	"github.com/benoitkugler/oklabel/labelapi"
	"github.com/benoitkugler/oklabel/markup"
	"github.com/benoitkugler/oklabel/printsize"
	"github.com/benoitkugler/oklabel/render"
	"go.uber.org/zap"
)

const module = "host"

// ConfigError is returned when the configuration or the request
// is incomplete. It is raised before any network call.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// Fetcher provides label markups.
type Fetcher interface {
	Fetch(ctx context.Context, req labelapi.Request) ([]*markup.Markup, error)
}

type Host struct {
	cfg      config.Config
	fetcher  Fetcher
	renderer *render.Renderer
	printer  printsize.Printer
	notifier Notifier
	log      *zap.Logger

	// entry is exposed to the render contexts
	entry bridge.EntryPoint
}

type Option func(*Host)

func WithFetcher(f Fetcher) Option { return func(h *Host) { h.fetcher = f } }
func WithPrinter(p printsize.Printer) Option { return func(h *Host) { h.printer = p } }
func WithNotifier(n Notifier) Option { return func(h *Host) { h.notifier = n } }
func WithRenderer(r *render.Renderer) Option { return func(h *Host) { h.renderer = r } }
func WithLogger(log *zap.Logger) Option { return func(h *Host) { h.log = log } }

// New builds a host from the configuration. Missing credentials are
// only reported when printing.
func New(cfg config.Config, opts ...Option) (*Host, error) {
	h := &Host{cfg: cfg, notifier: ConsoleNotifier{}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(zap.String("module", module))

	if h.fetcher == nil {
		client := labelapi.NewClient(cfg.APIBaseURL, labelapi.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
		}, h.log)
		h.fetcher = client
	}
	if h.renderer == nil {
		r, err := NewRenderer(cfg, h.log)
		if err != nil {
			return nil, err
		}
		h.renderer = r
	}
	if h.printer == nil {
		p, err := NewPrinter(cfg)
		if err != nil {
			return nil, err
		}
		h.printer = p
	}
	h.entry = h.RenderAndPrint
	return h, nil
}

// NewRenderer returns a renderer using the fonts and image
// settings of `cfg`. `images` is applied on top of them; local image
// files are only readable when it contains imgload.WithLocalFiles.
func NewRenderer(cfg config.Config, log *zap.Logger, images ...imgload.Option) (*render.Renderer, error) {
	book := fonts.NewBook()
	if cfg.FontDir != "" {
		n, err := book.LoadDir(cfg.FontDir)
		if err != nil {
			return nil, fmt.Errorf("loading fonts: %w", err)
		}
		log.Debug("fonts loaded", zap.Int("count", n), zap.String("dir", cfg.FontDir))
	}
	opts := append([]imgload.Option{
		imgload.WithHTTPClient(&http.Client{Timeout: cfg.ImageTimeout}),
		imgload.WithCacheTTL(cfg.ImageCacheTTL),
		imgload.WithSVGScale(render.Supersample),
		imgload.WithLogger(log),
	}, images...)
	return render.New(
		render.WithDrawer(element.NewDrawer(book, imgload.New(opts...))),
		render.WithLogger(log),
	), nil
}

// NewPrinter returns the spooler command printer if one is configured,
// or a printer writing into the output directory.
func NewPrinter(cfg config.Config) (printsize.Printer, error) {
	if cfg.PrinterCommand != "" {
		return printsize.ParseCommand(cfg.PrinterCommand)
	}
	return &printsize.FilePrinter{Dir: cfg.OutputDir}, nil
}

// NewSurface returns an empty print surface of the given output kind.
func NewSurface(output string) printsize.Surface {
	if output == config.OutputHTML {
		return printsize.NewHTMLSurface()
	}
	return printsize.NewPDFSurface()
}

func (h *Host) validate(req labelapi.Request) error {
	switch {
	case h.cfg.APIBaseURL == "":
		return &ConfigError{Field: "apiBaseUrl", Message: "apiBaseUrl is missing in config."}
	case h.cfg.Username == "" || h.cfg.Password == "":
		return &ConfigError{Field: "username", Message: "username/password missing in config."}
	case req.LabelName == "":
		return &ConfigError{Field: "label_name", Message: "label_name is required."}
	case req.Amount < 1:
		return &ConfigError{Field: "amount", Message: "amount must be at least 1."}
	}
	return nil
}

// PrintLabel runs one print attempt. A failure is logged and
// notified once, then returned.
func (h *Host) PrintLabel(ctx context.Context, req labelapi.Request) error {
	err := h.printLabel(ctx, req)
	if err != nil {
		h.log.Error("label print failed", zap.String("label", req.LabelName), zap.Error(err))
		h.notifier.Notify(err)
	}
	return err
}

func (h *Host) printLabel(ctx context.Context, req labelapi.Request) error {
	if err := h.validate(req); err != nil {
		return err
	}

	markups, err := h.fetcher.Fetch(ctx, req)
	if err != nil {
		return err
	}

	rc := bridge.Open(h.entry)
	defer rc.Close()
	select {
	case <-rc.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	return rc.Send(ctx, markups[0])
}

// RenderAndPrint renders `m` and prints it on a new surface.
func (h *Host) RenderAndPrint(ctx context.Context, m *markup.Markup) error {
	res, err := h.renderer.Render(ctx, m)
	if err != nil {
		return fmt.Errorf("rendering label: %w", err)
	}

	sizer := printsize.NewSizer(NewSurface(h.cfg.PrintOutput),
		printsize.WithSettleDelay(h.cfg.SettleDelay),
		printsize.WithLogger(h.log),
	)
	defer sizer.Close()
	if _, err := sizer.ApplyPageRule(res.Width, res.Height); err != nil {
		return err
	}
	if err := sizer.Print(ctx, res.Image, h.printer); err != nil {
		return fmt.Errorf("printing label: %w", err)
	}
	h.log.Info("label printed", zap.Float64("width", res.Width), zap.Float64("height", res.Height))
	return nil
}
