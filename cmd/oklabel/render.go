package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/benoitkugler/oklabel/host"
	"github.com/benoitkugler/oklabel/imgload"
	"github.com/benoitkugler/oklabel/markup"
	"github.com/benoitkugler/oklabel/printsize"
	"github.com/benoitkugler/oklabel/render"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	pb "gopkg.in/cheggaaa/pb.v1"
)

var (
	outDir   string
	format   string
	workers  int
	progress bool
	assets   string
)

func init() {
	RootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	renderCmd.Flags().VarP(newFormatValue("png", &format, "png", "pdf", "html"), "format", "f", "output format: png, pdf or html")
	renderCmd.Flags().IntVarP(&workers, "workers", "w", runtime.GOMAXPROCS(-1), "number of documents rendered concurrently")
	renderCmd.Flags().BoolVarP(&progress, "progress", "p", true, "show a progress bar")
	renderCmd.Flags().StringVarP(&assets, "assets", "a", ".", "directory local image sources are read from (empty to disable)")
}

var renderCmd = &cobra.Command{
	Use:   "render <markup file>...",
	Short: "Render markup documents to files",
	Long: `Render markup documents to PNG rasters, or to PDF or HTML print
documents whose page is the size of the label. A markup file holds one
document, or an array of documents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		var (
			docs  []*markup.Markup
			names []string
		)
		for _, file := range args {
			ms, err := readMarkups(file)
			if err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			for i, m := range ms {
				docs = append(docs, m)
				if len(ms) == 1 {
					names = append(names, base)
				} else {
					names = append(names, fmt.Sprintf("%s-%d", base, i+1))
				}
			}
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}

		var images []imgload.Option
		if assets != "" {
			images = append(images, imgload.WithLocalFiles(assets))
		}
		renderer, err := host.NewRenderer(cfg, log, images...)
		if err != nil {
			return err
		}

		var bar *pb.ProgressBar
		if progress {
			bar = pb.New(len(docs)).SetWidth(80)
			bar.Output = os.Stderr
			bar.Start()
		}

		var written int64
		err = renderer.RenderAll(context.Background(), docs, workers, func(index int, res *render.Result) error {
			n, err := writeResult(filepath.Join(outDir, names[index]), res)
			if err != nil {
				return err
			}
			atomic.AddInt64(&written, n)
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
		if bar != nil {
			bar.NotPrint = true
			bar.Finish()
			fmt.Fprint(os.Stderr, "\033[2K\r") // clear status bar
		}
		if err != nil {
			return err
		}
		log.Info("labels rendered",
			zap.Int("documents", len(docs)),
			zap.String("written", humanize.Bytes(uint64(written))))
		return nil
	},
}

// readMarkups reads one document or an array of documents.
func readMarkups(file string) ([]*markup.Markup, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var out []*markup.Markup
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("%s: invalid markup: %w", file, err)
		}
		for i, m := range out {
			if m == nil {
				return nil, fmt.Errorf("%s: document %d is null", file, i+1)
			}
		}
		return out, nil
	}
	m, err := markup.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return []*markup.Markup{m}, nil
}

func writeResult(base string, res *render.Result) (int64, error) {
	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, res.Image); err != nil {
			return 0, err
		}
	} else {
		surface := host.NewSurface(format)
		handle := printsize.Acquire(surface, printsize.NewRule(res.Width, res.Height))
		defer handle.Retire()
		if err := surface.Place(res.Image); err != nil {
			return 0, err
		}
		if _, err := surface.WriteTo(&buf); err != nil {
			return 0, err
		}
	}
	err := os.WriteFile(base+"."+format, buf.Bytes(), 0o644)
	return int64(buf.Len()), err
}
