package printsize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Printer consumes a printable document.
type Printer interface {
	Print(ctx context.Context, doc Document) error
}

// FilePrinter writes documents into a directory.
type FilePrinter struct {
	Dir string
	// Name is the base name of the file, without extension.
	// If empty, a timestamped name is used.
	Name string

	// Path is the file written by the last call to Print.
	Path string
}

func extension(mediaType string) string {
	switch {
	case strings.HasPrefix(mediaType, "application/pdf"):
		return ".pdf"
	case strings.HasPrefix(mediaType, "text/html"):
		return ".html"
	case strings.HasPrefix(mediaType, "image/png"):
		return ".png"
	default:
		return ".bin"
	}
}

func (fp *FilePrinter) Print(_ context.Context, doc Document) error {
	name := fp.Name
	if name == "" {
		name = "label-" + time.Now().Format("20060102-150405.000")
	}
	if err := os.MkdirAll(fp.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(fp.Dir, name+extension(doc.MediaType()))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fp.Path = path
	return nil
}

// CommandPrinter pipes documents into a spooler command, such as `lp -d NAME`.
type CommandPrinter struct {
	Command string
	Args    []string
}

// ParseCommand splits a command line on white spaces.
func ParseCommand(line string) (CommandPrinter, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandPrinter{}, fmt.Errorf("empty printer command")
	}
	return CommandPrinter{Command: fields[0], Args: fields[1:]}, nil
}

func (cp CommandPrinter) Print(ctx context.Context, doc Document) error {
	var in bytes.Buffer
	if _, err := doc.WriteTo(&in); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, cp.Command, cp.Args...)
	cmd.Stdin = &in
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w (%s)", cp.Command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
