package host

import (
	"io"
	"os"

	"github.com/fatih/color"
)

// Notifier surfaces fatal errors to the end user.
type Notifier interface {
	Notify(err error)
}

// ConsoleNotifier prints errors as red lines.
type ConsoleNotifier struct {
	Out io.Writer
}

func (cn ConsoleNotifier) Notify(err error) {
	out := cn.Out
	if out == nil {
		out = os.Stderr
	}
	color.New(color.FgRed, color.Bold).Fprintln(out, err.Error())
}
