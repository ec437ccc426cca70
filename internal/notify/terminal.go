package notify

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgBlue, color.Bold)
	spinnerColor = color.New(color.FgHiBlack)
)

// TerminalRenderer writes toasts and the loading line to a terminal.
// Removal is not drawn: printed lines cannot be taken back.
type TerminalRenderer struct {
	out io.Writer
}

// NewTerminalRenderer renders to out
func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{out: out}
}

func label(s Severity) string {
	switch s {
	case SeveritySuccess:
		return successColor.Sprint("[ok]")
	case SeverityError:
		return errorColor.Sprint("[error]")
	case SeverityWarning:
		return warningColor.Sprint("[warn]")
	default:
		return infoColor.Sprint("[info]")
	}
}

func (r *TerminalRenderer) ToastShown(t Toast) {
	fmt.Fprintf(r.out, "%s %s\n", label(t.Severity), t.Message)
}

func (r *TerminalRenderer) ToastRemoved(Toast) {}

func (r *TerminalRenderer) SpinnerShown(string) {
	fmt.Fprintln(r.out, spinnerColor.Sprint("Loading..."))
}

func (r *TerminalRenderer) SpinnerHidden(string) {}
