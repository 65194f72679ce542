package output

import (
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SupportsColors checks the environment for color preferences.
func SupportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// Recent Windows terminals all understand ANSI
	if runtime.GOOS == "windows" {
		return true
	}

	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// NoColor decides whether output written to w should be plain. An explicit
// request for no color always wins.
func NoColor(w io.Writer, requested bool) bool {
	if requested {
		return true
	}
	return !(IsTerminal(w) && SupportsColors())
}
