package actions

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNoClipboard is returned when no clipboard tool is installed.
var ErrNoClipboard = errors.New("no clipboard tool found: install wl-copy, xclip or xsel")

type copier struct {
	name string
	args []string
}

// Wayland before X11; pbcopy is always present on macOS.
var copiers = []copier{
	{"wl-copy", nil},
	{"xclip", []string{"-selection", "clipboard"}},
	{"xsel", []string{"--clipboard", "--input"}},
}

var lookPath = exec.LookPath

// runCopier feeds text to the copier on stdin; replaced in tests.
var runCopier = func(c copier, text string) error {
	cmd := exec.Command(c.name, c.args...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// CopyPath puts the absolute form of a saved report's path on the clipboard.
func CopyPath(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c, err := findCopier()
	if err != nil {
		return err
	}
	if err := runCopier(c, path); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

func findCopier() (copier, error) {
	if runtime.GOOS == "darwin" {
		return copier{name: "pbcopy"}, nil
	}
	for _, c := range copiers {
		if _, err := lookPath(c.name); err == nil {
			return c, nil
		}
	}
	return copier{}, ErrNoClipboard
}
