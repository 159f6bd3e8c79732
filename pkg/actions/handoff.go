// Package actions hands saved reports off to system apps: the PDF viewer,
// the browser, and the clipboard.
package actions

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/jcadam/verdict/pkg/config"
)

// startCommand starts name with args without waiting; replaced in tests.
var startCommand = func(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Don't wait; system apps are fire-and-forget
	go cmd.Wait() //nolint:errcheck
	return nil
}

// Handoff manages system app handoff for opening saved reports.
type Handoff struct {
	apps config.AppsConfig
}

// NewHandoff creates a Handoff with the given app configuration.
func NewHandoff(apps config.AppsConfig) *Handoff {
	return &Handoff{apps: apps}
}

// OpenPDF opens a PDF in the configured viewer.
func (h *Handoff) OpenPDF(path string) error {
	return h.open(h.apps.PDF, path)
}

// OpenURL opens a URL or HTML file in the configured browser.
func (h *Handoff) OpenURL(target string) error {
	return h.open(h.apps.Browser, target)
}

// open launches the given target with the configured app or system default.
func (h *Handoff) open(app, target string) error {
	if app == "" || app == "default" {
		app = systemOpener()
	}
	if err := startCommand(app, target); err != nil {
		return fmt.Errorf("opening %q with %s: %w", target, app, err)
	}
	return nil
}

// systemOpener returns the platform default application opener.
func systemOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}
