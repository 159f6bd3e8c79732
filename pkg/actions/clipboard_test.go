package actions

import (
	"errors"
	"os/exec"
	"runtime"
	"testing"
)

func stubCopy(t *testing.T, installed ...string) *[]string {
	t.Helper()
	if runtime.GOOS == "darwin" {
		t.Skip("pbcopy is always used on macOS")
	}
	origLook, origRun := lookPath, runCopier
	t.Cleanup(func() { lookPath, runCopier = origLook, origRun })

	lookPath = func(file string) (string, error) {
		for _, name := range installed {
			if name == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", exec.ErrNotFound
	}
	var got []string
	runCopier = func(c copier, text string) error {
		got = append(append([]string{c.name}, c.args...), text)
		return nil
	}
	return &got
}

func TestCopyPathPrefersXclipOverXsel(t *testing.T) {
	got := stubCopy(t, "xclip", "xsel")

	if err := CopyPath("/tmp/test-report-Alpha.pdf"); err != nil {
		t.Fatalf("CopyPath: %v", err)
	}
	want := []string{"xclip", "-selection", "clipboard", "/tmp/test-report-Alpha.pdf"}
	if len(*got) != len(want) {
		t.Fatalf("ran %v, want %v", *got, want)
	}
	for i := range want {
		if (*got)[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, (*got)[i], want[i])
		}
	}
}

func TestCopyPathMakesAbsolute(t *testing.T) {
	got := stubCopy(t, "wl-copy")
	t.Chdir(t.TempDir())

	if err := CopyPath("test-report-report.pdf"); err != nil {
		t.Fatalf("CopyPath: %v", err)
	}
	text := (*got)[len(*got)-1]
	if text == "test-report-report.pdf" || text[0] != '/' {
		t.Errorf("copied %q, want an absolute path", text)
	}
}

func TestCopyPathWithoutTool(t *testing.T) {
	stubCopy(t)
	if err := CopyPath("/tmp/x.pdf"); !errors.Is(err, ErrNoClipboard) {
		t.Errorf("expected ErrNoClipboard, got %v", err)
	}
}

func TestCopyPathToolFails(t *testing.T) {
	stubCopy(t, "xsel")
	runCopier = func(copier, string) error { return errors.New("exit status 1") }
	if err := CopyPath("/tmp/x.pdf"); err == nil {
		t.Error("expected error from failing tool")
	}
}
