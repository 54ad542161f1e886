// Package launcher opens work links in the user's browser.
package launcher

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/ficroll/internal/config"
	"github.com/pders01/ficroll/internal/validation"
)

type Launcher struct {
	opener    string
	goos      string
	validator *validation.URLValidator
	start     func(cmd *exec.Cmd) error
}

// New picks the first opener from the platform list found on PATH, or the
// configured default when none is installed.
func New(cfg config.LauncherConfig) *Launcher {
	return newForOS(cfg, runtime.GOOS)
}

func newForOS(cfg config.LauncherConfig, goos string) *Launcher {
	var candidates []string
	switch goos {
	case "darwin":
		candidates = cfg.Darwin
	case "linux":
		candidates = cfg.Linux
	case "windows":
		candidates = cfg.Windows
	default:
		candidates = cfg.Linux
	}

	opener := findCommand(candidates...)
	if opener == "" {
		opener = cfg.DefaultOpener
	}

	return &Launcher{
		opener:    opener,
		goos:      goos,
		validator: validation.NewLinkValidator(),
		start:     startDetached,
	}
}

// Opener reports the command used to open links.
func (l *Launcher) Opener() string { return l.opener }

// Open validates url and hands it to the opener without waiting for it.
func (l *Launcher) Open(url string) error {
	link, err := l.validator.Validate(url)
	if err != nil {
		return fmt.Errorf("refusing to open link: %w", err)
	}
	if l.opener == "" {
		return fmt.Errorf("no application found to open URL")
	}

	cmd := l.command(link)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	return nil
}

func (l *Launcher) command(link string) *exec.Cmd {
	// start is a cmd.exe builtin; the empty argument is the window title
	if l.goos == "windows" && l.opener == "start" {
		return exec.Command("cmd", "/c", "start", "", link)
	}
	return exec.Command(l.opener, link)
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
