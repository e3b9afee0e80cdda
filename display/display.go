// Package display emits operator-facing text through the boot splash
// endpoint when one is running, with an enforced plain-text fallback to
// the console. It also implements the interactive passphrase prompt.
package display

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cryptboot/bootunlock/interfaces"
	"github.com/fatih/color"
	"go.uber.org/atomic"
)

const splashCommand = "plymouth"

// Splash implements interfaces.Display. Availability of the splash
// endpoint is probed once, on first use, and latched.
type Splash struct {
	runner interfaces.Runner
	out    io.Writer
	log    *slog.Logger

	probed    atomic.Bool
	available atomic.Bool
}

// NewSplash returns a display writing fallback text to out.
func NewSplash(runner interfaces.Runner, out io.Writer, log *slog.Logger) *Splash {
	return &Splash{runner: runner, out: out, log: log}
}

// Available reports whether the splash endpoint answers, probing it on the
// first call.
func (s *Splash) Available() bool {
	if s.probed.CompareAndSwap(false, true) {
		err := s.runner.Run(splashCommand, "--ping")
		s.available.Store(err == nil)
		if err != nil {
			s.log.Debug("splash endpoint not available, using plain text", "err", err)
		}
	}
	return s.available.Load()
}

// Message shows an informational status line.
func (s *Splash) Message(text string) {
	if s.Available() {
		if err := s.runner.Run(splashCommand, "display-message", "--text="+text); err == nil {
			return
		}
		s.available.Store(false)
	}
	fmt.Fprintln(s.out, text)
}

// Failure shows a failure diagnostic. The console copy is emphasized; the
// splash copy is best-effort.
func (s *Splash) Failure(text string) {
	if s.Available() {
		if err := s.runner.Run(splashCommand, "display-message", "--text="+text); err != nil {
			s.available.Store(false)
		}
	}
	color.New(color.FgRed, color.Bold).Fprintln(s.out, text)
}

// PassphrasePrompter implements interfaces.Prompter. It asks through the
// splash endpoint when available and falls back to a plain stdin read. It
// blocks indefinitely; the boot environment has no timeout source.
type PassphrasePrompter struct {
	splash *Splash
	in     *bufio.Reader
	out    io.Writer
}

// NewPassphrasePrompter returns a prompter reading fallback input from in.
func NewPassphrasePrompter(splash *Splash, in io.Reader, out io.Writer) *PassphrasePrompter {
	return &PassphrasePrompter{splash: splash, in: bufio.NewReader(in), out: out}
}

// ReadPassphrase asks the operator for a passphrase.
func (p *PassphrasePrompter) ReadPassphrase(prompt string) (string, error) {
	if p.splash != nil && p.splash.Available() {
		out, err := p.splash.runner.Output(splashCommand, "ask-password", "--prompt="+prompt)
		if err == nil {
			return strings.TrimRight(string(out), "\r\n"), nil
		}
		p.splash.log.Debug("splash passphrase prompt failed, falling back to console", "err", err)
	}

	fmt.Fprintf(p.out, "%s: ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("could not read passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
