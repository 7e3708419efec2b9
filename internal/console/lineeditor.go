package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const historySize = 500

// LineSource yields operator input one line at a time. io.EOF ends the session.
type LineSource interface {
	GetLine(prompt string) (string, error)
	Close()
}

// LineEditor uses readline with history on a terminal and a plain scanner
// otherwise (pipes, scripts, editors embedding a shell).
type LineEditor struct {
	rl *readline.Instance

	scanner *bufio.Scanner
	out     io.Writer
}

// NewLineEditor picks readline when in is a terminal.
func NewLineEditor(in *os.File, out io.Writer, historyPath string) *LineEditor {
	interactive := term.IsTerminal(int(in.Fd())) && os.Getenv("INSIDE_EMACS") == ""
	if !interactive {
		return NewScannerEditor(in, out)
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyPath,
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
		Prompt:                 "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: readline init failed (%v), using basic input\n", err)
		return NewScannerEditor(in, out)
	}
	return &LineEditor{rl: rl}
}

// NewScannerEditor reads lines from r and echoes prompts to out.
func NewScannerEditor(r io.Reader, out io.Writer) *LineEditor {
	return &LineEditor{scanner: bufio.NewScanner(r), out: out}
}

func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.rl != nil {
		return le.getInteractiveLine(prompt)
	}
	return le.getScannedLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getScannedLine(prompt string) (string, error) {
	fmt.Fprint(le.out, prompt)

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

func (le *LineEditor) IsInteractive() bool {
	return le.rl != nil
}
