package mokmanager

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	isatty "github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var ansiColor = map[Color]string{
	ColorWhite:  "\x1b[37m",
	ColorYellow: "\x1b[33m",
	ColorRed:    "\x1b[31m",
}

// TermConsole implements Console against a real terminal using
// golang.org/x/term for raw-mode, no-echo reads and
// github.com/mattn/go-isatty to decide whether ANSI colour codes are safe
// to emit. It is the host-backed stand-in for the firmware console the
// rest of this package is modeled on.
type TermConsole struct {
	in          *os.File
	out         *os.File
	reader      *bufio.Reader
	raw         *term.State
	colorSafe   bool
	deadlinable bool
}

// NewTermConsole wraps in/out as a Console. If in is a real terminal, it is
// switched to raw mode for the lifetime of the returned TermConsole;
// callers must call Close to restore it.
func NewTermConsole(in, out *os.File) (*TermConsole, error) {
	tc := &TermConsole{in: in, out: out, reader: bufio.NewReader(in)}
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		state, err := term.MakeRaw(int(in.Fd()))
		if err != nil {
			return nil, fmt.Errorf("enter raw terminal mode: %w", err)
		}
		tc.raw = state
		tc.deadlinable = true
	}
	tc.colorSafe = isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	return tc, nil
}

// Close restores the terminal's original mode, if it was changed.
func (tc *TermConsole) Close() error {
	if tc.raw == nil {
		return nil
	}
	return term.Restore(int(tc.in.Fd()), tc.raw)
}

// Printf implements Console.
func (tc *TermConsole) Printf(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	// Raw mode suppresses the terminal's own CR injection, so every LF
	// needs an explicit CR alongside it or output staircases.
	s = strings.ReplaceAll(s, "\n", "\r\n")
	fmt.Fprint(tc.out, s)
}

// SetColor implements Console.
func (tc *TermConsole) SetColor(c Color) {
	if !tc.colorSafe {
		return
	}
	if code, ok := ansiColor[c]; ok {
		fmt.Fprint(tc.out, code)
	}
}

// ResetColor implements Console.
func (tc *TermConsole) ResetColor() {
	if !tc.colorSafe {
		return
	}
	fmt.Fprint(tc.out, "\x1b[0m")
}

// Pause implements Console.
func (tc *TermConsole) Pause(prompt string) {
	if prompt != "" {
		tc.Printf("%s", prompt)
	}
	_, _, _ = tc.ReadKey(0)
	tc.Printf("\n")
}

// ReadKey implements Console.
func (tc *TermConsole) ReadKey(timeout time.Duration) (Key, bool, error) {
	if timeout > 0 && tc.deadlinable {
		if err := tc.in.SetReadDeadline(time.Now().Add(timeout)); err == nil {
			defer tc.in.SetReadDeadline(time.Time{})
			return tc.readKey(true)
		}
	}
	return tc.readKey(false)
}

func (tc *TermConsole) readKey(deadlineActive bool) (Key, bool, error) {
	r, _, err := tc.reader.ReadRune()
	if err != nil {
		if deadlineActive && errors.Is(err, os.ErrDeadlineExceeded) {
			return Key{}, false, nil
		}
		return Key{}, false, err
	}
	switch r {
	case '\r', '\n':
		return Key{Code: KeyEnter}, true, nil
	case 0x7f, 0x08:
		return Key{Code: KeyBackspace}, true, nil
	case 0x1b:
		return tc.readEscapeSequence()
	default:
		return Key{Code: KeyRune, Rune: r}, true, nil
	}
}

func (tc *TermConsole) readEscapeSequence() (Key, bool, error) {
	r2, _, err := tc.reader.ReadRune()
	if err != nil || r2 != '[' {
		return Key{Code: KeyOther}, true, nil
	}
	r3, _, err := tc.reader.ReadRune()
	if err != nil {
		return Key{Code: KeyOther}, true, nil
	}
	switch r3 {
	case 'A':
		return Key{Code: KeyUp}, true, nil
	case 'B':
		return Key{Code: KeyDown}, true, nil
	default:
		return Key{Code: KeyOther}, true, nil
	}
}

// ReadPassword implements Console. Nothing is echoed.
func (tc *TermConsole) ReadPassword(maxCodeUnits int) ([]uint16, error) {
	var units []uint16
	for {
		key, _, err := tc.ReadKey(0)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		switch key.Code {
		case KeyEnter:
			return units, nil
		case KeyBackspace:
			if len(units) > 0 {
				units = units[:len(units)-1]
			}
		case KeyRune:
			if enc := utf16.Encode([]rune{key.Rune}); len(units)+len(enc) <= maxCodeUnits {
				units = append(units, enc...)
			}
		}
	}
}

// ReadNumber implements Console, echoing digits as they are typed.
func (tc *TermConsole) ReadNumber() (int, bool, error) {
	var digits []rune
	for {
		key, _, err := tc.ReadKey(0)
		if err != nil {
			return 0, false, fmt.Errorf("read number: %w", err)
		}
		switch key.Code {
		case KeyEnter:
			if len(digits) == 0 {
				return 0, false, nil
			}
			n, err := strconv.Atoi(string(digits))
			if err != nil {
				return 0, false, nil
			}
			return n, true, nil
		case KeyBackspace:
			if len(digits) > 0 {
				digits = digits[:len(digits)-1]
				tc.Printf("\b \b")
			}
		case KeyRune:
			if key.Rune >= '0' && key.Rune <= '9' && len(digits) < 10 {
				digits = append(digits, key.Rune)
				tc.Printf("%c", key.Rune)
			}
		}
	}
}

// ReadYesNo implements Console.
func (tc *TermConsole) ReadYesNo() (bool, error) {
	for {
		key, _, err := tc.ReadKey(0)
		if err != nil {
			return false, fmt.Errorf("read y/n: %w", err)
		}
		if key.Code != KeyRune {
			continue
		}
		switch key.Rune {
		case 'y', 'Y':
			return true, nil
		case 'n', 'N':
			return false, nil
		}
	}
}
