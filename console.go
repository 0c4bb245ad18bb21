package mokmanager

import "time"

// Color is a foreground colour attribute a Console can set before writing a
// menu row: directories are drawn in yellow, files in white.
type Color int

const (
	ColorDefault Color = iota
	ColorWhite
	ColorYellow
	ColorRed
)

// KeyCode classifies a key event. The menu engine and number/password
// prompts only ever care about these few classes.
type KeyCode int

const (
	KeyRune KeyCode = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyBackspace
	KeyOther
)

// Key is a single keystroke delivered by a Console.
type Key struct {
	Code KeyCode
	Rune rune
}

// Console is the injected capability standing in for the firmware console:
// line-mode output with colour attributes, and key-by-key input with scan
// codes for cursor keys and Unicode code units for everything else. Every
// screen in this module is written against this interface so it can run
// against a real terminal (console_term.go) or a scripted fake in tests.
type Console interface {
	// Printf writes formatted text to the console, no trailing newline
	// implied.
	Printf(format string, args ...any)

	// SetColor sets the foreground colour used by subsequent Printf
	// calls, until the next SetColor or ResetColor.
	SetColor(c Color)

	// ResetColor restores the console's default colour.
	ResetColor()

	// Pause prints prompt (if non-empty) and blocks for any single
	// keystroke, mirroring the firmware Pause() primitive called after a
	// diagnostic the operator must acknowledge.
	Pause(prompt string)

	// ReadKey blocks for a single keystroke, or until timeout elapses if
	// timeout > 0. ok is false only when the wait timed out; err is
	// non-nil only on a genuine I/O failure.
	ReadKey(timeout time.Duration) (key Key, ok bool, err error)

	// ReadPassword reads up to maxCodeUnits UTF-16 code units with echo
	// suppressed, terminated by Enter, with backspace support.
	ReadPassword(maxCodeUnits int) ([]uint16, error)

	// ReadNumber echoes digits as they are typed, supports backspace, and
	// returns on Enter. ok is false if nothing was typed before Enter.
	ReadNumber() (value int, ok bool, err error)

	// ReadYesNo blocks until 'y', 'Y', 'n', or 'N' is pressed; every
	// other key is ignored.
	ReadYesNo() (yes bool, err error)
}
