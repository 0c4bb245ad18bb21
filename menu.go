package mokmanager

import "time"

// tickInterval is the wall-clock granularity of the top menu's countdown.
const tickInterval = time.Second

// MenuItem is one row of a Menu. A nil Action exits the menu immediately
// once activated — used for "Continue boot", "Exit", and ".." rows. A
// non-nil Action is invoked, its error (if any) is left for the action
// itself to have already surfaced to the operator via the console, and the
// menu redraws with the highlight back at the top.
type MenuItem struct {
	Label  string
	Color  Color
	Action func() error
}

// Menu is a small cursor-driven state machine: drawing, waiting, then
// selected, timed-out, or moved.
type Menu struct {
	console Console
	items   []MenuItem
}

// NewMenu builds a Menu over items, presented via console.
func NewMenu(console Console, items []MenuItem) *Menu {
	return &Menu{console: console, items: items}
}

// Run draws the menu and processes key input until an item with a nil
// Action is activated, or — only possible when timeout > 0 — the
// countdown expires with no key having been pressed yet. timedOut is true
// only in the latter case.
func (m *Menu) Run(timeout time.Duration) (timedOut bool, err error) {
	cursor := 0
	countdownActive := timeout > 0
	remaining := timeout

	for {
		m.draw(cursor)

		waitFor := time.Duration(0)
		if countdownActive {
			waitFor = tickInterval
		}
		key, ok, err := m.console.ReadKey(waitFor)
		if err != nil {
			return false, err
		}
		if !ok {
			if !countdownActive {
				continue
			}
			remaining -= tickInterval
			if remaining <= 0 {
				return true, nil
			}
			continue
		}

		// Any keystroke permanently disables the countdown.
		countdownActive = false

		switch key.Code {
		case KeyUp:
			if cursor > 0 {
				cursor--
			}
		case KeyDown:
			if cursor < len(m.items)-1 {
				cursor++
			}
		case KeyEnter:
			item := m.items[cursor]
			if item.Action == nil {
				return false, nil
			}
			// Errors are reported to the operator by the action itself
			// before it returns; the menu only needs to know to redraw.
			_ = item.Action()
			cursor = 0
		}
	}
}

func (m *Menu) draw(cursor int) {
	m.console.Printf("\n")
	for i, item := range m.items {
		marker := "  "
		if i == cursor {
			marker = "> "
		}
		m.console.SetColor(item.Color)
		m.console.Printf("%s%s\n", marker, item.Label)
		m.console.ResetColor()
	}
}
