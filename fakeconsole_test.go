package mokmanager

import (
	"fmt"
	"strings"
	"time"
)

// fakeConsole is a scripted Console for unit tests: passwords, numbers,
// and yes/no answers are consumed from queues in FIFO order, and all
// output is captured for assertions.
type fakeConsole struct {
	out        strings.Builder
	passwords  [][]uint16
	numbers    []fakeNumber
	yesno      []bool
	keys       []Key
	paused     int
	colorCalls []Color
}

type fakeNumber struct {
	value int
	ok    bool
}

func (f *fakeConsole) Printf(format string, args ...any) {
	fmt.Fprintf(&f.out, format, args...)
}

func (f *fakeConsole) SetColor(c Color) { f.colorCalls = append(f.colorCalls, c) }
func (f *fakeConsole) ResetColor()      {}
func (f *fakeConsole) Pause(prompt string) {
	f.paused++
	if prompt != "" {
		f.Printf("%s", prompt)
	}
}

func (f *fakeConsole) ReadKey(timeout time.Duration) (Key, bool, error) {
	if len(f.keys) == 0 {
		return Key{}, false, nil
	}
	k := f.keys[0]
	f.keys = f.keys[1:]
	return k, true, nil
}

func (f *fakeConsole) ReadPassword(maxCodeUnits int) ([]uint16, error) {
	if len(f.passwords) == 0 {
		return nil, fmt.Errorf("fakeConsole: no scripted password left")
	}
	p := f.passwords[0]
	f.passwords = f.passwords[1:]
	if len(p) > maxCodeUnits {
		p = p[:maxCodeUnits]
	}
	return p, nil
}

func (f *fakeConsole) ReadNumber() (int, bool, error) {
	if len(f.numbers) == 0 {
		return 0, false, fmt.Errorf("fakeConsole: no scripted number left")
	}
	n := f.numbers[0]
	f.numbers = f.numbers[1:]
	return n.value, n.ok, nil
}

func (f *fakeConsole) ReadYesNo() (bool, error) {
	if len(f.yesno) == 0 {
		return false, fmt.Errorf("fakeConsole: no scripted yes/no left")
	}
	v := f.yesno[0]
	f.yesno = f.yesno[1:]
	return v, nil
}

func utf16Units(s string) []uint16 {
	var out []uint16
	for _, r := range s {
		if r > 0xFFFF {
			continue
		}
		out = append(out, uint16(r))
	}
	return out
}
