package terminal

import "testing"

func TestKeyFunction(t *testing.T) {
	tests := []struct {
		key  Key
		want int
	}{
		{KeyF1, 1},
		{KeyF6, 6},
		{KeyF12, 12},
		{KeyInsert, 0},
		{KeyRune, 0},
	}
	for _, tt := range tests {
		if got := tt.key.Function(); got != tt.want {
			t.Errorf("%v.Function() = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestKeyString(t *testing.T) {
	tests := map[Key]string{
		KeyEnter:  "enter",
		KeyPageUp: "pgup",
		KeyF5:     "f5",
		KeyF12:    "f12",
		Key(99):   "key(99)",
	}
	for key, want := range tests {
		if got := key.String(); got != want {
			t.Errorf("Key(%d).String() = %q, want %q", int(key), got, want)
		}
	}
}

func TestKeyEventModifiers(t *testing.T) {
	ctrlF := KeyEvent{Key: KeyRune, Rune: 'f', Ctrl: true}
	if !ctrlF.Chord('f') {
		t.Error("Ctrl-F should match chord f")
	}
	if ctrlF.Chord('g') || ctrlF.Plain() {
		t.Error("Ctrl-F matched the wrong chord or looked plain")
	}
	if (KeyEvent{Key: KeyRune, Rune: 'f', Ctrl: true, Alt: true}).Chord('f') {
		t.Error("Ctrl-Alt-F is not the Ctrl-F chord")
	}
	if !(KeyEvent{Key: KeyF2}).Plain() {
		t.Error("bare F2 should be plain")
	}
}

func TestEventInterface(t *testing.T) {
	events := []Event{
		KeyEvent{Key: KeyRune, Rune: 'x', Ctrl: true},
		ResizeEvent{Width: 80, Height: 24},
		MouseEvent{X: 1, Y: 2, Button: MouseLeft, Action: MouseRelease},
		PasteEvent{Text: "hjkl"},
		WakeEvent{},
	}
	if len(events) != 5 {
		t.Fatal("unexpected event count")
	}
}
