package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerQueuesBehindCurrent(t *testing.T) {
	m := NewManager()
	a := New("first", nil, Option{Key: 'y', Label: "Yes"})
	b := Notice("second")

	assert.True(t, m.Show(a))
	assert.False(t, m.Show(b))
	assert.Equal(t, 1, m.Pending())

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, a.ID, cur.ID)

	opt, ok := m.Answer('y')
	require.True(t, ok)
	assert.Equal(t, "Yes", opt.Label)

	cur, ok = m.Current()
	require.True(t, ok)
	assert.Equal(t, b.ID, cur.ID)
}

func TestManagerAnswerUnknownKey(t *testing.T) {
	m := NewManager()
	d := New("pick", nil, Option{Key: 'a', Label: "A"})
	m.Show(d)

	_, ok := m.Answer('z')
	assert.False(t, ok)
	_, open := m.Current()
	assert.True(t, open, "unknown key keeps the dialog open")

	_, ok = m.Answer(0x1b)
	assert.False(t, ok)
	_, open = m.Current()
	assert.False(t, open, "escape closes a dialog without an escape option")
}

func TestManagerDismiss(t *testing.T) {
	m := NewManager()
	a, b := Notice("a"), Notice("b")
	m.Show(a)
	m.Show(b)

	assert.True(t, m.Dismiss(b.ID))
	assert.Equal(t, 0, m.Pending())
	assert.True(t, m.Dismiss(a.ID))
	_, open := m.Current()
	assert.False(t, open)
	assert.False(t, m.Dismiss("missing"))
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
