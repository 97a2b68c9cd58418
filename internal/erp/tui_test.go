package erp

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/wms/internal/logger"
)

// crashingModel panics on the message or view it is told to.
type crashingModel struct {
	onUpdate bool
	onView   bool
}

func (c crashingModel) Init() tea.Cmd { return nil }

func (c crashingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if c.onUpdate {
		panic("nil map in update")
	}
	return c, nil
}

func (c crashingModel) View() string {
	if c.onView {
		panic("index out of range in view")
	}
	return "all good"
}

func newBoundary(inner tea.Model) (*boundary, *int) {
	resets := 0
	b := &boundary{
		inner: inner,
		reset: func() tea.Model {
			resets++
			return crashingModel{}
		},
		log: logger.Discard(),
	}
	return b, &resets
}

func TestBoundary(t *testing.T) {
	t.Run("Should show the recovery panel after a panic in update", func(t *testing.T) {
		b, _ := newBoundary(crashingModel{onUpdate: true})
		m, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, m)
		assert.Same(t, b, m)
		assert.Nil(t, cmd)
		assert.Contains(t, m.View(), "Something went wrong")
		assert.Contains(t, m.View(), "nil map in update")
	})

	t.Run("Should show the recovery panel after a panic in view", func(t *testing.T) {
		b, _ := newBoundary(crashingModel{onView: true})
		assert.Contains(t, b.View(), "index out of range in view")
		assert.Contains(t, b.View(), "Something went wrong")
	})

	t.Run("Should rebuild the model on r", func(t *testing.T) {
		b, resets := newBoundary(crashingModel{onUpdate: true})
		_, _ = b.Update(tea.KeyMsg{Type: tea.KeyEnter})

		_, _ = b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
		assert.Zero(t, *resets, "other keys are ignored while the panel is up")

		m, _ := b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
		assert.Equal(t, 1, *resets)
		assert.Equal(t, "all good", m.View())
	})

	t.Run("Should quit on q", func(t *testing.T) {
		b, _ := newBoundary(crashingModel{onUpdate: true})
		_, _ = b.Update(tea.KeyMsg{Type: tea.KeyEnter})
		_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}
