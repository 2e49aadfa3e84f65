package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdoc/internal/domain"
)

type fakeAsker struct {
	questions []string
	answer    string
	err       error
}

func (f *fakeAsker) Answer(_ context.Context, q string) (domain.Answer, error) {
	f.questions = append(f.questions, q)
	if f.err != nil {
		return domain.Answer{}, f.err
	}
	return domain.Answer{Text: f.answer}, nil
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func TestViewBeforeSize(t *testing.T) {
	m := New(context.Background(), &fakeAsker{}, "4 chunks")
	assert.Equal(t, "Loading...", m.View())
}

func TestEnterAsksAndRendersAnswer(t *testing.T) {
	asker := &fakeAsker{answer: "Drink water and rest."}
	m := sized(t, New(context.Background(), asker, "4 chunks"))
	m = typeText(m, "What helps with a mild headache?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, "What helps with a mild headache?", m.pending)
	assert.Empty(t, m.input.Value())

	msg := m.ask(m.pending)()
	next, _ = m.Update(msg)
	m = next.(Model)

	assert.Equal(t, []string{"What helps with a mild headache?"}, asker.questions)
	assert.Empty(t, m.pending)
	require.Len(t, m.turns, 1)
	assert.Contains(t, m.renderHistory(), "Drink water and rest.")
	assert.Contains(t, m.View(), "4 chunks")
}

func TestFailedAnswerIsShownAsUnableToAnswer(t *testing.T) {
	asker := &fakeAsker{err: fmt.Errorf("%w: 401", domain.ErrGenerationFailed)}
	m := sized(t, New(context.Background(), asker, ""))

	next, _ := m.Update(m.ask("capital of France?")())
	m = next.(Model)

	out := m.renderHistory()
	assert.Contains(t, out, "Unable to answer")
	assert.Contains(t, out, "generation failed")
	assert.Equal(t, "Unable to answer.", m.status)
}

func TestEnterIgnoredWhileBlankOrPending(t *testing.T) {
	asker := &fakeAsker{answer: "x"}
	m := sized(t, New(context.Background(), asker, ""))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	m.pending = "busy"
	m = typeText(m, "another")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestQuitKeys(t *testing.T) {
	m := New(context.Background(), &fakeAsker{}, "")
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: k})
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok)
	}
}

func TestEmptyHistory(t *testing.T) {
	m := sized(t, New(context.Background(), &fakeAsker{}, ""))
	assert.True(t, strings.Contains(m.View(), "No questions yet."))
}
