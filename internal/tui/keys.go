package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/session"
)

type keyMap struct {
	Up      key.Binding
	Right   key.Binding
	Left    key.Binding
	Down    key.Binding
	Noop    key.Binding
	Pause   key.Binding
	Confirm key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "w"), key.WithHelp("↑", "up")),
		Right:   key.NewBinding(key.WithKeys("right", "d"), key.WithHelp("→", "right")),
		Left:    key.NewBinding(key.WithKeys("left", "a"), key.WithHelp("←", "left")),
		Down:    key.NewBinding(key.WithKeys("down", "s"), key.WithHelp("↓", "down")),
		Noop:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "noop")),
		Pause:   key.NewBinding(key.WithKeys("p", "P"), key.WithHelp("p", "pause")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// translate maps a terminal key to a session key.
func (k keyMap) translate(msg tea.KeyMsg) session.Key {
	if msg.Type == tea.KeySpace {
		return session.KeySpace
	}
	switch {
	case key.Matches(msg, k.Quit):
		return session.KeyQuit
	case key.Matches(msg, k.Up):
		return session.KeyUp
	case key.Matches(msg, k.Right):
		return session.KeyRight
	case key.Matches(msg, k.Left):
		return session.KeyLeft
	case key.Matches(msg, k.Down):
		return session.KeyDown
	case key.Matches(msg, k.Noop):
		return session.KeySpace
	case key.Matches(msg, k.Pause):
		return session.KeyPause
	case key.Matches(msg, k.Confirm):
		return session.KeyEnter
	case key.Matches(msg, k.Back):
		return session.KeyEscape
	}
	return session.KeyOther
}

// bindingsFor lists the keys that do something on a screen.
func (k keyMap) bindingsFor(s session.Screen) []key.Binding {
	switch s.Kind {
	case session.ScreenPlay:
		if s.Session == model.KindHuman {
			return []key.Binding{k.Up, k.Right, k.Left, k.Down, k.Pause, k.Quit}
		}
		return []key.Binding{k.Pause, k.Quit}
	case session.ScreenPaused:
		return []key.Binding{k.Pause, k.Back}
	case session.ScreenAdvice:
		return []key.Binding{k.Up, k.Right, k.Left, k.Down, k.Noop, k.Back}
	case session.ScreenModeSwitch:
		return []key.Binding{k.Noop, k.Confirm, k.Back}
	}
	return []key.Binding{k.Quit}
}
