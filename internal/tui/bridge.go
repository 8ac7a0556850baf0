package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/pacstudy/internal/session"
)

const keyBuffer = 64

type screenMsg session.Screen

// Bridge carries keys from the Bubble Tea program to a session runner and
// screens back. It implements session.Frontend.
type Bridge struct {
	keys chan session.Key

	mu      sync.Mutex
	program *tea.Program
}

// NewBridge returns an unattached bridge.
func NewBridge() *Bridge {
	return &Bridge{keys: make(chan session.Key, keyBuffer)}
}

// Attach sets the program that receives screens.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = p
}

// Keys implements session.Input.
func (b *Bridge) Keys() <-chan session.Key { return b.keys }

// Present implements session.Frontend. It is a no-op before Attach and
// returns immediately once the program has exited.
func (b *Bridge) Present(s session.Screen) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Send(screenMsg(s))
	}
}

// push queues a key, dropping it when the runner is not keeping up.
func (b *Bridge) push(k session.Key) {
	select {
	case b.keys <- k:
	default:
	}
}
