package session

import "github.com/verte-zerg/pacstudy/internal/model"

// Key is an input event as seen by the play loop.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyRight
	KeyLeft
	KeyDown
	KeySpace
	KeyEnter
	KeyPause
	KeyEscape
	// KeyQuit is a window close or interrupt; it ends the session from any state.
	KeyQuit
	KeyOther
)

// ActionForKey maps a key to its action id. Space is NOOP.
func ActionForKey(k Key) (int, bool) {
	switch k {
	case KeyUp:
		return model.ActionUp, true
	case KeyRight:
		return model.ActionRight, true
	case KeyLeft:
		return model.ActionLeft, true
	case KeyDown:
		return model.ActionDown, true
	case KeySpace:
		return model.ActionNoop, true
	}
	return 0, false
}

// Input is a source of key events.
type Input interface {
	Keys() <-chan Key
}
