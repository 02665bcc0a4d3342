package common

import "errors"

// ErrModulePaused is returned by Guard when governance has halted a module.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named native module is currently halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard is called at the top of every mutating engine operation. A nil view
// or empty module name disables the check.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
