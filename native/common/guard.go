package common

import "errors"

// ErrModulePaused is returned by Guard for a module the operator paused.
var ErrModulePaused = errors.New("module paused")

// PauseView reports which modules are paused. config.Pauses is the node's
// implementation.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard fails with ErrModulePaused when view has module paused. A nil view or
// an unnamed module is never paused.
func Guard(view PauseView, module string) error {
	switch {
	case view == nil, module == "":
		return nil
	case view.IsPaused(module):
		return ErrModulePaused
	default:
		return nil
	}
}
