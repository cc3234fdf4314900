package controller

import "errors"

var (
	// ErrTaskStillCurrent is returned when a task is started while another one is current.
	ErrTaskStillCurrent = errors.New("a task is still current")
	// ErrUnknownAction is returned for tasks naming an undeclared action.
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownObject is returned for task parameters naming no object or constant.
	ErrUnknownObject = errors.New("no object or constant with this name")
	// ErrNotRunning is returned by operations that need a started controller.
	ErrNotRunning = errors.New("controller is not running")
)
