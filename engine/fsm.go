package engine

import (
	"github.com/looplab/fsm"
)

const (
	StateIdle     = "IDLE"
	StateRunning  = "RUNNING"
	StateStopping = "STOPPING"
	StateStopped  = "STOPPED"

	eventStart   = "START"
	eventStop    = "STOP"
	eventStopped = "FINISH"
)

// newLifecycle returns the engine lifecycle: IDLE -> RUNNING -> STOPPING -> STOPPED.
// An engine that was never started may be stopped directly.
func newLifecycle(callbacks fsm.Callbacks) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{StateIdle}, Dst: StateRunning},
			{Name: eventStop, Src: []string{StateIdle, StateRunning}, Dst: StateStopping},
			{Name: eventStopped, Src: []string{StateStopping}, Dst: StateStopped},
		},
		callbacks,
	)
}
