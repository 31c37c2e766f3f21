package wsclient

import "fmt"

// State is the lifecycle state of an EndpointClient
type State int32

const (
	// StateUnstarted is the state before the first Start
	StateUnstarted State = iota
	// StateConnecting is set while the first connect is in progress
	StateConnecting
	// StateConnected means a session is open
	StateConnected
	// StateReconnecting is set by the keep-alive loop after the session dropped
	StateReconnecting
	// StateClosing is set while Stop closes the session
	StateClosing
	// StateStopped is terminal after Stop
	StateStopped
	// StateFailed is terminal after the reconnect budget was exhausted
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosing:
		return "closing"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether no further connects will happen in this state
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}
