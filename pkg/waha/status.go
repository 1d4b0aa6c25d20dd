package waha

import "strings"

// SessionState is the internal session status enum. The gateway's own
// vocabulary has drifted across versions (WORKING vs RUNNING, SCAN_QR vs
// SCAN_QR_CODE); every upstream variant funnels through MapState so drift
// only ever touches this file.
type SessionState string

const (
	StateConnected    SessionState = "CONNECTED"
	StateStarting     SessionState = "STARTING"
	StateFailed       SessionState = "FAILED"
	StateNotFound     SessionState = "NOT_FOUND"
	StateDisconnected SessionState = "DISCONNECTED"
)

// MapState normalizes a raw gateway run-state. A running session without an
// authenticated identity is still pairing, so it maps to STARTING rather
// than CONNECTED.
func MapState(raw string, hasIdentity bool) SessionState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "RUNNING", "WORKING":
		if hasIdentity {
			return StateConnected
		}
		return StateStarting
	case "SCAN_QR", "SCAN_QR_CODE", "STARTING":
		return StateStarting
	case "FAILED":
		return StateFailed
	case "NOT_FOUND":
		return StateNotFound
	default:
		return StateDisconnected
	}
}
