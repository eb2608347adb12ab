package session

// State is the session manager's last known authentication state.
type State int

const (
	// StateLoggedOut means no confirmed session exists.
	StateLoggedOut State = iota
	// StateLoggedIn means the last confirmation is still fresh.
	StateLoggedIn
	// StateVerifying is the transient state while a validity or refresh
	// call is in flight.
	StateVerifying
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateLoggedIn:
		return "logged_in"
	case StateVerifying:
		return "verifying"
	}
	return "unknown"
}
