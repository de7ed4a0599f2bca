package event_bus

// Input activity observed by the view layer. Payload is ignored.
const (
	InputPointerMoved EventType = "input.pointer_moved"
	InputKeyPressed   EventType = "input.key_pressed"
)

// Session transitions published by the lifecycle controller with a
// SessionChange payload.
const (
	SessionLoggedIn  EventType = "session.logged_in"
	SessionLoggedOut EventType = "session.logged_out"
	SessionExpired   EventType = "session.expired"
)

type LogoutReason string

const (
	ReasonNone         LogoutReason = ""
	ReasonExplicit     LogoutReason = "explicit"
	ReasonIdleTimeout  LogoutReason = "idle_timeout"
	ReasonUnauthorized LogoutReason = "unauthorized"
	ReasonStartup      LogoutReason = "startup"
)

type SessionChange struct {
	Reason LogoutReason
	// Notice is the user-visible text for the change; empty when nothing
	// should be shown.
	Notice string
}

// ActivityEvents lists every event type that counts as user activity.
var ActivityEvents = []EventType{InputPointerMoved, InputKeyPressed}
