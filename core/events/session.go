package events

const (
	// KindSessionStateChanged identifies a session lifecycle transition.
	KindSessionStateChanged Kind = "session.state_changed"
	// KindGreetingRequested identifies the opening greeting request.
	KindGreetingRequested Kind = "session.greeting_requested"
)

// SessionStateChanged carries a lifecycle transition.
type SessionStateChanged struct {
	Base
	From string
	To   string
}

// NewSessionStateChanged creates a session state changed event.
func NewSessionStateChanged(from, to string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), From: from, To: to}
}

// GreetingRequested carries the instructions the greeting was requested with.
type GreetingRequested struct {
	Base
	Instructions string
}

// NewGreetingRequested creates a greeting requested event.
func NewGreetingRequested(instructions string) GreetingRequested {
	return GreetingRequested{Base: NewBase(KindGreetingRequested), Instructions: instructions}
}
