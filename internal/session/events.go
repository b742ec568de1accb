package session

import (
	"fmt"
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Event topics published on the session bus.
const (
	// TopicState carries the new State: func(State).
	TopicState = "session:state"
	// TopicNavigate carries the route the front end should show: func(string).
	TopicNavigate = "session:navigate"
	// TopicWarning carries the time left on the access token when it is about to expire: func(time.Duration).
	TopicWarning = "session:warning"
)

// Routes sent on TopicNavigate.
const (
	RouteDashboard = "/dashboard"
	RouteLogin     = "/login"
)

// State is the session lifecycle state.
type State int

const (
	Unauthenticated State = iota
	Verifying
	Authenticated
	ExpiringSoon
	RefreshFailed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Verifying:
		return "verifying"
	case Authenticated:
		return "authenticated"
	case ExpiringSoon:
		return "expiring_soon"
	case RefreshFailed:
		return "refresh_failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Live reports whether a session in s may call the backend.
func (s State) Live() bool { return s == Authenticated || s == ExpiringSoon }

type event struct {
	topic string
	arg   any
}

func stateEvent(s State) event { return event{TopicState, s} }
func navigateEvent(route string) event { return event{TopicNavigate, route} }
func warningEvent(left time.Duration) event { return event{TopicWarning, left} }

func publish(bus evbus.Bus, evs []event) {
	if bus == nil {
		return
	}
	for _, e := range evs {
		bus.Publish(e.topic, e.arg)
	}
}
