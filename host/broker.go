package host

import (
	"time"
)

type (
	// Broker is the centralized message channel pair between the driver and
	// whatever is hosting it (a CLI, a plugin shell, a physical control
	// surface). At the moment it is just two-way point-to-point
	// communication; we can consider richer routing later if needed.
	//
	// For closing goroutines, the broker has two channels: CloseUI and
	// FinishedUI. CloseUI has a capacity of 1, so you can always send an
	// empty message (struct{}{}) to it without blocking. If the channel is
	// already full, that means someone else has already requested closure
	// and the goroutine is already closing, so dropping the message is
	// fine. FinishedUI is never sent on, only closed, so you can wait for
	// it with "<-FinishedUI", optionally combined with a timeout via
	// TimeoutReceive.
	Broker struct {
		ToEngine chan any
		ToUI     chan MsgToUI

		CloseUI    chan struct{}
		FinishedUI chan struct{}
	}

	// MsgToUI is a message sent from the driver back to whatever consumes
	// status feedback: track positions, panic state, and alerts. The most
	// often sent fields (HasPosition, Track, Panic) are not boxed to avoid
	// allocations.
	MsgToUI struct {
		HasPosition bool
		Track       [8]int // current Step of each track; unused entries are 0
		Panic       bool

		HasAlert bool
		Alert    Alert

		Data any
	}

	// AlertPriority ranks an Alert for a host that only has room to show
	// one at a time.
	AlertPriority int

	// Alert is a short-lived diagnostic message the driver wants surfaced
	// to whatever is hosting it (a crash report, a dropped snapshot
	// import, a malformed parameter write).
	Alert struct {
		Name     string
		Message  string
		Priority AlertPriority
		Duration time.Duration
	}
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

const defaultAlertDuration = 5 * time.Second

func NewBroker() *Broker {
	return &Broker{
		ToEngine:   make(chan any, 1024),
		ToUI:       make(chan MsgToUI, 1024),
		CloseUI:    make(chan struct{}, 1),
		FinishedUI: make(chan struct{}),
	}
}

// TrySend is a helper function to send a value to a channel if it is not
// full. It is guaranteed to be non-blocking. Returns true if the value was
// sent, false otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive blocks until a value is received from c, or until t
// elapses. ok is false if the timeout occurred or the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
