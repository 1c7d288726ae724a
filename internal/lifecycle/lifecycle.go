package lifecycle

import (
	"errors"
	"fmt"
)

// State is the single lifecycle field carried by every video. Exactly one
// external long-running operation (generation, approval, publication) is ever
// in flight per video, so a flat enum is sufficient.
type State string

const (
	StateWaitingForAI       State = "waiting_for_ai"
	StateProcessingAI       State = "processing_ai"
	StateDraft              State = "draft"
	StateWaitingForApproval State = "waiting_for_approval"
	StateApproved           State = "approved"
	StateScheduled          State = "scheduled"
	StatePublished          State = "published"
	StateError              State = "error"
)

// Event identifies a trigger that may move a video between states.
type Event string

const (
	// Callback-driven events, reported by the external automation engine.
	EventGenerationSucceeded Event = "generation_succeeded"
	EventGenerationFailed    Event = "generation_failed"
	EventApproved            Event = "approved"
	EventRejected            Event = "rejected"

	// Operator-driven events.
	EventSendForApproval Event = "send_for_approval"
	EventAutoApprove     Event = "auto_approve"
	EventSchedule        Event = "schedule"
	EventReschedule      Event = "reschedule"
	EventCancelSchedule  Event = "cancel_schedule"
	EventPublish         Event = "publish"
	EventRetry           Event = "retry"
)

// ErrIllegalTransition is wrapped by every TransitionError.
var ErrIllegalTransition = errors.New("illegal state transition")

// TransitionError reports an event attempted from a state that does not allow
// it. The current state is included so handlers can surface it to the caller.
type TransitionError struct {
	Current State
	Event   Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q not allowed from state %q", e.Event, e.Current)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

type rule struct {
	from   []State
	to     State
	forced bool
}

// transitions is the authoritative table. Forced rules come from callbacks:
// the external engine is authoritative about real-world completion, so its
// events are applied even from an unexpected source state (the anomaly is the
// caller's to log).
var transitions = map[Event]rule{
	EventGenerationSucceeded: {from: []State{StateWaitingForAI, StateProcessingAI}, to: StateDraft, forced: true},
	EventGenerationFailed:    {from: []State{StateWaitingForAI, StateProcessingAI}, to: StateError, forced: true},
	EventApproved:            {from: []State{StateWaitingForApproval}, to: StateApproved, forced: true},
	EventRejected:            {from: []State{StateWaitingForApproval}, to: StateDraft, forced: true},

	EventSendForApproval: {from: []State{StateDraft}, to: StateWaitingForApproval},
	EventAutoApprove:     {from: []State{StateDraft, StateApproved}, to: StateApproved},
	EventSchedule:        {from: []State{StateApproved, StateDraft}, to: StateScheduled},
	EventReschedule:      {from: []State{StateScheduled}, to: StateScheduled},
	EventCancelSchedule:  {from: []State{StateScheduled}, to: StateApproved},
	EventPublish:         {from: []State{StateApproved, StateScheduled}, to: StatePublished},
	EventRetry:           {from: []State{StateError}, to: StateDraft},
}

// Next returns the state an event leads to from the current state. For
// non-forced events a TransitionError is returned when the current state is
// not a legal source. Forced events always succeed; use Expected to detect
// the anomaly.
func Next(current State, event Event) (State, error) {
	r, ok := transitions[event]
	if !ok {
		return current, fmt.Errorf("unknown event %q", event)
	}
	if r.forced {
		return r.to, nil
	}
	for _, s := range r.from {
		if s == current {
			return r.to, nil
		}
	}
	return current, &TransitionError{Current: current, Event: event}
}

// Expected returns the legal source states for an event.
func Expected(event Event) []State {
	r, ok := transitions[event]
	if !ok {
		return nil
	}
	return append([]State(nil), r.from...)
}

// ExpectedFrom reports whether the event's transition table lists the given
// state as a legal source.
func ExpectedFrom(current State, event Event) bool {
	for _, s := range Expected(event) {
		if s == current {
			return true
		}
	}
	return false
}

// Known reports whether s is one of the documented lifecycle states.
func Known(s State) bool {
	switch s {
	case StateWaitingForAI, StateProcessingAI, StateDraft, StateWaitingForApproval,
		StateApproved, StateScheduled, StatePublished, StateError:
		return true
	}
	return false
}

// Cancelable reports whether the operator may cancel (delete) a video in the
// given state. Every documented state is cancelable; the check exists to
// reject rows holding an unknown state value.
func Cancelable(s State) bool {
	return Known(s)
}

// PurgeableStates are the states the bulk video cleanup may delete from.
// Scheduled and published videos are kept: one still has work pending, the
// other is live content.
func PurgeableStates() []State {
	return []State{
		StateWaitingForAI, StateProcessingAI, StateDraft,
		StateWaitingForApproval, StateApproved, StateError,
	}
}

// SchedulableStates are the legal sources for the schedule event.
func SchedulableStates() []State { return Expected(EventSchedule) }

// PublishableStates are the legal sources for the publish event.
func PublishableStates() []State { return Expected(EventPublish) }
