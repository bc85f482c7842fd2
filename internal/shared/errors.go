// Package shared holds cross-cutting primitives used by every domain
// package: the error taxonomy and timestamp parsing.
package shared

import (
	"errors"
	"fmt"
)

// Reason is a stable machine-readable code attached to every rejection.
// Codes are part of the API surface and must not change between releases.
type Reason string

const (
	ReasonInvalidInput         Reason = "invalid_input"
	ReasonInvalidTimeRange     Reason = "invalid_time_range"
	ReasonUnknownRoom          Reason = "unknown_room"
	ReasonUnknownUser          Reason = "unknown_user"
	ReasonUnknownParticipant   Reason = "unknown_participant"
	ReasonDuplicateParticipant Reason = "duplicate_participant"
	ReasonRoomConflict         Reason = "room_conflict"
	ReasonUserConflict         Reason = "user_conflict"
	ReasonNotFound             Reason = "not_found"
	ReasonAlreadyCancelled     Reason = "already_cancelled"
	ReasonCancelWindowClosed   Reason = "cancel_window_closed"
	ReasonNotAuthorized        Reason = "not_authorized"
	ReasonDuplicateRoomName    Reason = "duplicate_room_name"
	ReasonDuplicateUsername    Reason = "duplicate_username"
	ReasonInfrastructure       Reason = "infrastructure"
)

// Rejection is a validation error or business-rule rejection. It carries a
// human-readable message plus the stable reason code, and never wraps a raw
// storage error.
type Rejection struct {
	Code    Reason
	Message string
}

func (e *Rejection) Error() string { return e.Message }

// Is lets errors.Is match two rejections by reason code.
func (e *Rejection) Is(target error) bool {
	var other *Rejection
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Reject builds a rejection with the given code and message.
func Reject(code Reason, msg string) error {
	return &Rejection{Code: code, Message: msg}
}

// Rejectf builds a rejection with a formatted message.
func Rejectf(code Reason, format string, args ...any) error {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsRejection extracts a rejection from an error chain.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// InfraError marks a storage or connectivity fault. Distinct from rejections
// so callers can decide to retry; the underlying fault stays available for
// logging but is never rendered to clients.
type InfraError struct {
	Err error
}

func (e *InfraError) Error() string { return "infrastructure failure: " + e.Err.Error() }

func (e *InfraError) Unwrap() error { return e.Err }

// Infra wraps a low-level fault as an infrastructure error. A nil error and
// an error that is already classified pass through unchanged.
func Infra(err error) error {
	if err == nil {
		return nil
	}
	var rej *Rejection
	var infra *InfraError
	if errors.As(err, &rej) || errors.As(err, &infra) {
		return err
	}
	return &InfraError{Err: err}
}

// IsInfra reports whether the error chain contains an infrastructure fault.
func IsInfra(err error) bool {
	var infra *InfraError
	return errors.As(err, &infra)
}
