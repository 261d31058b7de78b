// Package registry implements the authoritative ticket lifecycle state
// machine together with its access control and metadata resolution.  Every
// mutating call either fully commits (state updated, one event emitted) or
// fully fails (no state change, no event); the error types below are the
// only failure surface.
package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/ticket-registry/internal/model"
)

// Sentinel values let callers classify failures with errors.Is without
// inspecting the concrete error types.  Handlers translate these into
// HTTP statuses.
var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidID     = errors.New("invalid ticket id")
	ErrInvalidState  = errors.New("invalid state")
	ErrDate          = errors.New("date error")
)

// AuthError reports a caller that lacks the capability an operation
// requires.  It matches ErrNotAuthorized.
type AuthError struct {
	Identity model.Identity // the rejected caller
	Op       string         // the attempted operation
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: identity %q lacks the required capability", e.Op, string(e.Identity))
}

func (e *AuthError) Is(target error) bool { return target == ErrNotAuthorized }

// InputError reports a structurally malformed argument such as an empty
// product code or the null identity.  It matches ErrInvalidInput.
type InputError struct {
	Reason string // short human-readable reason tag, e.g. "Product missing"
}

func (e *InputError) Error() string { return "invalid input: " + e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// IDError reports a ticket identifier with no corresponding record.  It
// matches ErrInvalidID.
type IDError struct {
	ID uint64 // the offending identifier
}

func (e *IDError) Error() string { return fmt.Sprintf("ticket %d does not exist", e.ID) }

func (e *IDError) Is(target error) bool { return target == ErrInvalidID }

// StateError reports an operation that is not legal for the ticket's
// current status.  It carries the status observed at the time of the call
// for diagnostics and matches ErrInvalidState.
type StateError struct {
	ID     uint64       // the ticket the operation targeted
	Status model.Status // the status that made the operation illegal
}

func (e *StateError) Error() string {
	return fmt.Sprintf("ticket %d: operation not legal in status %s", e.ID, e.Status)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// DateError reports a date argument violating an ordering or must-be-future
// rule.  It matches ErrDate.
type DateError struct {
	Date   time.Time // the offending date
	Reason string    // why it was rejected, e.g. "In past"
}

func (e *DateError) Error() string {
	return fmt.Sprintf("date %s rejected: %s", e.Date.UTC().Format(time.RFC3339), e.Reason)
}

func (e *DateError) Is(target error) bool { return target == ErrDate }
