package leave

import "errors"

var (
	ErrLeaveRequestNotFound         = errors.New("leave request not found")
	ErrLeaveRequestAlreadyProcessed = errors.New("leave request already processed")
	ErrOnlyPendingCanBeCancelled    = errors.New("only pending leaves can be cancelled")
	ErrNotAuthorizedToCancel        = errors.New("not authorized to cancel this leave")
	ErrOverlappingLeave             = errors.New("leave overlaps an existing pending or approved leave")
	ErrHalfDayMultipleDays          = errors.New("half-day leave must start and end on the same day")
)
