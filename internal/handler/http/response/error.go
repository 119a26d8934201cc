package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/access"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/auth"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var denied *access.AuthorizationError
	if errors.As(err, &denied) {
		Forbidden(w, denied.Rule)
		return
	}

	// checked before the sentinels it may wrap
	var reconcileErr *attendance.ReconciliationError
	if errors.As(err, &reconcileErr) {
		slog.Error("leave decision rolled back", "leave_id", reconcileErr.LeaveID, "error", reconcileErr.Err)
		InternalServerError(w, "Attendance could not be reconciled, leave status was not changed")
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, user.ErrRequesterMissing):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrAccountInactive),
		errors.Is(err, user.ErrRequesterInactive),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrCannotDeleteSelf):
		Forbidden(w, err.Error())
	case errors.Is(err, employee.ErrManagerNotFound),
		errors.Is(err, employee.ErrEmployeeNumberExists),
		errors.Is(err, employee.ErrEmailExists),
		errors.Is(err, employee.ErrHierarchyCycle),
		errors.Is(err, employee.ErrPasswordRequired),
		errors.Is(err, employee.ErrInvalidManagementLevel):
		BadRequest(w, err.Error(), nil)

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrSundayOff),
		errors.Is(err, attendance.ErrSaturdayOff),
		errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrNotCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrCheckOutBeforeIn),
		errors.Is(err, attendance.ErrAttendanceExists):
		BadRequest(w, err.Error(), nil)

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrNotAuthorizedToCancel):
		Forbidden(w, err.Error())
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed),
		errors.Is(err, leave.ErrOnlyPendingCanBeCancelled),
		errors.Is(err, leave.ErrOverlappingLeave),
		errors.Is(err, leave.ErrHalfDayMultipleDays):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
