package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/handler/http/response"
)

type LeaveHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	UpdateStatus(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	SyncAttendance(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

// List implements LeaveHandler.
func (l *LeaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	req := leave.ListLeaveRequest{
		EmployeeID: r.URL.Query().Get("employee_id"),
		StartDate:  queryPtr(r, "start_date"),
		EndDate:    queryPtr(r, "end_date"),
		Status:     queryPtr(r, "status"),
	}
	list, err := l.leaveService.List(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithCount(w, len(list), list)
}

// Get implements LeaveHandler.
func (l *LeaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	req, err := l.leaveService.Get(r.Context(), requester, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, req)
}

// Create implements LeaveHandler.
func (l *LeaveHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	var req leave.CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateLeave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := l.leaveService.Create(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Leave request submitted successfully", created)
}

// UpdateStatus implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	var req leave.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateLeaveStatus decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	updated, err := l.leaveService.UpdateStatus(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request "+updated.Status+" successfully", updated)
}

// Cancel implements LeaveHandler.
func (l *LeaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	if err := l.leaveService.Cancel(r.Context(), requester, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request cancelled successfully", nil)
}

// SyncAttendance implements LeaveHandler.
func (l *LeaveHandlerImpl) SyncAttendance(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	result, err := l.leaveService.SyncAllApproved(r.Context(), requester)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Approved leaves re-synced with attendance", result)
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
	}
}
