package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
	Record(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type AttendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

// CheckIn implements AttendanceHandler.
func (h *AttendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	record, err := h.attendanceService.CheckIn(r.Context(), requester)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Checked in successfully", record)
}

// CheckOut implements AttendanceHandler.
func (h *AttendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	record, err := h.attendanceService.CheckOut(r.Context(), requester)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Checked out successfully", record)
}

// List implements AttendanceHandler.
func (h *AttendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	req := attendance.ListAttendanceRequest{
		EmployeeID: r.URL.Query().Get("employee_id"),
		StartDate:  queryPtr(r, "start_date"),
		EndDate:    queryPtr(r, "end_date"),
		Status:     queryPtr(r, "status"),
	}
	list, err := h.attendanceService.List(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithCount(w, len(list), list)
}

func statsRequest(r *http.Request) attendance.StatsRequest {
	return attendance.StatsRequest{
		EmployeeID: r.URL.Query().Get("employee_id"),
		StartDate:  queryPtr(r, "start_date"),
		EndDate:    queryPtr(r, "end_date"),
	}
}

// Stats implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	stats, err := h.attendanceService.Stats(r.Context(), requester, statsRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, stats)
}

// Report implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Report(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	report, err := h.attendanceService.Report(r.Context(), requester, statsRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.File(w, report.FileName, report.ContentType, report.Content)
}

// Record implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Record(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	var req attendance.RecordAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RecordAttendance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	record, err := h.attendanceService.Record(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Attendance recorded successfully", record)
}

// Update implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	var req attendance.UpdateAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateAttendance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	record, err := h.attendanceService.Update(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Attendance updated successfully", record)
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &AttendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}
