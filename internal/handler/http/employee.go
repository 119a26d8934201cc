package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/handler/http/response"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
)

type EmployeeHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	DirectReports(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type EmployeeHandlerImpl struct {
	employeeService employee.EmployeeService
}

// List implements EmployeeHandler.
func (h *EmployeeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	req := employee.ListEmployeeRequest{
		Search:       queryPtr(r, "search"),
		Status:       queryPtr(r, "status"),
		DepartmentID: queryPtr(r, "department_id"),
	}
	if raw := queryPtr(r, "management_level"); raw != nil {
		level, err := strconv.Atoi(*raw)
		if err != nil {
			response.HandleError(w, validator.ValidationErrors{{Field: "management_level", Message: "must be an integer"}})
			return
		}
		req.Level = &level
	}

	list, err := h.employeeService.List(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithCount(w, len(list), list)
}

// Get implements EmployeeHandler.
func (h *EmployeeHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	emp, err := h.employeeService.Get(r.Context(), requester, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, emp)
}

// DirectReports implements EmployeeHandler.
func (h *EmployeeHandlerImpl) DirectReports(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	list, err := h.employeeService.DirectReports(r.Context(), requester, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithCount(w, len(list), list)
}

// Create implements EmployeeHandler.
func (h *EmployeeHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	var req employee.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateEmployee decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	emp, err := h.employeeService.Create(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Employee created successfully", emp)
}

// Update implements EmployeeHandler.
func (h *EmployeeHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	var req employee.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateEmployee decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	emp, err := h.employeeService.Update(r.Context(), requester, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Employee updated successfully", emp)
}

// Delete implements EmployeeHandler.
func (h *EmployeeHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	if err := h.employeeService.Delete(r.Context(), requester, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Employee deleted successfully", nil)
}

// Stats implements EmployeeHandler.
func (h *EmployeeHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(w, r)
	if !ok {
		return
	}

	stats, err := h.employeeService.Stats(r.Context(), requester)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, stats)
}

func NewEmployeeHandler(employeeService employee.EmployeeService) EmployeeHandler {
	return &EmployeeHandlerImpl{
		employeeService: employeeService,
	}
}
