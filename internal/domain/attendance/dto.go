package attendance

import (
	"time"

	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/validator"
)

type AttendanceResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	Date         string  `json:"date"`
	CheckIn      *string `json:"check_in"`
	CheckOut     *string `json:"check_out"`
	WorkingHours float64 `json:"working_hours"`
	Status       string  `json:"status"`
	Notes        *string `json:"notes"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func ToResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		EmployeeName: a.EmployeeName,
		Date:         a.Date.Format(validator.DateLayout),
		CheckIn:      formatTimePtr(a.CheckIn),
		CheckOut:     formatTimePtr(a.CheckOut),
		WorkingHours: a.WorkingHours,
		Status:       string(a.Status),
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}
}

func ToResponses(list []Attendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(list))
	for _, a := range list {
		out = append(out, ToResponse(a))
	}
	return out
}

// ListAttendanceRequest filters by employee and an inclusive date range.
type ListAttendanceRequest struct {
	EmployeeID string
	StartDate  *string
	EndDate    *string
	Status     *string
}

func (r *ListAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.StartDate != nil {
		if _, ok := validator.IsValidDate(*r.StartDate); !ok {
			errs.Add("start_date", "must be in YYYY-MM-DD format")
		}
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs.Add("end_date", "must be in YYYY-MM-DD format")
		}
	}
	if r.Status != nil && !Status(*r.Status).Valid() {
		errs.Add("status", "must be one of: present absent half-day on-leave")
	}
	return errs.Err()
}

// RecordAttendanceRequest is a manual entry made by a manager.
type RecordAttendanceRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	Date       string  `json:"date" validate:"required,date"`
	CheckIn    *string `json:"check_in,omitempty"`
	CheckOut   *string `json:"check_out,omitempty"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=present absent half-day on-leave"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`

	ParsedDate     time.Time  `json:"-"`
	ParsedCheckIn  *time.Time `json:"-"`
	ParsedCheckOut *time.Time `json:"-"`
}

func (r *RecordAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}
	r.ParsedDate, _ = validator.IsValidDate(r.Date)
	r.ParsedCheckIn = parseTimestamp(&errs, "check_in", r.CheckIn)
	r.ParsedCheckOut = parseTimestamp(&errs, "check_out", r.CheckOut)
	if r.ParsedCheckIn != nil && r.ParsedCheckOut != nil && !r.ParsedCheckOut.After(*r.ParsedCheckIn) {
		errs.Add("check_out", ErrCheckOutBeforeIn.Error())
	}
	if r.ParsedCheckIn != nil && r.ParsedCheckOut != nil && !sameDay(*r.ParsedCheckIn, *r.ParsedCheckOut) {
		errs.Add("check_out", "must be on the same day as check_in")
	}
	if r.Status == nil && r.ParsedCheckIn == nil {
		errs.Add("status", "status is required when check_in is not given")
	}
	return errs.Err()
}

// UpdateAttendanceRequest corrects an existing row; nil fields are unchanged.
type UpdateAttendanceRequest struct {
	ID       string  `json:"-"`
	CheckIn  *string `json:"check_in,omitempty"`
	CheckOut *string `json:"check_out,omitempty"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=present absent half-day on-leave"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=500"`

	ParsedCheckIn  *time.Time `json:"-"`
	ParsedCheckOut *time.Time `json:"-"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}
	r.ParsedCheckIn = parseTimestamp(&errs, "check_in", r.CheckIn)
	r.ParsedCheckOut = parseTimestamp(&errs, "check_out", r.CheckOut)
	if r.ParsedCheckIn != nil && r.ParsedCheckOut != nil && !sameDay(*r.ParsedCheckIn, *r.ParsedCheckOut) {
		errs.Add("check_out", "must be on the same day as check_in")
	}
	return errs.Err()
}

// sameDay compares calendar dates in check-in's offset.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func parseTimestamp(errs *validator.ValidationErrors, field string, value *string) *time.Time {
	if value == nil {
		return nil
	}
	t, ok := validator.IsValidDateTime(*value)
	if !ok {
		errs.Add(field, "must be an ISO8601 timestamp")
		return nil
	}
	return &t
}

type StatsRequest struct {
	EmployeeID string
	StartDate  *string
	EndDate    *string
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type StatsResponse struct {
	EmployeeID           string  `json:"employee_id"`
	TotalDays            int     `json:"total_days"`
	Present              int     `json:"present"`
	Absent               int     `json:"absent"`
	HalfDay              int     `json:"half_day"`
	OnLeave              int     `json:"on_leave"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	WorkingDays          int     `json:"working_days"`
	Period               Period  `json:"period"`
}

// Report is a rendered attendance export.
type Report struct {
	FileName    string
	ContentType string
	Content     []byte
}
