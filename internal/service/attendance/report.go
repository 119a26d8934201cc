package attendance

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

// Report implements attendance.AttendanceService. It renders the period's
// ledger and statistics of one employee as a PDF.
func (s *AttendanceServiceImpl) Report(ctx context.Context, requester user.Requester, req attendance.StatsRequest) (attendance.Report, error) {
	emp, records, stats, err := s.statsFor(ctx, requester, req)
	if err != nil {
		return attendance.Report{}, err
	}

	content, err := renderReport(emp, records, stats)
	if err != nil {
		return attendance.Report{}, fmt.Errorf("failed to render attendance report: %w", err)
	}

	return attendance.Report{
		FileName:    fmt.Sprintf("attendance-%s-%s-%s.pdf", emp.EmployeeNumber, stats.Period.Start, stats.Period.End),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func renderReport(emp employee.Employee, records []attendance.Attendance, stats attendance.StatsResponse) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Attendance Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", emp.FullName(), emp.EmployeeNumber))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", stats.Period.Start, stats.Period.End))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Working days: %d  Present: %d  Half-day: %d  Absent: %d  On leave: %d",
		stats.WorkingDays, stats.Present, stats.HalfDay, stats.Absent, stats.OnLeave))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Attendance: %.1f%%", stats.AttendancePercentage))
	pdf.Ln(12)

	widths := []float64{30, 30, 30, 20, 25, 55}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Date", "Check in", "Check out", "Hours", "Status", "Notes"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		row := []string{
			r.Date.Format("2006-01-02"),
			clock(r.CheckIn),
			clock(r.CheckOut),
			fmt.Sprintf("%.2f", r.WorkingHours),
			string(r.Status),
			"",
		}
		if r.Notes != nil {
			row[5] = *r.Notes
		}
		for j, v := range row {
			pdf.CellFormat(widths[j], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
