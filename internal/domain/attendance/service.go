package attendance

import (
	"context"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
)

type AttendanceService interface {
	CheckIn(ctx context.Context, requester user.Requester) (AttendanceResponse, error)
	CheckOut(ctx context.Context, requester user.Requester) (AttendanceResponse, error)
	List(ctx context.Context, requester user.Requester, req ListAttendanceRequest) ([]AttendanceResponse, error)
	Stats(ctx context.Context, requester user.Requester, req StatsRequest) (StatsResponse, error)
	Record(ctx context.Context, requester user.Requester, req RecordAttendanceRequest) (AttendanceResponse, error)
	Update(ctx context.Context, requester user.Requester, req UpdateAttendanceRequest) (AttendanceResponse, error)
	Report(ctx context.Context, requester user.Requester, req StatsRequest) (Report, error)
}
