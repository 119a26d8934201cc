package user

type Permission string

const (
	// Self service
	PermissionViewOwnProfile  Permission = "profile.view_own"
	PermissionLeaveCreate     Permission = "leave.create"
	PermissionAttendanceClock Permission = "attendance.clock"

	// Team
	PermissionLeaveApprove     Permission = "leave.approve"
	PermissionAttendanceManage Permission = "attendance.manage"

	// Employee management
	PermissionEmployeeManage Permission = "employee.manage"
	PermissionEmployeeStats  Permission = "employee.stats"
	PermissionEmployeeDelete Permission = "employee.delete"

	// Maintenance
	PermissionLeaveSyncAll Permission = "leave.sync_all"
)

// LevelPermissions is the coarse route-level gate per management level.
// Finer checks (subtree membership, approval chain) live in the access resolver.
var LevelPermissions = map[Level][]Permission{
	LevelEmployee: {
		PermissionViewOwnProfile,
		PermissionLeaveCreate,
		PermissionAttendanceClock,
	},
	LevelManager: {
		PermissionViewOwnProfile,
		PermissionLeaveCreate,
		PermissionAttendanceClock,
		PermissionLeaveApprove,
		PermissionAttendanceManage,
	},
	LevelSeniorManager: {
		PermissionViewOwnProfile,
		PermissionLeaveCreate,
		PermissionAttendanceClock,
		PermissionLeaveApprove,
		PermissionAttendanceManage,
		PermissionEmployeeManage,
		PermissionEmployeeStats,
	},
	LevelAdmin: {
		PermissionViewOwnProfile,
		PermissionLeaveCreate,
		PermissionAttendanceClock,
		PermissionLeaveApprove,
		PermissionAttendanceManage,
		PermissionEmployeeManage,
		PermissionEmployeeStats,
		PermissionEmployeeDelete,
		PermissionLeaveSyncAll,
	},
}

// HasPermission checks if a level has a specific permission
func HasPermission(level Level, permission Permission) bool {
	permissions, exists := LevelPermissions[level]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
