package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", helper.GetCacheKey(pattern))
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateClassCache drops a class, every class list and the derived stats
func InvalidateClassCache(ctx context.Context, cm *CacheManager, classID string) {
	SafeDelete(ctx, cm.Class, "id:"+classID)
	SafeInvalidatePattern(ctx, cm.Class, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateAttendanceCache drops the cached sheets of a class and the derived stats
func InvalidateAttendanceCache(ctx context.Context, cm *CacheManager, classID string) {
	SafeInvalidatePattern(ctx, cm.Attendance, "class:"+classID+":*")
	SafeInvalidatePattern(ctx, cm.Attendance, "id:*")
	SafeInvalidatePattern(ctx, cm.Attendance, "student:*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateUserCache drops a user and every user list
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, "id:"+userID)
	SafeInvalidatePattern(ctx, cm.User, "email:*")
	SafeInvalidatePattern(ctx, cm.User, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateDepartmentCache drops a department and the department list
func InvalidateDepartmentCache(ctx context.Context, cm *CacheManager, departmentID string) {
	SafeDelete(ctx, cm.Department, "id:"+departmentID, "list")
}
