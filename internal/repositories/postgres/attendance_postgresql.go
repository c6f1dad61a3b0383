package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type AttendancePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAttendancePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AttendanceRepository {
	return &AttendancePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// Upsert keeps one record per (class_id, date); a second mark replaces the attendees
func (a *AttendancePostgreSQL) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AttendanceRecord
		err := tx.Where("class_id = ? AND date = ?", record.ClassID, record.Date).First(&existing).Error
		switch {
		case err == nil:
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
			return tx.Save(record).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(record).Error
		default:
			return err
		}
	})
	if err != nil {
		return translateError(err, "save attendance record")
	}

	cache.InvalidateAttendanceCache(ctx, a.cacheManager, record.ClassID)
	return nil
}

func (a *AttendancePostgreSQL) GetByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := a.cacheManager.Attendance.CacheOrExecute(ctx, "id:"+id, &record, cache.AttendanceCacheConfig.TTL, func() (interface{}, error) {
		var dbRecord models.AttendanceRecord
		if err := a.db.WithContext(ctx).First(&dbRecord, "id = ?", id).Error; err != nil {
			return nil, translateError(err, "get attendance record")
		}
		return &dbRecord, nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (a *AttendancePostgreSQL) GetByClassAndDate(ctx context.Context, classID, date string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	key := "class:" + classID + ":date:" + date
	err := a.cacheManager.Attendance.CacheOrExecute(ctx, key, &record, cache.AttendanceCacheConfig.TTL, func() (interface{}, error) {
		var dbRecord models.AttendanceRecord
		if err := a.db.WithContext(ctx).Where("class_id = ? AND date = ?", classID, date).First(&dbRecord).Error; err != nil {
			return nil, translateError(err, "get attendance sheet")
		}
		return &dbRecord, nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (a *AttendancePostgreSQL) List(ctx context.Context, filters repositories.AttendanceFilters) ([]*models.AttendanceRecord, error) {
	if filters.ClassIDs != nil && len(filters.ClassIDs) == 0 {
		return []*models.AttendanceRecord{}, nil
	}

	query := a.db.WithContext(ctx)
	if filters.ClassID != nil {
		query = query.Where("class_id = ?", *filters.ClassID)
	}
	if filters.ClassIDs != nil {
		query = query.Where("class_id IN ?", filters.ClassIDs)
	}
	if filters.StudentID != nil {
		query = query.Where("attendees @> ?::jsonb", jsonContains([]map[string]string{{"student_id": *filters.StudentID}}))
	}
	if filters.DateFrom != "" {
		query = query.Where("date >= ?", filters.DateFrom)
	}
	if filters.DateTo != "" {
		query = query.Where("date <= ?", filters.DateTo)
	}

	if filters.Newest {
		query = query.Order("date DESC, class_id ASC")
	} else {
		query = query.Order("date ASC, class_id ASC")
	}

	var records []*models.AttendanceRecord
	if err := applyPagination(query, filters.Limit, filters.Offset).Find(&records).Error; err != nil {
		return nil, translateError(err, "list attendance records")
	}
	if records == nil {
		records = []*models.AttendanceRecord{}
	}
	return records, nil
}

func (a *AttendancePostgreSQL) DeleteByClass(ctx context.Context, classID string) error {
	if err := a.db.WithContext(ctx).Where("class_id = ?", classID).Delete(&models.AttendanceRecord{}).Error; err != nil {
		return translateError(err, "delete attendance records")
	}

	cache.InvalidateAttendanceCache(ctx, a.cacheManager, classID)
	return nil
}
