package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type attendanceMemory struct {
	s *store
}

func (m *attendanceMemory) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	now := time.Now()
	if existing := m.findLocked(record.ClassID, record.Date); existing != nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	m.s.attendance[record.ID] = cloneRecord(record)
	return nil
}

func (m *attendanceMemory) GetByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	record, ok := m.s.attendance[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (m *attendanceMemory) GetByClassAndDate(ctx context.Context, classID, date string) (*models.AttendanceRecord, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	record := m.findLocked(classID, date)
	if record == nil {
		return nil, repositories.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (m *attendanceMemory) List(ctx context.Context, filters repositories.AttendanceFilters) ([]*models.AttendanceRecord, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var classIDs map[string]bool
	if filters.ClassIDs != nil {
		classIDs = make(map[string]bool, len(filters.ClassIDs))
		for _, id := range filters.ClassIDs {
			classIDs[id] = true
		}
	}

	var records []*models.AttendanceRecord
	for _, record := range m.s.attendance {
		if filters.ClassID != nil && record.ClassID != *filters.ClassID {
			continue
		}
		if classIDs != nil && !classIDs[record.ClassID] {
			continue
		}
		if filters.DateFrom != "" && record.Date < filters.DateFrom {
			continue
		}
		if filters.DateTo != "" && record.Date > filters.DateTo {
			continue
		}
		if filters.StudentID != nil {
			if _, ok := record.EntryFor(*filters.StudentID); !ok {
				continue
			}
		}
		records = append(records, cloneRecord(record))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			if filters.Newest {
				return records[i].Date > records[j].Date
			}
			return records[i].Date < records[j].Date
		}
		return records[i].ClassID < records[j].ClassID
	})
	return paginate(records, filters.Limit, filters.Offset), nil
}

func (m *attendanceMemory) DeleteByClass(ctx context.Context, classID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for id, record := range m.s.attendance {
		if record.ClassID == classID {
			delete(m.s.attendance, id)
		}
	}
	return nil
}

func (m *attendanceMemory) findLocked(classID, date string) *models.AttendanceRecord {
	for _, record := range m.s.attendance {
		if record.ClassID == classID && record.Date == date {
			return record
		}
	}
	return nil
}
