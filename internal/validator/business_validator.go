package validator

import (
	"fmt"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

const clockLayout = "15:04"

// Validate validates struct tags, custom tags included
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateSchedule checks that every slot ends after it starts and that slots on one day don't overlap
func (bv *BusinessValidator) ValidateSchedule(slots []models.ScheduleSlot) ValidationErrors {
	var errors ValidationErrors

	type span struct{ start, end time.Time }
	byDay := make(map[time.Weekday][]span)

	for i, slot := range slots {
		start, errStart := time.Parse(clockLayout, slot.StartTime)
		end, errEnd := time.Parse(clockLayout, slot.EndTime)
		if errStart != nil || errEnd != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("schedule[%d]", i),
				Message: "times must be in HH:MM format",
				Value:   slot,
				Rule:    "clock",
			})
			continue
		}
		if !end.After(start) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("schedule[%d].end_time", i),
				Message: "must be after start_time",
				Value:   slot.EndTime,
				Rule:    "business_logic",
			})
			continue
		}

		day, _ := models.ParseWeekday(slot.Day)
		for _, other := range byDay[day] {
			if start.Before(other.end) && other.start.Before(end) {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("schedule[%d]", i),
					Message: "overlaps another slot on the same day",
					Value:   slot,
					Rule:    "business_logic",
				})
				break
			}
		}
		byDay[day] = append(byDay[day], span{start: start, end: end})
	}

	return errors
}

// ValidateRoster checks submitted attendees against the class enrolment
func (bv *BusinessValidator) ValidateRoster(class *models.Class, attendees []models.AttendanceEntry) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[string]bool, len(attendees))

	for i, entry := range attendees {
		field := fmt.Sprintf("attendees[%d]", i)
		if !entry.Status.IsValid() {
			errors = append(errors, ValidationError{
				Field:   field + ".status",
				Message: "must be one of present, absent, late, excused",
				Value:   entry.Status,
				Rule:    "attendance_status",
			})
		}
		if seen[entry.StudentID] {
			errors = append(errors, ValidationError{
				Field:   field + ".student_id",
				Message: "student listed more than once",
				Value:   entry.StudentID,
				Rule:    "unique",
			})
			continue
		}
		seen[entry.StudentID] = true

		if !class.HasStudent(entry.StudentID) {
			errors = append(errors, ValidationError{
				Field:   field + ".student_id",
				Message: "student is not enrolled in this class",
				Value:   entry.StudentID,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidatePasswordChange applies the settings-page password rules
func (bv *BusinessValidator) ValidatePasswordChange(current, next, confirm string) ValidationErrors {
	var errors ValidationErrors
	if next == "" && confirm == "" {
		return nil
	}
	if next != confirm {
		errors = append(errors, ValidationError{
			Field:   "confirm_password",
			Message: "New passwords don't match",
			Rule:    "eqfield",
		})
	}
	if current == "" {
		errors = append(errors, ValidationError{
			Field:   "current_password",
			Message: "is required to change the password",
			Rule:    "required",
		})
	}
	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	// English weekday name, any case
	bv.validate.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseWeekday(fl.Field().String())
		return ok
	})

	bv.validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(clockLayout, fl.Field().String())
		return err == nil
	})

	bv.validate.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
}
