package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

// translateError maps gorm sentinel errors onto repository errors and wraps the rest
func translateError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("failed to %s: %w", action, repositories.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// applyPagination applies limit and offset when set
func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// likePattern builds a case-insensitive ILIKE pattern with wildcards escaped
func likePattern(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(query)) + "%"
}

// jsonContains renders a value as a jsonb literal for the @> operator
func jsonContains(value interface{}) string {
	data, _ := json.Marshal(value)
	return string(data)
}

// cacheKey joins key parts, rendering nil pointers as "-"
func cacheKey(parts ...interface{}) string {
	out := make([]string, len(parts))
	for i, part := range parts {
		switch v := part.(type) {
		case *string:
			if v == nil {
				out[i] = "-"
			} else {
				out[i] = *v
			}
		case []string:
			if v == nil {
				out[i] = "-"
			} else {
				out[i] = "[" + strings.Join(v, ",") + "]"
			}
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(out, ":")
}
