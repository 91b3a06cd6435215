package service

import (
	"strconv"
	"strings"
	"time"

	"frontrow/internal/models"
)

// Query kinds accepted by ListPosts and ListUsers.
const (
	QueryID       = "id"
	QueryUser     = "user"
	QueryDate     = "date"
	QueryUsername = "username"
)

const dateLayout = "02.01.2006"

// splitList splits "a, b,c" into trimmed, non-empty parts.
func splitList(param string) []string {
	var out []string
	for _, part := range strings.Split(param, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDList(param string) ([]uint, error) {
	parts := splitList(param)
	if len(parts) == 0 {
		return nil, models.NewValidationError("At least one ID is required.")
	}
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil || id == 0 {
			return nil, &models.AppError{
				Code:    models.CodeValidation,
				Message: "Invalid ID '" + part + "'.",
				Params:  map[string]any{"value": part},
			}
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// parseDateRange reads "dd.MM.yyyy x dd.MM.yyyy" and returns the half-open
// interval covering both days.
func parseDateRange(param string, loc *time.Location) (time.Time, time.Time, error) {
	invalid := models.NewValidationError("Date range must look like 01.02.2024 x 15.02.2024.")

	startRaw, endRaw, ok := strings.Cut(param, "x")
	if !ok {
		return time.Time{}, time.Time{}, invalid
	}
	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(startRaw), loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid
	}
	end, err := time.ParseInLocation(dateLayout, strings.TrimSpace(endRaw), loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, models.NewValidationError("Date range ends before it starts.")
	}
	return start, end.AddDate(0, 0, 1), nil
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
