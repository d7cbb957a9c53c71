package service

import (
	"strconv"
	"strings"

	"github.com/phrazzld/taskr-api/internal/domain"
	"github.com/phrazzld/taskr-api/internal/store"
)

// Pagination defaults and bounds for task listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// TaskQuery carries the raw listing parameters as received from a client.
// Empty strings mean the parameter was not supplied.
type TaskQuery struct {
	Status   string
	Priority string
	Page     string
	Limit    string
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Data  []*domain.Task `json:"data"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ParseTaskQuery turns raw listing parameters into a store filter.
// Page defaults to 1 and limit to 10. A page or limit that is not a positive
// integer, or a limit above MaxLimit, fails with ErrInvalidPagination.
// An unknown status or priority fails with the matching domain error.
func ParseTaskQuery(q TaskQuery) (store.TaskFilter, error) {
	filter := store.TaskFilter{Page: DefaultPage, Limit: DefaultLimit}

	if raw := strings.TrimSpace(q.Status); raw != "" {
		status, err := domain.ParseTaskStatus(strings.ToUpper(raw))
		if err != nil {
			return store.TaskFilter{}, err
		}
		filter.Status = &status
	}

	if raw := strings.TrimSpace(q.Priority); raw != "" {
		priority, err := domain.ParseTaskPriority(strings.ToUpper(raw))
		if err != nil {
			return store.TaskFilter{}, err
		}
		filter.Priority = &priority
	}

	page, err := parsePositive("page", q.Page, DefaultPage)
	if err != nil {
		return store.TaskFilter{}, err
	}
	filter.Page = page

	limit, err := parsePositive("limit", q.Limit, DefaultLimit)
	if err != nil {
		return store.TaskFilter{}, err
	}
	if limit > MaxLimit {
		return store.TaskFilter{}, domain.NewValidationError(
			"limit", "must not exceed "+strconv.Itoa(MaxLimit), ErrInvalidPagination)
	}
	filter.Limit = limit

	return filter, nil
}

func parsePositive(field, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(field, "must be a positive integer", ErrInvalidPagination)
	}
	return n, nil
}
