package taskclient

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/task-manager-api/internal/constants"
)

// All disables a status or priority filter.
const All = "All"

// Sort keys understood by Sort.
const (
	SortByDeadline  = "deadline"
	SortByCreatedAt = "createdAt"
	SortByPriority  = "priority"
)

// Deadline urgency levels returned by DeadlineStatus.
const (
	DeadlineOverdue = "overdue"
	DeadlineUrgent  = "urgent"
	DeadlineSoon    = "soon"
	DeadlineNormal  = "normal"
)

// Minimum lengths checked before submitting a draft. The server only
// rejects empty values.
const (
	MinTitleLength       = constants.MinTitleLength
	MinDescriptionLength = constants.MinDescriptionLength
)

var (
	ErrTitleTooShort       = fmt.Errorf("title must be at least %d characters", MinTitleLength)
	ErrDescriptionTooShort = fmt.Errorf("description must be at least %d characters", MinDescriptionLength)
)

// Filter keeps tasks matching status and priority. Empty or All matches anything.
func Filter(tasks []Task, status, priority string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if status != "" && status != All && t.Status != status {
			continue
		}
		if priority != "" && priority != All && t.Priority != priority {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Search keeps tasks whose title or description contains query, ignoring case.
// A blank query matches everything.
func Search(tasks []Task, query string) []Task {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(tasks)
	}

	q := strings.ToLower(query)
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}

var priorityRank = map[string]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

func rankOf(priority string) int {
	if r, ok := priorityRank[priority]; ok {
		return r
	}
	return len(priorityRank)
}

// Sort returns a sorted copy of tasks. By deadline, soonest comes first and
// tasks without one go last, newest created first among themselves. By
// createdAt, newest first. By priority, High to Low with unknown values last.
// Unknown keys keep the input order.
func Sort(tasks []Task, by string) []Task {
	out := slices.Clone(tasks)

	var cmp func(a, b Task) int
	switch by {
	case SortByDeadline:
		cmp = func(a, b Task) int {
			switch {
			case a.Deadline == nil && b.Deadline == nil:
				return b.CreatedAt.Compare(a.CreatedAt)
			case a.Deadline == nil:
				return 1
			case b.Deadline == nil:
				return -1
			}
			return a.Deadline.Compare(*b.Deadline)
		}
	case SortByCreatedAt:
		cmp = func(a, b Task) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortByPriority:
		cmp = func(a, b Task) int { return rankOf(a.Priority) - rankOf(b.Priority) }
	default:
		return out
	}

	slices.SortStableFunc(out, cmp)
	return out
}

// Stats counts tasks by status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

// ComputeStats tallies tasks by status.
func ComputeStats(tasks []Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		}
	}
	return s
}

// Countdown renders the time left until deadline as shown on a task card:
// "Overdue", "2d 3h 4m", "3h 4m 5s", "4m 5s" or "5s".
func Countdown(deadline, now time.Time) string {
	diff := deadline.Sub(now)
	if diff < 0 {
		return "Overdue"
	}

	days := int(diff / (24 * time.Hour))
	hours := int(diff % (24 * time.Hour) / time.Hour)
	minutes := int(diff % time.Hour / time.Minute)
	seconds := int(diff % time.Minute / time.Second)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// DeadlineStatus classifies how close deadline is. It returns "" for a task
// without a deadline.
func DeadlineStatus(deadline *time.Time, now time.Time) string {
	if deadline == nil {
		return ""
	}

	left := deadline.Sub(now)
	switch {
	case left < 0:
		return DeadlineOverdue
	case left < 24*time.Hour:
		return DeadlineUrgent
	case left < 72*time.Hour:
		return DeadlineSoon
	default:
		return DeadlineNormal
	}
}

// ValidateDraft applies the minimum-length rules to trimmed title and
// description. Both failures are reported together.
func ValidateDraft(draft TaskDraft) error {
	var errs []error
	if utf8.RuneCountInString(strings.TrimSpace(draft.Title)) < MinTitleLength {
		errs = append(errs, ErrTitleTooShort)
	}
	if utf8.RuneCountInString(strings.TrimSpace(draft.Description)) < MinDescriptionLength {
		errs = append(errs, ErrDescriptionTooShort)
	}
	return errors.Join(errs...)
}
