package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
)

// ErrInvalidDeadline is returned for deadline values in no accepted layout.
var ErrInvalidDeadline = errors.New("deadline must be an RFC 3339 timestamp or a YYYY-MM-DD[THH:MM[:SS]] local time")

// Layouts without a zone are read as UTC.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDeadline parses a deadline. A blank value means no deadline.
func ParseDeadline(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = models.Timestamp(t)
			return &t, nil
		}
	}
	return nil, ErrInvalidDeadline
}
