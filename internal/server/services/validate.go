package services

import (
	"fmt"
	"strings"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
)

// Field constraints shared by the CRUD and sync write paths. A failure names
// the offending rule and wraps common.ErrValidation so the HTTP layer maps it
// to a 400.
func validateBirthdayFields(name string, day, month, notifyDaysBefore, notifyTimeMinutes int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if day < 1 || day > 31 {
		return fmt.Errorf("%w: day must be 1..31", common.ErrValidation)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be 1..12", common.ErrValidation)
	}
	if notifyTimeMinutes < 0 || notifyTimeMinutes > 1439 {
		return fmt.Errorf("%w: notifyTimeMinutes must be 0..1439", common.ErrValidation)
	}
	switch notifyDaysBefore {
	case 0, 1, 3, 7:
	default:
		return fmt.Errorf("%w: notifyDaysBefore must be 0/1/3/7", common.ErrValidation)
	}
	return nil
}
