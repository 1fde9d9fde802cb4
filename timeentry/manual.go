package timeentry

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ManualEntry is a closed interval entered by hand. Both endpoints and a
// justification note are mandatory.
type ManualEntry struct {
	UserID string    `validate:"required"`
	Date   string    `validate:"required,datetime=2006-01-02"`
	Kind   Kind      `validate:"required,oneof=work break"`
	Start  time.Time `validate:"required"`
	End    time.Time `validate:"required"`
	Note   string    `validate:"required"`
}

var validate = validator.New()

// ValidateManual checks a manual entry and returns a *ValidationError naming
// the first offending field.
func ValidateManual(entry ManualEntry) error {
	entry.Note = strings.TrimSpace(entry.Note)
	if err := validate.Struct(entry); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &ValidationError{
				Field:  strings.ToLower(fieldErrs[0].Field()),
				Reason: reasonForTag(fieldErrs[0].Tag()),
			}
		}
		return &ValidationError{Reason: err.Error()}
	}
	if !entry.End.After(entry.Start) {
		return &ValidationError{Field: "end", Reason: "must be after start"}
	}
	return nil
}

// Entry converts the manual input into a closed entry; the repository fills
// in ID and audit timestamps.
func (m ManualEntry) Entry() Entry {
	end := m.End
	return Entry{
		UserID:   m.UserID,
		Kind:     m.Kind,
		Start:    m.Start,
		End:      &end,
		Date:     m.Date,
		IsManual: true,
		Note:     strings.TrimSpace(m.Note),
	}
}

func reasonForTag(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "oneof":
		return "must be work or break"
	case "datetime":
		return "must use YYYY-MM-DD"
	default:
		return "is invalid (" + tag + ")"
	}
}
