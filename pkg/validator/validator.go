package validator

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Custom returns the clinic specific validation tags keyed by tag name.
func Custom() map[string]validator.Func {
	return map[string]validator.Func{
		"ymd":  isDate,
		"hhmm": isClock,
	}
}

// Messages are the client facing texts for failed validation tags.
func Messages() map[string]string {
	return map[string]string{
		"required": "Field is required",
		"email":    "Invalid email format",
		"min":      "Value is too short",
		"max":      "Value is too long",
		"oneof":    "Value is not allowed",
		"gt":       "Value must be positive",
		"gte":      "Value must not be negative",
		"ymd":      "Date must be formatted as YYYY-MM-DD",
		"hhmm":     "Time must be formatted as HH:MM",
	}
}

// Register installs the custom tags on v.
func Register(v *validator.Validate) error {
	for tag, fn := range Custom() {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

func isDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isClock(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return hhmmPattern.MatchString(s)
}
