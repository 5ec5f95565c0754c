package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidator returns a validator that reports json field names and understands
// the hhmm and isodate tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	registerCustomTags(v)
	return v
}

// ensureValidator registers the custom tags on validators handed in by callers.
func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	registerCustomTags(v)
	return v
}

func registerCustomTags(v *validator.Validate) {
	_ = v.RegisterValidation("hhmm", layoutValidator(timeLayout))
	_ = v.RegisterValidation("isodate", layoutValidator(dateLayout))
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}

// validationError turns validator output into a 400 carrying per-field details.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	details := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	wrapped := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	return appErrors.WithDetails(wrapped, details)
}

// fieldValidation builds a single-field validation error.
func fieldValidation(field, message string) error {
	return appErrors.WithDetails(appErrors.ErrValidation, []FieldError{{Field: field, Message: message}})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "hhmm":
		return "must be a time in HH:MM format"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}
